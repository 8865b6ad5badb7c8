package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.MembershipPlan{},
		&models.UserMembership{},
		&models.Promotion{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	// 事务入口走全局句柄
	models.DB = db
	return db
}

func newCouponTestService(db *gorm.DB) *CouponService {
	return NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewPromotionRepository(db),
		repository.NewCouponUsageRepository(db),
	)
}

func seedPromotionWithCoupon(t *testing.T, db *gorm.DB, promotion models.Promotion, coupon models.Coupon) (*models.Promotion, *models.Coupon) {
	t.Helper()
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	coupon.PromotionID = promotion.ID
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return &promotion, &coupon
}

func TestValidateRejectsByRule(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()
	past := now.Add(-time.Hour)
	earlier := past.Add(-time.Hour)
	future := now.Add(time.Hour)

	_, _ = seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "基础活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "DISABLED", MaxUsesPerUser: 1, IsActive: false},
	)
	_, _ = seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "未开始活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "NOTYET", StartsAt: &future, MaxUsesPerUser: 1, IsActive: true},
	)
	_, _ = seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "已结束活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "ENDED", StartsAt: &earlier, EndsAt: &past, MaxUsesPerUser: 1, IsActive: true},
	)
	_, _ = seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "停用活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: false},
		models.Coupon{Code: "PROMO-OFF", MaxUsesPerUser: 1, IsActive: true},
	)
	_, _ = seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "高门槛活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), MinPurchaseAmount: models.NewMoneyFromFloat(500), IsActive: true},
		models.Coupon{Code: "MIN500", MaxUsesPerUser: 1, IsActive: true},
	)
	_, _ = seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "档位限定活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), PlanIDs: "[9]", IsActive: true},
		models.Coupon{Code: "PLAN9", MaxUsesPerUser: 1, IsActive: true},
	)

	amount := models.NewMoneyFromFloat(299)
	cases := []struct {
		code     string
		expected error
	}{
		{"", ErrCouponInvalid},
		{"NOSUCH", ErrCouponNotFound},
		{"DISABLED", ErrCouponInactive},
		{"NOTYET", ErrCouponNotStarted},
		{"ENDED", ErrCouponExpired},
		{"PROMO-OFF", ErrPromotionInactive},
		{"MIN500", ErrCouponMinAmount},
		{"PLAN9", ErrMembershipNotEligible},
	}
	for _, tc := range cases {
		_, _, err := svc.Validate(tc.code, 1, amount, 2, now)
		if !errors.Is(err, tc.expected) {
			t.Fatalf("code %q: expected %v, got %v", tc.code, tc.expected, err)
		}
	}
}

func TestValidateExhaustedAndUserLimit(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()

	_, exhausted := seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "限量活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "SOLDOUT", MaxUsesPerUser: 1, MaxUsesTotal: 3, UsedCount: 3, IsActive: true},
	)
	if exhausted.UsedCount != 3 {
		t.Fatalf("unexpected seed state: %+v", exhausted)
	}
	_, _, err := svc.Validate("SOLDOUT", 1, models.NewMoneyFromFloat(100), 1, now)
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted, got %v", err)
	}

	_, limited := seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "每人一次活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "ONCE", MaxUsesPerUser: 1, IsActive: true},
	)
	usage := models.CouponUsage{
		CouponID:       limited.ID,
		CouponCode:     limited.Code,
		UserID:         7,
		OrderID:        1001,
		DiscountAmount: models.NewMoneyFromFloat(10),
		UsedAt:         now,
	}
	if err := db.Create(&usage).Error; err != nil {
		t.Fatalf("create usage failed: %v", err)
	}

	_, _, err = svc.Validate("ONCE", 7, models.NewMoneyFromFloat(100), 1, now)
	if !errors.Is(err, ErrCouponUserLimit) {
		t.Fatalf("expected ErrCouponUserLimit for used-up user, got %v", err)
	}
	if _, _, err := svc.Validate("ONCE", 8, models.NewMoneyFromFloat(100), 1, now); err != nil {
		t.Fatalf("expected other user to pass, got %v", err)
	}
}

func TestValidateAndComputePercentage(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()

	seedPromotionWithCoupon(t, db,
		models.Promotion{
			Name:              "周年庆",
			Type:              "percentage",
			Value:             models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			MaxDiscountAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			IsActive:          true,
		},
		models.Coupon{Code: "ANNIV20", MaxUsesPerUser: 1, IsActive: true},
	)

	discount, promotion, coupon, err := svc.ValidateAndCompute("ANNIV20", 1, models.NewMoneyFromFloat(400), 1, now)
	if err != nil {
		t.Fatalf("ValidateAndCompute error: %v", err)
	}
	if promotion == nil || coupon == nil {
		t.Fatalf("expected promotion and coupon, got %v %v", promotion, coupon)
	}
	if !discount.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected capped discount 50, got %s", discount.String())
	}
}

func TestRedeemConsumesUseAndRecordsUsage(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()

	_, coupon := seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "核销活动", Type: "fixed", Value: models.NewMoneyFromFloat(30), IsActive: true},
		models.Coupon{Code: "REDEEM30", MaxUsesPerUser: 1, MaxUsesTotal: 10, IsActive: true},
	)

	usage, err := svc.Redeem(RedeemInput{
		Code:           "REDEEM30",
		UserID:         5,
		OrderID:        2001,
		PurchaseAmount: models.NewMoneyFromFloat(299),
		DiscountAmount: models.NewMoneyFromFloat(30),
		PlanID:         1,
		Now:            now,
	})
	if err != nil {
		t.Fatalf("Redeem error: %v", err)
	}
	if usage.CouponID != coupon.ID || usage.OrderID != 2001 {
		t.Fatalf("unexpected usage record: %+v", usage)
	}

	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsedCount != 1 {
		t.Fatalf("expected used_count 1, got %d", reloaded.UsedCount)
	}

	// 同一用户再次核销应被每人上限拦截
	_, err = svc.Redeem(RedeemInput{
		Code:           "REDEEM30",
		UserID:         5,
		OrderID:        2002,
		PurchaseAmount: models.NewMoneyFromFloat(299),
		DiscountAmount: models.NewMoneyFromFloat(30),
		PlanID:         1,
		Now:            now,
	})
	if !errors.Is(err, ErrCouponUserLimit) {
		t.Fatalf("expected ErrCouponUserLimit, got %v", err)
	}
}

func TestRedeemMultiUseUserLimitRollsBack(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()

	_, coupon := seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "多次核销活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "MULTI2", MaxUsesPerUser: 2, MaxUsesTotal: 10, IsActive: true},
	)

	redeem := func(orderID uint) error {
		_, err := svc.Redeem(RedeemInput{
			Code:           "MULTI2",
			UserID:         9,
			OrderID:        orderID,
			PurchaseAmount: models.NewMoneyFromFloat(100),
			DiscountAmount: models.NewMoneyFromFloat(10),
			PlanID:         1,
			Now:            now,
		})
		return err
	}

	if err := redeem(3001); err != nil {
		t.Fatalf("first redeem error: %v", err)
	}
	if err := redeem(3002); err != nil {
		t.Fatalf("second redeem error: %v", err)
	}
	if err := redeem(3003); !errors.Is(err, ErrCouponUserLimit) {
		t.Fatalf("expected ErrCouponUserLimit, got %v", err)
	}

	// 被拦截的核销不得留下计数或记录
	var reloaded models.Coupon
	if err := db.First(&reloaded, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.UsedCount != 2 {
		t.Fatalf("expected used_count 2, got %d", reloaded.UsedCount)
	}
	var usages int64
	if err := db.Model(&models.CouponUsage{}).Where("coupon_code = ? AND user_id = ?", "MULTI2", 9).Count(&usages).Error; err != nil {
		t.Fatalf("count usages failed: %v", err)
	}
	if usages != 2 {
		t.Fatalf("expected 2 usage records, got %d", usages)
	}
}

func TestRedeemTotalLimitGuard(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()

	seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "单次券活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "SINGLE", MaxUsesPerUser: 1, MaxUsesTotal: 1, IsActive: true},
	)

	if _, err := svc.Redeem(RedeemInput{
		Code: "SINGLE", UserID: 1, OrderID: 3001,
		PurchaseAmount: models.NewMoneyFromFloat(100),
		DiscountAmount: models.NewMoneyFromFloat(10),
		PlanID:         1, Now: now,
	}); err != nil {
		t.Fatalf("first redeem error: %v", err)
	}

	_, err := svc.Redeem(RedeemInput{
		Code: "SINGLE", UserID: 2, OrderID: 3002,
		PurchaseAmount: models.NewMoneyFromFloat(100),
		DiscountAmount: models.NewMoneyFromFloat(10),
		PlanID:         1, Now: now,
	})
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("expected ErrCouponExhausted, got %v", err)
	}

	var usages int64
	if err := db.Model(&models.CouponUsage{}).Count(&usages).Error; err != nil {
		t.Fatalf("count usages failed: %v", err)
	}
	if usages != 1 {
		t.Fatalf("expected 1 usage record, got %d", usages)
	}
}

func TestListUsageForUserIncludesPromotionName(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newCouponTestService(db)
	now := time.Now()

	promotion, coupon := seedPromotionWithCoupon(t, db,
		models.Promotion{Name: "命名活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true},
		models.Coupon{Code: "NAMED", MaxUsesPerUser: 3, IsActive: true},
	)
	for i := 0; i < 2; i++ {
		usage := models.CouponUsage{
			CouponID:       coupon.ID,
			CouponCode:     coupon.Code,
			UserID:         9,
			OrderID:        uint(4000 + i),
			DiscountAmount: models.NewMoneyFromFloat(10),
			UsedAt:         now,
		}
		if err := db.Create(&usage).Error; err != nil {
			t.Fatalf("create usage failed: %v", err)
		}
	}

	result, total, err := svc.ListUsageForUser(repository.CouponUsageListFilter{UserID: 9, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListUsageForUser error: %v", err)
	}
	if total != 2 || len(result) != 2 {
		t.Fatalf("expected 2 usages, got total=%d len=%d", total, len(result))
	}
	for _, entry := range result {
		if entry.PromotionName != promotion.Name {
			t.Fatalf("expected promotion name %q, got %q", promotion.Name, entry.PromotionName)
		}
	}
}
