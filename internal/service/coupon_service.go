package service

import (
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"

	"gorm.io/gorm"
)

// CouponService 优惠券核销服务
type CouponService struct {
	couponRepo    repository.CouponRepository
	promotionRepo repository.PromotionRepository
	usageRepo     repository.CouponUsageRepository
}

// NewCouponService 创建优惠券核销服务
func NewCouponService(couponRepo repository.CouponRepository, promotionRepo repository.PromotionRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{
		couponRepo:    couponRepo,
		promotionRepo: promotionRepo,
		usageRepo:     usageRepo,
	}
}

// Validate 校验优惠码是否可用，按固定顺序检查，首个失败项即为返回原因。
// 只读校验，不产生任何状态变更。
func (s *CouponService) Validate(code string, userID uint, purchaseAmount models.Money, planID uint, now time.Time) (*models.Promotion, *models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, nil, ErrCouponInvalid
	}

	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, nil, err
	}
	if coupon == nil {
		return nil, nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return nil, coupon, ErrCouponInactive
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, coupon, ErrCouponNotStarted
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return nil, coupon, ErrCouponExpired
	}

	promotion, err := s.promotionRepo.GetByID(coupon.PromotionID)
	if err != nil {
		return nil, coupon, err
	}
	if promotion == nil || !IsEffective(promotion, now) {
		return nil, coupon, ErrPromotionInactive
	}

	if coupon.MaxUsesTotal > 0 && coupon.UsedCount >= coupon.MaxUsesTotal {
		return nil, coupon, ErrCouponExhausted
	}

	if coupon.MaxUsesPerUser > 0 && userID != 0 {
		count, err := s.usageRepo.CountByCodeAndUser(coupon.Code, userID)
		if err != nil {
			return nil, coupon, err
		}
		if int(count) >= coupon.MaxUsesPerUser {
			return nil, coupon, ErrCouponUserLimit
		}
	}

	if purchaseAmount.Decimal.Cmp(promotion.MinPurchaseAmount.Decimal) < 0 {
		return nil, coupon, ErrCouponMinAmount
	}

	eligible, err := PlanEligible(promotion, planID)
	if err != nil {
		return nil, coupon, err
	}
	if !eligible {
		return nil, coupon, ErrMembershipNotEligible
	}

	return promotion, coupon, nil
}

// ValidateAndCompute 校验优惠码并计算折扣金额
func (s *CouponService) ValidateAndCompute(code string, userID uint, purchaseAmount models.Money, planID uint, now time.Time) (models.Money, *models.Promotion, *models.Coupon, error) {
	promotion, coupon, err := s.Validate(code, userID, purchaseAmount, planID, now)
	if err != nil {
		return models.Money{}, nil, coupon, err
	}
	discount, err := ComputeDiscount(promotion, purchaseAmount)
	if err != nil {
		return models.Money{}, nil, coupon, err
	}
	return discount, promotion, coupon, nil
}

// RedeemInput 核销输入
type RedeemInput struct {
	Code           string
	UserID         uint
	OrderID        uint
	PurchaseAmount models.Money
	DiscountAmount models.Money
	PlanID         uint
	Now            time.Time
}

// Redeem 核销优惠码：二次校验后条件自增使用次数并追加核销记录。
// 整个序列在单个事务内完成，计数守卫失败时回滚。
func (s *CouponService) Redeem(input RedeemInput) (*models.CouponUsage, error) {
	var usage *models.CouponUsage
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		created, err := s.redeemTx(tx, input)
		if err != nil {
			return err
		}
		usage = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

// RedeemTx 在外部事务内核销，供订单回调复用
func (s *CouponService) RedeemTx(tx *gorm.DB, input RedeemInput) (*models.CouponUsage, error) {
	return s.redeemTx(tx, input)
}

func (s *CouponService) redeemTx(tx *gorm.DB, input RedeemInput) (*models.CouponUsage, error) {
	couponRepo := s.couponRepo.WithTx(tx)
	usageRepo := s.usageRepo.WithTx(tx)

	scoped := &CouponService{
		couponRepo:    couponRepo,
		promotionRepo: s.promotionRepo.WithTx(tx),
		usageRepo:     usageRepo,
	}
	_, coupon, err := scoped.Validate(input.Code, input.UserID, input.PurchaseAmount, input.PlanID, input.Now)
	if err != nil {
		return nil, err
	}

	ok, err := couponRepo.TryConsumeUse(coupon.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCouponExhausted
	}

	// TryConsumeUse 已持有券行锁，限额复查在锁内进行：
	// 并发核销在此串行化，校验阶段的旧计数不再作数。
	if coupon.MaxUsesPerUser > 0 && input.UserID != 0 {
		count, err := usageRepo.CountByCodeAndUser(coupon.Code, input.UserID)
		if err != nil {
			return nil, err
		}
		if int(count) >= coupon.MaxUsesPerUser {
			return nil, ErrCouponUserLimit
		}
	}

	usage := &models.CouponUsage{
		CouponID:       coupon.ID,
		CouponCode:     coupon.Code,
		UserID:         input.UserID,
		OrderID:        input.OrderID,
		DiscountAmount: input.DiscountAmount,
		UsedAt:         input.Now,
	}
	if err := usageRepo.Create(usage); err != nil {
		return nil, err
	}

	logger.Infow("coupon_redeemed",
		"coupon_id", coupon.ID,
		"code", coupon.Code,
		"user_id", input.UserID,
		"order_id", input.OrderID,
		"discount", input.DiscountAmount.String(),
	)
	return usage, nil
}

// UsageWithPromotion 核销记录与所属活动名称
type UsageWithPromotion struct {
	models.CouponUsage
	PromotionName string `json:"promotion_name"`
}

// ListUsageForUser 获取用户核销记录，附带活动名称
func (s *CouponService) ListUsageForUser(filter repository.CouponUsageListFilter) ([]UsageWithPromotion, int64, error) {
	usages, total, err := s.usageRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]UsageWithPromotion, 0, len(usages))
	promotionNames := map[uint]string{}
	for _, usage := range usages {
		entry := UsageWithPromotion{CouponUsage: usage}
		if name, ok := promotionNames[usage.CouponID]; ok {
			entry.PromotionName = name
		} else if name, err := s.resolvePromotionName(usage.CouponID); err == nil {
			promotionNames[usage.CouponID] = name
			entry.PromotionName = name
		}
		result = append(result, entry)
	}
	return result, total, nil
}

func (s *CouponService) resolvePromotionName(couponID uint) (string, error) {
	coupon, err := s.couponRepo.GetByID(couponID)
	if err != nil || coupon == nil {
		return "", err
	}
	promotion, err := s.promotionRepo.GetByID(coupon.PromotionID)
	if err != nil || promotion == nil {
		return "", err
	}
	return promotion.Name, nil
}
