package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"
)

func newCouponAdminTestService(t *testing.T) (*CouponAdminService, *models.Promotion) {
	t.Helper()
	db := openServiceTestDB(t)
	svc := NewCouponAdminService(
		repository.NewCouponRepository(db),
		repository.NewPromotionRepository(db),
		repository.NewCouponUsageRepository(db),
	)
	promotion := models.Promotion{Name: "管理测试活动", Type: "fixed", Value: models.NewMoneyFromFloat(10), IsActive: true}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return svc, &promotion
}

func TestCouponAdminCreateDuplicateCode(t *testing.T) {
	svc, promotion := newCouponAdminTestService(t)

	coupon, err := svc.Create(CreateCouponInput{Code: "DUP", PromotionID: promotion.ID})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if coupon.MaxUsesPerUser != 1 {
		t.Fatalf("expected default max_uses_per_user 1, got %d", coupon.MaxUsesPerUser)
	}

	_, err = svc.Create(CreateCouponInput{Code: "DUP", PromotionID: promotion.ID})
	if !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("expected ErrCouponCodeExists, got %v", err)
	}
}

func TestCouponAdminCreateValidation(t *testing.T) {
	svc, promotion := newCouponAdminTestService(t)

	cases := []struct {
		name     string
		input    CreateCouponInput
		expected error
	}{
		{"empty code", CreateCouponInput{Code: "  ", PromotionID: promotion.ID}, ErrCouponInvalid},
		{"missing promotion id", CreateCouponInput{Code: "X1"}, ErrCouponInvalid},
		{"negative limit", CreateCouponInput{Code: "X2", PromotionID: promotion.ID, MaxUsesTotal: -1}, ErrCouponInvalid},
		{"unknown promotion", CreateCouponInput{Code: "X3", PromotionID: 9999}, ErrPromotionNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.Create(tc.input); !errors.Is(err, tc.expected) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, err)
		}
	}
}

func TestCouponAdminUpdateKeepsCodeAndPromotion(t *testing.T) {
	svc, promotion := newCouponAdminTestService(t)

	created, err := svc.Create(CreateCouponInput{Code: "KEEP", PromotionID: promotion.ID, Description: "原描述"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	inactive := false
	updated, err := svc.Update(created.ID, UpdateCouponInput{
		Description:  "新描述",
		MaxUsesTotal: 5,
		IsActive:     &inactive,
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Code != "KEEP" || updated.PromotionID != promotion.ID {
		t.Fatalf("code or promotion changed: %+v", updated)
	}
	if updated.Description != "新描述" || updated.MaxUsesTotal != 5 || updated.IsActive {
		t.Fatalf("unexpected update result: %+v", updated)
	}
}

func TestCouponAdminDeleteBlockedOnceUsed(t *testing.T) {
	svc, promotion := newCouponAdminTestService(t)

	created, err := svc.Create(CreateCouponInput{Code: "USED", PromotionID: promotion.ID})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := models.DB.Model(&models.Coupon{}).Where("id = ?", created.ID).Update("used_count", 1).Error; err != nil {
		t.Fatalf("mark used failed: %v", err)
	}

	if err := svc.Delete(created.ID); !errors.Is(err, ErrCouponUsed) {
		t.Fatalf("expected ErrCouponUsed, got %v", err)
	}

	fresh, err := svc.Create(CreateCouponInput{Code: "FRESH", PromotionID: promotion.ID})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := svc.Delete(fresh.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := svc.Delete(fresh.ID); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound after delete, got %v", err)
	}
}

func TestGenerateBatch(t *testing.T) {
	svc, promotion := newCouponAdminTestService(t)

	result, err := svc.GenerateBatch(GenerateBatchInput{
		PromotionID: promotion.ID,
		Count:       10,
		Prefix:      "PROMO-",
		CodeLength:  6,
	})
	if err != nil {
		t.Fatalf("GenerateBatch error: %v", err)
	}
	if result.TotalGenerated != 10 || result.TotalErrors != 0 {
		t.Fatalf("expected 10 generated, got %+v", result)
	}

	seen := map[string]bool{}
	for _, coupon := range result.Coupons {
		if !strings.HasPrefix(coupon.Code, "PROMO-") || len(coupon.Code) != len("PROMO-")+6 {
			t.Fatalf("unexpected code format: %s", coupon.Code)
		}
		if seen[coupon.Code] {
			t.Fatalf("duplicate code generated: %s", coupon.Code)
		}
		seen[coupon.Code] = true
		if coupon.MaxUsesTotal != 1 || coupon.MaxUsesPerUser != 1 {
			t.Fatalf("batch coupons must be single-use: %+v", coupon)
		}
	}
}

func TestGenerateBatchValidation(t *testing.T) {
	svc, promotion := newCouponAdminTestService(t)

	cases := []struct {
		name     string
		input    GenerateBatchInput
		expected error
	}{
		{"zero count", GenerateBatchInput{PromotionID: promotion.ID, Count: 0, CodeLength: 6}, ErrCouponInvalid},
		{"count over cap", GenerateBatchInput{PromotionID: promotion.ID, Count: 101, CodeLength: 6}, ErrCouponInvalid},
		{"code too short", GenerateBatchInput{PromotionID: promotion.ID, Count: 1, CodeLength: 3}, ErrCouponInvalid},
		{"code too long", GenerateBatchInput{PromotionID: promotion.ID, Count: 1, CodeLength: 13}, ErrCouponInvalid},
		{"unknown promotion", GenerateBatchInput{PromotionID: 9999, Count: 1, CodeLength: 6}, ErrPromotionNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.GenerateBatch(tc.input); !errors.Is(err, tc.expected) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.expected, err)
		}
	}
}
