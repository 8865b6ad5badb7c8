package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/cache"
	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromotionAdminService 活动管理服务
type PromotionAdminService struct {
	promotionRepo repository.PromotionRepository
	couponRepo    repository.CouponRepository
}

// NewPromotionAdminService 创建活动管理服务
func NewPromotionAdminService(promotionRepo repository.PromotionRepository, couponRepo repository.CouponRepository) *PromotionAdminService {
	return &PromotionAdminService{
		promotionRepo: promotionRepo,
		couponRepo:    couponRepo,
	}
}

// CreatePromotionInput 创建活动输入
type CreatePromotionInput struct {
	Name              string
	Description       string
	Type              string
	Value             models.Money
	MinPurchaseAmount models.Money
	MaxDiscountAmount models.Money
	StartsAt          *time.Time
	EndsAt            *time.Time
	IsActive          *bool
	PlanIDs           []uint
	CouponCode        string // 非空时同步创建一张绑定该活动的优惠券
}

// UpdatePromotionInput 更新活动输入
type UpdatePromotionInput struct {
	Name              string
	Description       string
	Type              string
	Value             models.Money
	MinPurchaseAmount models.Money
	MaxDiscountAmount models.Money
	StartsAt          *time.Time
	EndsAt            *time.Time
	IsActive          *bool
	PlanIDs           []uint
}

// Create 创建活动，按需同步创建优惠券
func (s *PromotionAdminService) Create(input CreatePromotionInput) (*models.Promotion, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPromotionInvalid
	}
	promotionType, err := validatePromotionRule(input.Type, input.Value, input.MinPurchaseAmount, input.MaxDiscountAmount, input.StartsAt, input.EndsAt)
	if err != nil {
		return nil, err
	}

	couponCode := strings.TrimSpace(input.CouponCode)
	if couponCode != "" {
		existing, err := s.couponRepo.GetByCode(couponCode)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrCouponCodeExists
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	planIDs, err := encodePlanIDs(input.PlanIDs)
	if err != nil {
		return nil, ErrPromotionInvalid
	}

	promotion := &models.Promotion{
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		Type:              promotionType,
		Value:             input.Value,
		MinPurchaseAmount: input.MinPurchaseAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		StartsAt:          input.StartsAt,
		EndsAt:            input.EndsAt,
		IsActive:          isActive,
		PlanIDs:           planIDs,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		promotionRepo := s.promotionRepo.WithTx(tx)
		couponRepo := s.couponRepo.WithTx(tx)

		if err := promotionRepo.Create(promotion); err != nil {
			return err
		}
		if couponCode == "" {
			return nil
		}
		coupon := &models.Coupon{
			Code:           couponCode,
			PromotionID:    promotion.ID,
			Description:    promotion.Name,
			StartsAt:       promotion.StartsAt,
			EndsAt:         promotion.EndsAt,
			MaxUsesPerUser: 1,
			MaxUsesTotal:   0,
			IsActive:       true,
		}
		if err := couponRepo.Create(coupon); err != nil {
			return err
		}
		promotion.CouponID = &coupon.ID
		return promotionRepo.Update(promotion)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCache()
	logger.Infow("promotion_created",
		"promotion_id", promotion.ID,
		"type", promotion.Type,
		"with_coupon", couponCode != "",
	)
	return promotion, nil
}

// Update 更新活动
func (s *PromotionAdminService) Update(id uint, input UpdatePromotionInput) (*models.Promotion, error) {
	if id == 0 {
		return nil, ErrPromotionInvalid
	}
	existing, err := s.promotionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrPromotionNotFound
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPromotionInvalid
	}
	promotionType, err := validatePromotionRule(input.Type, input.Value, input.MinPurchaseAmount, input.MaxDiscountAmount, input.StartsAt, input.EndsAt)
	if err != nil {
		return nil, err
	}

	isActive := existing.IsActive
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	planIDs, err := encodePlanIDs(input.PlanIDs)
	if err != nil {
		return nil, ErrPromotionInvalid
	}

	existing.Name = name
	existing.Description = strings.TrimSpace(input.Description)
	existing.Type = promotionType
	existing.Value = input.Value
	existing.MinPurchaseAmount = input.MinPurchaseAmount
	existing.MaxDiscountAmount = input.MaxDiscountAmount
	existing.StartsAt = input.StartsAt
	existing.EndsAt = input.EndsAt
	existing.IsActive = isActive
	existing.PlanIDs = planIDs

	if err := s.promotionRepo.Update(existing); err != nil {
		return nil, ErrPromotionUpdateFailed
	}

	s.invalidateCache()
	return existing, nil
}

// Delete 删除活动并级联删除其全部优惠券
func (s *PromotionAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrPromotionInvalid
	}
	existing, err := s.promotionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrPromotionNotFound
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.couponRepo.WithTx(tx).DeleteByPromotionID(id); err != nil {
			return err
		}
		return s.promotionRepo.WithTx(tx).Delete(id)
	})
	if err != nil {
		return ErrPromotionDeleteFailed
	}

	s.invalidateCache()
	logger.Infow("promotion_deleted", "promotion_id", id)
	return nil
}

// List 获取活动列表
func (s *PromotionAdminService) List(filter repository.PromotionListFilter) ([]models.Promotion, int64, error) {
	return s.promotionRepo.List(filter)
}

func (s *PromotionAdminService) invalidateCache() {
	if err := cache.DelActivePromotions(context.Background()); err != nil {
		logger.Warnw("promotion_cache_invalidate_failed", "error", err)
	}
}

// validatePromotionRule 校验活动规则字段，返回规范化后的类型
func validatePromotionRule(rawType string, value, minPurchase, maxDiscount models.Money, startsAt, endsAt *time.Time) (string, error) {
	promotionType := strings.ToLower(strings.TrimSpace(rawType))
	switch promotionType {
	case constants.PromotionTypePercentage:
		if value.Decimal.LessThanOrEqual(decimal.Zero) || value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return "", ErrPromotionInvalid
		}
	case constants.PromotionTypeFixed, constants.PromotionTypeFreeUpgrade:
		if value.Decimal.LessThanOrEqual(decimal.Zero) {
			return "", ErrPromotionInvalid
		}
	default:
		return "", ErrPromotionInvalid
	}
	if minPurchase.Decimal.LessThan(decimal.Zero) || maxDiscount.Decimal.LessThan(decimal.Zero) {
		return "", ErrPromotionInvalid
	}
	if startsAt != nil && endsAt != nil && !startsAt.Before(*endsAt) {
		return "", ErrPromotionInvalid
	}
	return promotionType, nil
}

func encodePlanIDs(ids []uint) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
