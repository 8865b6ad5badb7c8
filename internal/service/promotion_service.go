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
)

// PromotionService 活动查询与折扣计算服务
type PromotionService struct {
	promotionRepo repository.PromotionRepository
}

// NewPromotionService 创建活动服务
func NewPromotionService(promotionRepo repository.PromotionRepository) *PromotionService {
	return &PromotionService{
		promotionRepo: promotionRepo,
	}
}

// EffectiveStatus 计算活动的展示状态。
// 停用优先于窗口判断，过期优先于未开始。
func EffectiveStatus(promotion *models.Promotion, now time.Time) string {
	if promotion == nil {
		return constants.PromotionStatusDisabled
	}
	if !promotion.IsActive {
		return constants.PromotionStatusDisabled
	}
	if promotion.EndsAt != nil && promotion.EndsAt.Before(now) {
		return constants.PromotionStatusExpired
	}
	if promotion.StartsAt != nil && promotion.StartsAt.After(now) {
		return constants.PromotionStatusPending
	}
	return constants.PromotionStatusActive
}

// IsEffective 判断活动当前是否可用
func IsEffective(promotion *models.Promotion, now time.Time) bool {
	return EffectiveStatus(promotion, now) == constants.PromotionStatusActive
}

// ListActive 获取生效中的活动列表，优先读缓存
func (s *PromotionService) ListActive(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	if cached, hit, err := cache.GetActivePromotions(ctx); err == nil && hit {
		return cached, nil
	} else if err != nil {
		logger.Warnw("promotion_cache_read_failed", "error", err)
	}

	promotions, err := s.promotionRepo.ListEffective(now)
	if err != nil {
		return nil, err
	}
	if err := cache.SetActivePromotions(ctx, promotions); err != nil {
		logger.Warnw("promotion_cache_write_failed", "error", err)
	}
	return promotions, nil
}

// GetByID 获取活动详情
func (s *PromotionService) GetByID(id uint) (*models.Promotion, error) {
	if id == 0 {
		return nil, ErrPromotionInvalid
	}
	promotion, err := s.promotionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}
	return promotion, nil
}

// PlanEligible 判断会员档位是否在活动的适用范围内。
// 档位集合为空表示对全部档位开放。
func PlanEligible(promotion *models.Promotion, planID uint) (bool, error) {
	ids, err := decodePlanIDs(promotion.PlanIDs)
	if err != nil {
		return false, ErrPromotionInvalid
	}
	if len(ids) == 0 {
		return true, nil
	}
	_, ok := ids[planID]
	return ok, nil
}

// ComputeDiscount 计算活动对给定金额的折扣。
// 结果保留 2 位小数（四舍五入），不为负且不超过购买金额。
func ComputeDiscount(promotion *models.Promotion, amount models.Money) (models.Money, error) {
	if promotion == nil {
		return models.Money{}, ErrPromotionInvalid
	}
	if amount.Decimal.LessThan(decimal.Zero) {
		return models.Money{}, ErrInvalidOrderAmount
	}

	value := promotion.Value.Decimal
	if value.LessThanOrEqual(decimal.Zero) {
		return models.Money{}, ErrPromotionInvalid
	}

	var discount decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(promotion.Type)) {
	case constants.PromotionTypePercentage:
		if value.GreaterThan(decimal.NewFromInt(100)) {
			return models.Money{}, ErrPromotionInvalid
		}
		discount = amount.Decimal.Mul(value).Div(decimal.NewFromInt(100))
		if promotion.MaxDiscountAmount.Decimal.GreaterThan(decimal.Zero) && discount.GreaterThan(promotion.MaxDiscountAmount.Decimal) {
			discount = promotion.MaxDiscountAmount.Decimal
		}
	case constants.PromotionTypeFixed:
		discount = value
	case constants.PromotionTypeFreeUpgrade:
		// 升级差价由调用方作为金额传入，全额抵扣
		discount = amount.Decimal
	default:
		return models.Money{}, ErrPromotionInvalid
	}

	if discount.GreaterThan(amount.Decimal) {
		discount = amount.Decimal
	}
	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}
	return models.NewMoneyFromDecimal(discount), nil
}

func decodePlanIDs(raw string) (map[uint]struct{}, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[uint]struct{}{}, nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
		return nil, err
	}
	result := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		result[id] = struct{}{}
	}
	return result, nil
}
