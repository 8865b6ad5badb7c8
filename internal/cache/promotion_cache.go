package cache

import (
	"context"
	"time"

	"github.com/nexusorbital-promo/internal/models"
)

const promotionListCacheTTL = 60 * time.Second

const promotionListKey = "promotions:active"

// GetActivePromotions 获取生效活动列表快照
func GetActivePromotions(ctx context.Context) ([]models.Promotion, bool, error) {
	var promotions []models.Promotion
	hit, err := GetJSON(ctx, promotionListKey, &promotions)
	if err != nil || !hit {
		return nil, hit, err
	}
	return promotions, true, nil
}

// SetActivePromotions 写入生效活动列表快照
func SetActivePromotions(ctx context.Context, promotions []models.Promotion) error {
	if promotions == nil {
		promotions = []models.Promotion{}
	}
	return SetJSON(ctx, promotionListKey, promotions, promotionListCacheTTL)
}

// DelActivePromotions 删除活动列表快照，管理端变更后调用
func DelActivePromotions(ctx context.Context) error {
	return Del(ctx, promotionListKey)
}
