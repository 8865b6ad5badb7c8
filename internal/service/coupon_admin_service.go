package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"
)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	couponRepo    repository.CouponRepository
	promotionRepo repository.PromotionRepository
	usageRepo     repository.CouponUsageRepository
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(couponRepo repository.CouponRepository, promotionRepo repository.PromotionRepository, usageRepo repository.CouponUsageRepository) *CouponAdminService {
	return &CouponAdminService{
		couponRepo:    couponRepo,
		promotionRepo: promotionRepo,
		usageRepo:     usageRepo,
	}
}

// CreateCouponInput 创建优惠券输入
type CreateCouponInput struct {
	Code           string
	PromotionID    uint
	Description    string
	StartsAt       *time.Time
	EndsAt         *time.Time
	MaxUsesPerUser int
	MaxUsesTotal   int
	IsActive       *bool
}

// UpdateCouponInput 更新优惠券输入
type UpdateCouponInput struct {
	Description    string
	StartsAt       *time.Time
	EndsAt         *time.Time
	MaxUsesPerUser int
	MaxUsesTotal   int
	IsActive       *bool
}

// Create 创建优惠券
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrCouponInvalid
	}
	if input.PromotionID == 0 {
		return nil, ErrCouponInvalid
	}
	if input.MaxUsesPerUser < 0 || input.MaxUsesTotal < 0 {
		return nil, ErrCouponInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrCouponInvalid
	}

	promotion, err := s.promotionRepo.GetByID(input.PromotionID)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}

	exist, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	maxUsesPerUser := input.MaxUsesPerUser
	if maxUsesPerUser == 0 {
		maxUsesPerUser = 1
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	coupon := &models.Coupon{
		Code:           code,
		PromotionID:    input.PromotionID,
		Description:    strings.TrimSpace(input.Description),
		StartsAt:       input.StartsAt,
		EndsAt:         input.EndsAt,
		MaxUsesPerUser: maxUsesPerUser,
		MaxUsesTotal:   input.MaxUsesTotal,
		UsedCount:      0,
		IsActive:       isActive,
	}

	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Update 更新优惠券（优惠码与所属活动不可变）
func (s *CouponAdminService) Update(id uint, input UpdateCouponInput) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponInvalid
	}
	existing, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrCouponNotFound
	}
	if input.MaxUsesPerUser < 0 || input.MaxUsesTotal < 0 {
		return nil, ErrCouponInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrCouponInvalid
	}

	existing.Description = strings.TrimSpace(input.Description)
	existing.StartsAt = input.StartsAt
	existing.EndsAt = input.EndsAt
	if input.MaxUsesPerUser > 0 {
		existing.MaxUsesPerUser = input.MaxUsesPerUser
	}
	existing.MaxUsesTotal = input.MaxUsesTotal
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	if err := s.couponRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(id uint) error {
	if id == 0 {
		return ErrCouponInvalid
	}
	existing, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCouponNotFound
	}
	if existing.UsedCount > 0 {
		return ErrCouponUsed
	}
	return s.couponRepo.Delete(id)
}

// List 获取优惠券列表
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// ListUsage 获取优惠券核销记录
func (s *CouponAdminService) ListUsage(filter repository.CouponUsageListFilter) ([]models.CouponUsage, int64, error) {
	return s.usageRepo.ListByCoupon(filter)
}

// GenerateBatchInput 批量生成输入
type GenerateBatchInput struct {
	PromotionID    uint
	Count          int
	Prefix         string
	CodeLength     int
	MaxUsesPerUser int
	StartsAt       *time.Time
	EndsAt         *time.Time
}

// BatchItemError 批量生成单项失败信息
type BatchItemError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BatchResult 批量生成结果，允许部分成功
type BatchResult struct {
	Coupons        []models.Coupon  `json:"coupons"`
	Errors         []BatchItemError `json:"errors"`
	TotalGenerated int              `json:"total_generated"`
	TotalErrors    int              `json:"total_errors"`
}

// GenerateBatch 批量生成单次优惠券。
// 逐条生成并落库，码冲突时重试，重试耗尽只记录该项失败，不回滚已生成部分。
func (s *CouponAdminService) GenerateBatch(input GenerateBatchInput) (*BatchResult, error) {
	if input.PromotionID == 0 {
		return nil, ErrCouponInvalid
	}
	if input.Count < 1 || input.Count > constants.CouponBatchMaxCount {
		return nil, ErrCouponInvalid
	}
	if input.CodeLength < constants.CouponCodeMinLength || input.CodeLength > constants.CouponCodeMaxLength {
		return nil, ErrCouponInvalid
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, ErrCouponInvalid
	}

	promotion, err := s.promotionRepo.GetByID(input.PromotionID)
	if err != nil {
		return nil, err
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}

	maxUsesPerUser := input.MaxUsesPerUser
	if maxUsesPerUser <= 0 {
		maxUsesPerUser = 1
	}
	prefix := strings.TrimSpace(input.Prefix)

	result := &BatchResult{
		Coupons: make([]models.Coupon, 0, input.Count),
		Errors:  []BatchItemError{},
	}

	for i := 0; i < input.Count; i++ {
		code, err := s.generateUniqueCode(prefix, input.CodeLength)
		if err != nil {
			result.Errors = append(result.Errors, BatchItemError{Index: i, Reason: err.Error()})
			continue
		}
		coupon := &models.Coupon{
			Code:           code,
			PromotionID:    input.PromotionID,
			Description:    promotion.Name,
			StartsAt:       input.StartsAt,
			EndsAt:         input.EndsAt,
			MaxUsesPerUser: maxUsesPerUser,
			MaxUsesTotal:   1,
			IsActive:       true,
		}
		if err := s.couponRepo.Create(coupon); err != nil {
			result.Errors = append(result.Errors, BatchItemError{Index: i, Reason: err.Error()})
			continue
		}
		result.Coupons = append(result.Coupons, *coupon)
	}

	result.TotalGenerated = len(result.Coupons)
	result.TotalErrors = len(result.Errors)
	logger.Infow("coupon_batch_generated",
		"promotion_id", input.PromotionID,
		"requested", input.Count,
		"generated", result.TotalGenerated,
		"errors", result.TotalErrors,
	)
	return result, nil
}

// generateUniqueCode 生成带前缀的唯一优惠码，冲突时重试
func (s *CouponAdminService) generateUniqueCode(prefix string, length int) (string, error) {
	for attempt := 0; attempt < constants.CouponCodeMaxAttempts; attempt++ {
		random, err := randomCode(length)
		if err != nil {
			return "", err
		}
		code := prefix + random
		exist, err := s.couponRepo.GetByCode(code)
		if err != nil {
			return "", err
		}
		if exist == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("code collision retries exhausted after %d attempts", constants.CouponCodeMaxAttempts)
}

// randomCode 生成无偏随机码（A-Z0-9）
func randomCode(length int) (string, error) {
	alphabet := constants.CouponCodeAlphabet
	max := big.NewInt(int64(len(alphabet)))
	builder := strings.Builder{}
	builder.Grow(length)
	for i := 0; i < length; i++ {
		index, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[index.Int64()])
	}
	return builder.String(), nil
}
