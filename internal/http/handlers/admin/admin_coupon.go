package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nexusorbital-promo/internal/http/response"
	"github.com/nexusorbital-promo/internal/repository"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateCouponRequest 创建优惠券请求
type CreateCouponRequest struct {
	Code           string `json:"code" binding:"required"`
	PromotionID    uint   `json:"promotion_id" binding:"required"`
	Description    string `json:"description"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	MaxUsesPerUser int    `json:"max_uses_per_user"`
	MaxUsesTotal   int    `json:"max_uses_total"`
	IsActive       *bool  `json:"is_active"`
}

// UpdateCouponRequest 更新优惠券请求（码与所属活动不可变更）
type UpdateCouponRequest struct {
	Description    string `json:"description"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	MaxUsesPerUser int    `json:"max_uses_per_user"`
	MaxUsesTotal   int    `json:"max_uses_total"`
	IsActive       *bool  `json:"is_active"`
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	coupon, err := h.CouponAdminService.Create(service.CreateCouponInput{
		Code:           req.Code,
		PromotionID:    req.PromotionID,
		Description:    req.Description,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		MaxUsesPerUser: req.MaxUsesPerUser,
		MaxUsesTotal:   req.MaxUsesTotal,
		IsActive:       req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "error.coupon_invalid", nil)
		case errors.Is(err, service.ErrCouponCodeExists):
			respondError(c, response.CodeConflict, "error.coupon_code_exists", nil)
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeBadRequest, "error.promotion_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_create_failed", err)
		}
		return
	}

	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	coupon, err := h.CouponAdminService.Update(uint(couponID), service.UpdateCouponInput{
		Description:    req.Description,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		MaxUsesPerUser: req.MaxUsesPerUser,
		MaxUsesTotal:   req.MaxUsesTotal,
		IsActive:       req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "error.coupon_not_found", nil)
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "error.coupon_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_update_failed", err)
		}
		return
	}

	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CouponAdminService.Delete(uint(couponID)); err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			respondError(c, response.CodeNotFound, "error.coupon_not_found", nil)
		case errors.Is(err, service.ErrCouponUsed):
			respondError(c, response.CodeConflict, "error.coupon_used", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_delete_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminCoupons 获取优惠券列表 (Admin)
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	code := strings.TrimSpace(c.Query("code"))
	var promotionID uint
	if raw := strings.TrimSpace(c.Query("promotion_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		promotionID = uint(parsed)
	}
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		isActive = &parsed
	}

	coupons, total, err := h.CouponAdminService.List(repository.CouponListFilter{
		Page:        page,
		PageSize:    pageSize,
		Code:        code,
		PromotionID: promotionID,
		IsActive:    isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, coupons, pagination)
}

// GenerateCouponBatchRequest 批量生成优惠码请求
type GenerateCouponBatchRequest struct {
	PromotionID    uint   `json:"promotion_id" binding:"required"`
	Count          int    `json:"count" binding:"required"`
	Prefix         string `json:"prefix"`
	CodeLength     int    `json:"code_length"`
	MaxUsesPerUser int    `json:"max_uses_per_user"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
}

// GenerateCouponBatch 批量生成单次优惠码，允许部分成功
func (h *Handler) GenerateCouponBatch(c *gin.Context) {
	var req GenerateCouponBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	startsAt, err := parseTimeNullable(req.StartsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endsAt, err := parseTimeNullable(req.EndsAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	result, err := h.CouponAdminService.GenerateBatch(service.GenerateBatchInput{
		PromotionID:    req.PromotionID,
		Count:          req.Count,
		Prefix:         req.Prefix,
		CodeLength:     req.CodeLength,
		MaxUsesPerUser: req.MaxUsesPerUser,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponInvalid):
			respondError(c, response.CodeBadRequest, "error.coupon_invalid", nil)
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeBadRequest, "error.promotion_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.coupon_batch_failed", err)
		}
		return
	}

	response.Success(c, result)
}

// GetAdminCouponUsages 获取优惠券核销记录 (Admin)
func (h *Handler) GetAdminCouponUsages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var couponID uint
	if raw := strings.TrimSpace(c.Query("coupon_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		couponID = uint(parsed)
	}
	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		userID = uint(parsed)
	}

	usages, total, err := h.CouponAdminService.ListUsage(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		CouponID: couponID,
		UserID:   userID,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_usage_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}

// GetUserCouponUsages 获取指定用户的核销记录 (Admin)
func (h *Handler) GetUserCouponUsages(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	usages, total, err := h.CouponService.ListUsageForUser(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_usage_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, usages, pagination)
}
