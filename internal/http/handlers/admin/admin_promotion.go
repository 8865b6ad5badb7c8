package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/http/response"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PromotionRequest 创建/更新活动请求
type PromotionRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	Type              string  `json:"type" binding:"required"`
	Value             float64 `json:"value" binding:"required"`
	MinPurchaseAmount float64 `json:"min_purchase_amount"`
	MaxDiscountAmount float64 `json:"max_discount_amount"`
	StartsAt          string  `json:"starts_at"`
	EndsAt            string  `json:"ends_at"`
	IsActive          *bool   `json:"is_active"`
	PlanIDs           []uint  `json:"plan_ids"`
	CouponCode        string  `json:"coupon_code"`
}

// CreatePromotion 创建活动
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req PromotionRequest
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

	promotion, err := h.PromotionAdminService.Create(service.CreatePromotionInput{
		Name:              req.Name,
		Description:       req.Description,
		Type:              req.Type,
		Value:             models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Value)),
		MinPurchaseAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MinPurchaseAmount)),
		MaxDiscountAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MaxDiscountAmount)),
		StartsAt:          startsAt,
		EndsAt:            endsAt,
		IsActive:          req.IsActive,
		PlanIDs:           req.PlanIDs,
		CouponCode:        req.CouponCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		case errors.Is(err, service.ErrCouponCodeExists):
			respondError(c, response.CodeConflict, "error.coupon_code_exists", nil)
		default:
			respondError(c, response.CodeInternal, "error.promotion_create_failed", err)
		}
		return
	}

	response.Success(c, promotion)
}

// UpdatePromotion 更新活动
func (h *Handler) UpdatePromotion(c *gin.Context) {
	promotionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || promotionID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req PromotionRequest
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

	promotion, err := h.PromotionAdminService.Update(uint(promotionID), service.UpdatePromotionInput{
		Name:              req.Name,
		Description:       req.Description,
		Type:              req.Type,
		Value:             models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Value)),
		MinPurchaseAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MinPurchaseAmount)),
		MaxDiscountAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(req.MaxDiscountAmount)),
		StartsAt:          startsAt,
		EndsAt:            endsAt,
		IsActive:          req.IsActive,
		PlanIDs:           req.PlanIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.promotion_update_failed", err)
		}
		return
	}

	response.Success(c, promotion)
}

// DeletePromotion 删除活动（级联删除所属优惠券）
func (h *Handler) DeletePromotion(c *gin.Context) {
	promotionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || promotionID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.PromotionAdminService.Delete(uint(promotionID)); err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.promotion_delete_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetAdminPromotions 获取活动列表 (Admin)
func (h *Handler) GetAdminPromotions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	name := strings.TrimSpace(c.Query("name"))
	promotionType := strings.TrimSpace(c.Query("type"))
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		isActive = &parsed
	}

	promotions, total, err := h.PromotionAdminService.List(repository.PromotionListFilter{
		Page:     page,
		PageSize: pageSize,
		Name:     name,
		Type:     promotionType,
		IsActive: isActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, promotions, pagination)
}

// GetAdminPromotion 获取活动详情 (Admin)
func (h *Handler) GetAdminPromotion(c *gin.Context) {
	promotionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || promotionID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	promotion, err := h.PromotionService.GetByID(uint(promotionID))
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}
	response.Success(c, promotion)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
