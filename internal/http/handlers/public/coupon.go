package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/http/response"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ValidateCouponRequest 优惠码校验请求
type ValidateCouponRequest struct {
	UserID         uint    `json:"user_id" binding:"required"`
	PurchaseAmount float64 `json:"purchase_amount" binding:"required"`
	PlanID         uint    `json:"plan_id" binding:"required"`
}

// ValidateCouponResult 优惠码校验响应
type ValidateCouponResult struct {
	Valid          bool          `json:"valid"`
	Reason         string        `json:"reason,omitempty"`
	DiscountAmount *models.Money `json:"discount_amount,omitempty"`
	PromotionID    uint          `json:"promotion_id,omitempty"`
	PromotionName  string        `json:"promotion_name,omitempty"`
	PromotionType  string        `json:"promotion_type,omitempty"`
}

// ValidateCoupon 校验优惠码并试算折扣，不产生核销
func (h *Handler) ValidateCoupon(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	purchaseAmount := models.NewMoneyFromDecimal(decimal.NewFromFloat(req.PurchaseAmount))
	discount, promotion, _, err := h.CouponService.ValidateAndCompute(code, req.UserID, purchaseAmount, req.PlanID, time.Now())
	if err != nil {
		if reason := couponReasonKey(err); reason != "" {
			response.Success(c, ValidateCouponResult{
				Valid:  false,
				Reason: reason,
			})
			return
		}
		respondError(c, response.CodeInternal, "error.coupon_validate_failed", err)
		return
	}

	response.Success(c, ValidateCouponResult{
		Valid:          true,
		DiscountAmount: &discount,
		PromotionID:    promotion.ID,
		PromotionName:  promotion.Name,
		PromotionType:  promotion.Type,
	})
}

// ListCouponUsages 获取用户的优惠码核销记录。
// 主体由 user_id 参数指定，调用方（网关/BFF）负责身份核验。
func (h *Handler) ListCouponUsages(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
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
