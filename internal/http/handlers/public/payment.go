package public

import (
	"errors"
	"strconv"

	"github.com/nexusorbital-promo/internal/http/response"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
	UserID  uint `json:"user_id" binding:"required"`
}

// CreatePayment 为订单发起支付
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	handle, err := h.PaymentService.CreatePayment(c.Request.Context(), req.OrderID, req.UserID)
	if err != nil {
		respondPaymentCreateError(c, err)
		return
	}

	response.Success(c, handle)
}

// GetPaymentHandle 查询订单最近一次支付交互句柄
func (h *Handler) GetPaymentHandle(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	handle, err := h.PaymentService.GetHandle(uint(orderID), uint(userID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrPaymentNotFound):
			respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.payment_fetch_failed", err)
		}
		return
	}

	response.Success(c, handle)
}
