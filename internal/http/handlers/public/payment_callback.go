package public

import (
	"io"
	"net/http"

	"github.com/nexusorbital-promo/internal/constants"

	"github.com/gin-gonic/gin"
)

// PaymentCallback 支付回调统一入口，按渠道路由参数分发
func (h *Handler) PaymentCallback(c *gin.Context) {
	provider := c.Param("provider")
	requestLog(c).Infow("payment_callback_entry",
		"provider", provider,
		"method", c.Request.Method,
		"client_ip", c.ClientIP(),
	)

	switch provider {
	case constants.PaymentMethodWechat:
		h.handleWechatCallback(c)
	case constants.PaymentMethodAlipay:
		h.handleAlipayCallback(c)
	case constants.PaymentMethodCreditCard:
		h.handleCreditCardCallback(c)
	default:
		requestLog(c).Warnw("payment_callback_unknown_provider", "provider", provider)
		c.String(http.StatusNotFound, constants.CallbackAckFail)
	}
}

func (h *Handler) handleWechatCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		requestLog(c).Warnw("wechat_callback_body_read_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	if err := h.PaymentService.HandleWechatCallback(c.Request.Context(), headers, body); err != nil {
		requestLog(c).Warnw("wechat_callback_handle_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}
	respondWechatCallback(c, true)
}

func (h *Handler) handleAlipayCallback(c *gin.Context) {
	form, err := parseCallbackForm(c)
	if err != nil {
		requestLog(c).Warnw("alipay_callback_form_parse_failed", "error", err)
		c.String(http.StatusBadRequest, constants.CallbackAckFail)
		return
	}

	if err := h.PaymentService.HandleAlipayCallback(form); err != nil {
		requestLog(c).Warnw("alipay_callback_handle_failed", "error", err)
		c.String(http.StatusBadRequest, constants.CallbackAckFail)
		return
	}
	c.String(http.StatusOK, constants.CallbackAckSuccess)
}

func (h *Handler) handleCreditCardCallback(c *gin.Context) {
	form, err := parseCallbackForm(c)
	if err != nil {
		requestLog(c).Warnw("creditcard_callback_form_parse_failed", "error", err)
		c.String(http.StatusBadRequest, constants.CallbackAckFail)
		return
	}

	if err := h.PaymentService.HandleCreditCardCallback(form); err != nil {
		requestLog(c).Warnw("creditcard_callback_handle_failed", "error", err)
		c.String(http.StatusBadRequest, constants.CallbackAckFail)
		return
	}
	c.String(http.StatusOK, constants.CallbackAckSuccess)
}

func respondWechatCallback(c *gin.Context, success bool) {
	if success {
		c.JSON(http.StatusOK, gin.H{
			"code":    "SUCCESS",
			"message": "成功",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "FAIL",
		"message": "失败",
	})
}

func parseCallbackForm(c *gin.Context) (map[string][]string, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	if len(c.Request.PostForm) > 0 {
		return c.Request.PostForm, nil
	}
	return c.Request.Form, nil
}
