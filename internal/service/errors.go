package service

import "errors"

// 业务错误定义，handler 层通过 errors.Is 映射为接口错误响应。
var (
	// 活动
	ErrPromotionInvalid      = errors.New("promotion invalid")
	ErrPromotionNotFound     = errors.New("promotion not found")
	ErrPromotionInactive     = errors.New("promotion inactive")
	ErrPromotionUpdateFailed = errors.New("promotion update failed")
	ErrPromotionDeleteFailed = errors.New("promotion delete failed")

	// 优惠券
	ErrCouponInvalid         = errors.New("coupon invalid")
	ErrCouponNotFound        = errors.New("coupon not found")
	ErrCouponInactive        = errors.New("coupon inactive")
	ErrCouponNotStarted      = errors.New("coupon not started")
	ErrCouponExpired         = errors.New("coupon expired")
	ErrCouponExhausted       = errors.New("coupon exhausted")
	ErrCouponUserLimit       = errors.New("coupon per-user limit reached")
	ErrCouponMinAmount       = errors.New("minimum purchase amount not met")
	ErrCouponCodeExists      = errors.New("coupon code already exists")
	ErrCouponUsed            = errors.New("coupon already used")
	ErrMembershipNotEligible = errors.New("membership tier not eligible")

	// 会员档位
	ErrPlanNotFound = errors.New("membership plan not found")
	ErrPlanInactive = errors.New("membership plan inactive")

	// 订单
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("invalid order state transition")
	ErrOrderCreateFailed  = errors.New("order create failed")
	ErrInvalidOrderAmount = errors.New("invalid order amount")

	// 支付
	ErrPaymentInvalid                = errors.New("payment invalid")
	ErrPaymentNotFound               = errors.New("payment not found")
	ErrPaymentProviderNotSupported   = errors.New("payment provider not supported")
	ErrPaymentChannelConfigInvalid   = errors.New("payment channel config invalid")
	ErrPaymentGatewayRequestFailed   = errors.New("payment gateway request failed")
	ErrPaymentGatewayResponseInvalid = errors.New("payment gateway response invalid")
	ErrPaymentAmountMismatch         = errors.New("payment amount mismatch")

	// 鉴权
	ErrInvalidCredentials = errors.New("invalid username or password")

	// 队列
	ErrQueueUnavailable = errors.New("task queue unavailable")
)
