package constants

// 订单状态常量
const (
	OrderStatusCreated   = "created"
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
	OrderStatusRefunded  = "refunded"
)

// 订单失败原因常量
const (
	OrderFailReasonTimeout  = "timeout"
	OrderFailReasonProvider = "provider_failed"
)

// 支付状态常量
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
)

// 支付方式常量
const (
	PaymentMethodWechat     = "wechat"
	PaymentMethodAlipay     = "alipay"
	PaymentMethodCreditCard = "creditcard"
)

// 支付交互方式常量
const (
	PaymentInteractionQR       = "qr"
	PaymentInteractionRedirect = "redirect"
	PaymentInteractionDirect   = "direct"
)

// 活动类型常量
const (
	PromotionTypePercentage  = "percentage"
	PromotionTypeFixed       = "fixed"
	PromotionTypeFreeUpgrade = "free_upgrade"
)

// 活动生效状态常量（派生值，不落库）
const (
	PromotionStatusDisabled = "disabled"
	PromotionStatusExpired  = "expired"
	PromotionStatusPending  = "pending"
	PromotionStatusActive   = "active"
)

// 优惠码生成约束
const (
	CouponBatchMaxCount   = 100
	CouponCodeMinLength   = 4
	CouponCodeMaxLength   = 12
	CouponCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CouponCodeMaxAttempts = 10
)

// 订单编号前缀（NO + 日期 + 3 位随机数）
const OrderNoPrefix = "NO"

// 队列与任务常量
const (
	QueueDefault           = "default"
	TaskOrderExpire        = "order:expire"
	TaskMembershipActivate = "membership:activate"
)

// 订单默认支付超时（分钟）
const OrderExpireMinutesDefault = 30

// 表单型支付回调应答
const (
	CallbackAckSuccess = "success"
	CallbackAckFail    = "fail"
)
