package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号（NO+日期+随机数）
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	PlanID         uint           `gorm:"index;not null" json:"plan_id"`                                // 购买的会员档位ID
	Description    string         `gorm:"type:text" json:"description"`                                 // 描述
	Status         string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	PaymentMethod  string         `gorm:"not null" json:"payment_method"`                               // 支付方式（wechat/alipay/creditcard）
	OriginalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"` // 原始金额
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                             // 优惠券ID
	CouponCode     string         `gorm:"index" json:"coupon_code,omitempty"`                           // 下单时使用的优惠码
	FailReason     string         `json:"fail_reason,omitempty"`                                        // 失败原因（timeout/provider_failed）
	RefundReason   string         `json:"refund_reason,omitempty"`                                      // 退款原因
	ClientIP       string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                  // 下单客户端IP
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                                      // 支付超时时间
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	RefundedAt     *time.Time     `gorm:"index" json:"refunded_at"`                                     // 退款时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
