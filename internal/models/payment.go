package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                      // 主键
	OrderID         uint           `gorm:"index;not null" json:"order_id"`            // 订单ID
	Provider        string         `gorm:"not null" json:"provider"`                  // 支付方式（wechat/alipay/creditcard）
	InteractionMode string         `gorm:"not null" json:"interaction_mode"`          // 交互方式（qr/redirect/direct）
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 支付金额
	Status          string         `gorm:"index;not null" json:"status"`              // 支付状态
	ProviderRef     string         `gorm:"index" json:"provider_ref"`                 // 第三方流水号
	CallbackPayload JSON           `gorm:"type:json" json:"callback_payload"`         // 第三方回调数据
	PayURL          string         `gorm:"type:text" json:"pay_url"`                  // 跳转链接
	QRCode          string         `gorm:"type:text" json:"qr_code"`                  // 二维码内容/地址
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                      // 支付时间
	ExpiredAt       *time.Time     `gorm:"index" json:"expired_at"`                   // 过期时间
	CallbackAt      *time.Time     `gorm:"index" json:"callback_at"`                  // 回调时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
