package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion 促销活动
type Promotion struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                            // 主键
	Name              string         `gorm:"not null" json:"name"`                                            // 名称
	Description       string         `gorm:"type:text" json:"description"`                                    // 描述
	Type              string         `gorm:"not null" json:"type"`                                            // 类型（percentage/fixed/free_upgrade）
	Value             Money          `gorm:"type:decimal(20,2);not null" json:"value"`                        // 数值（百分比或固定金额）
	MinPurchaseAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_purchase_amount"` // 使用门槛
	MaxDiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"max_discount_amount"` // 最大优惠金额（0 表示不限制）
	StartsAt          *time.Time     `gorm:"index" json:"starts_at"`                                          // 生效时间
	EndsAt            *time.Time     `gorm:"index" json:"ends_at"`                                            // 失效时间（空表示长期有效）
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`                          // 是否启用
	PlanIDs           string         `gorm:"type:text" json:"plan_ids"`                                       // 可用会员档位ID集合（JSON数组，空表示全部）
	CouponID          *uint          `gorm:"index" json:"coupon_id,omitempty"`                                // 创建活动时自动生成的优惠券ID
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}
