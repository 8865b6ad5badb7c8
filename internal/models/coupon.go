package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID             uint           `gorm:"primarykey" json:"id"`                            // 主键
	Code           string         `gorm:"uniqueIndex;not null" json:"code"`                // 优惠码（区分大小写）
	PromotionID    uint           `gorm:"index;not null" json:"promotion_id"`              // 所属活动ID
	Description    string         `gorm:"type:text" json:"description"`                    // 描述
	StartsAt       *time.Time     `gorm:"index" json:"starts_at"`                          // 生效时间
	EndsAt         *time.Time     `gorm:"index" json:"ends_at"`                            // 失效时间（空表示长期有效）
	MaxUsesPerUser int            `gorm:"not null;default:1" json:"max_uses_per_user"`     // 每人使用上限
	MaxUsesTotal   int            `gorm:"not null;default:0" json:"max_uses_total"`        // 总使用上限（0 表示不限制）
	UsedCount      int            `gorm:"not null;default:0" json:"used_count"`            // 已使用次数（只增不减）
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`          // 是否启用
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
