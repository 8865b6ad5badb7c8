package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipPlan 会员档位
type MembershipPlan struct {
	ID           uint           `gorm:"primarykey" json:"id"`                       // 主键
	Code         string         `gorm:"uniqueIndex;not null" json:"code"`           // 档位标识（founder/professional 等）
	Name         string         `gorm:"not null" json:"name"`                       // 名称
	Price        Money          `gorm:"type:decimal(20,2);not null" json:"price"`   // 价格
	DurationDays int            `gorm:"not null;default:365" json:"duration_days"`  // 有效期（天）
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`     // 是否上架
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                    // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                             // 软删除时间
}

// TableName 指定表名
func (MembershipPlan) TableName() string {
	return "membership_plans"
}

// UserMembership 用户会员权益（支付成功后开通）
type UserMembership struct {
	ID        uint       `gorm:"primarykey" json:"id"`                 // 主键
	UserID    uint       `gorm:"index;not null" json:"user_id"`        // 用户ID
	PlanID    uint       `gorm:"index;not null" json:"plan_id"`        // 档位ID
	OrderID   uint       `gorm:"uniqueIndex;not null" json:"order_id"` // 来源订单ID（一单只开通一次）
	StartsAt  time.Time  `gorm:"not null" json:"starts_at"`            // 生效时间
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`              // 到期时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`              // 创建时间
}

// TableName 指定表名
func (UserMembership) TableName() string {
	return "user_memberships"
}
