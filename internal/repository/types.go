package repository

import "time"

// PromotionListFilter 查询活动列表的过滤条件
type PromotionListFilter struct {
	Page     int
	PageSize int
	Name     string
	Type     string
	IsActive *bool
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page        int
	PageSize    int
	Code        string
	PromotionID uint
	IsActive    *bool
}

// CouponUsageListFilter 查询核销记录列表的过滤条件
type CouponUsageListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	CouponID uint
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
