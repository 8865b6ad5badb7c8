package repository

import "gorm.io/gorm"

// applyPagination 统一处理分页查询的 limit/offset，容忍非法页码。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
