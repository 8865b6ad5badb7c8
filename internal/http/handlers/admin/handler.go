package admin

import "github.com/nexusorbital-promo/internal/provider"

// Handler 管理端接口处理器：活动/优惠码/订单的后台维护入口。
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
