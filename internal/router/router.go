package router

import (
	"fmt"
	"strings"

	"github.com/nexusorbital-promo/internal/cache"
	"github.com/nexusorbital-promo/internal/config"
	adminhandlers "github.com/nexusorbital-promo/internal/http/handlers/admin"
	publichandlers "github.com/nexusorbital-promo/internal/http/handlers/public"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "nx"
	}
	redisClient := cache.Client()
	validateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:coupon_validate", redisPrefix),
		WindowSeconds: cfg.Security.ValidateRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ValidateRateLimit.MaxRequests,
		MessageKey:    "error.coupon_validate_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/promotions", publicHandler.GetPromotions)
			public.GET("/promotions/:id", publicHandler.GetPromotion)
			public.GET("/plans", publicHandler.GetPlans)
			public.GET("/plans/:id", publicHandler.GetPlan)
			public.POST("/coupons/:code/validate",
				RateLimitMiddleware(redisClient, validateRule, KeyByIPAndParam("code")),
				publicHandler.ValidateCoupon)
		}

		// 买家接口
		apiV1.POST("/orders", publicHandler.CreateOrder)
		apiV1.POST("/orders/preview", publicHandler.PreviewOrder)
		apiV1.GET("/orders", publicHandler.ListOrders)
		apiV1.GET("/orders/:id", publicHandler.GetOrder)
		apiV1.GET("/orders/:id/status", publicHandler.GetOrderStatus)
		apiV1.GET("/orders/:id/payment", publicHandler.GetPaymentHandle)
		apiV1.POST("/payments", publicHandler.CreatePayment)
		apiV1.GET("/coupon-usage", publicHandler.ListCouponUsages)

		// 支付回调
		apiV1.POST("/payments/callback/:provider", publicHandler.PaymentCallback)

		// 管理端接口
		admin := apiV1.Group("/admin")
		{
			admin.POST("/login",
				RateLimitMiddleware(redisClient, adminLoginRule, KeyByIPAndJSONField("username")),
				adminHandler.AdminLogin)

			authed := admin.Group("")
			authed.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authed.GET("/profile", adminHandler.GetAdminProfile)

				authed.GET("/promotions", adminHandler.GetAdminPromotions)
				authed.GET("/promotions/:id", adminHandler.GetAdminPromotion)
				authed.POST("/promotions", adminHandler.CreatePromotion)
				authed.PUT("/promotions/:id", adminHandler.UpdatePromotion)
				authed.DELETE("/promotions/:id", adminHandler.DeletePromotion)

				authed.GET("/coupons", adminHandler.GetAdminCoupons)
				authed.POST("/coupons", adminHandler.CreateCoupon)
				authed.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authed.DELETE("/coupons/:id", adminHandler.DeleteCoupon)
				authed.POST("/coupons/batch", adminHandler.GenerateCouponBatch)
				authed.GET("/coupon-usages", adminHandler.GetAdminCouponUsages)
				authed.GET("/users/:id/coupon-usage", adminHandler.GetUserCouponUsages)

				authed.GET("/orders", adminHandler.GetAdminOrders)
				authed.GET("/orders/:id", adminHandler.GetAdminOrder)
				authed.POST("/orders/:id/refund", adminHandler.RefundOrder)
				authed.POST("/orders/expire-due", adminHandler.ExpireDueOrders)
			}
		}
	}

	return r
}
