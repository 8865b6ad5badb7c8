package main

import (
	"fmt"
	"time"

	"github.com/nexusorbital-promo/internal/config"
	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员与会员档位
	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}
	if err := models.InitDefaultPlans(); err != nil {
		stdLog.Fatalf("Failed to init default plans: %v", err)
	}

	// 获取档位ID
	planIDs := map[string]uint{}
	var planList []models.MembershipPlan
	if err := models.DB.Where("code IN ?", []string{"explorer", "professional", "founder"}).Find(&planList).Error; err != nil {
		stdLog.Fatalf("Failed to load membership plans: %v", err)
	}
	for _, plan := range planList {
		planIDs[plan.Code] = plan.ID
	}
	professionalID := planIDs["professional"]
	founderID := planIDs["founder"]

	now := time.Now()
	seasonEnd := now.AddDate(0, 3, 0)

	// 添加促销活动与优惠券
	type seedPromotion struct {
		promotion models.Promotion
		coupon    models.Coupon
	}
	seeds := []seedPromotion{
		{
			promotion: models.Promotion{
				Name:              "轨道季开放促销",
				Description:       "会员年费八折，最高立减 100 元",
				Type:              constants.PromotionTypePercentage,
				Value:             models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
				MinPurchaseAmount: models.NewMoneyFromFloat(0),
				MaxDiscountAmount: models.NewMoneyFromFloat(100),
				StartsAt:          &now,
				EndsAt:            &seasonEnd,
				IsActive:          true,
			},
			coupon: models.Coupon{
				Code:           "ORBIT20",
				Description:    "轨道季开放促销通用券",
				MaxUsesPerUser: 1,
				MaxUsesTotal:   500,
				IsActive:       true,
			},
		},
		{
			promotion: models.Promotion{
				Name:              "专业版立减",
				Description:       "购买专业版会员立减 30 元",
				Type:              constants.PromotionTypeFixed,
				Value:             models.NewMoneyFromFloat(30),
				MinPurchaseAmount: models.NewMoneyFromFloat(99),
				IsActive:          true,
				PlanIDs:           fmt.Sprintf("[%d]", professionalID),
			},
			coupon: models.Coupon{
				Code:           "PRO-LAUNCH30",
				Description:    "专业版立减券",
				MaxUsesPerUser: 1,
				MaxUsesTotal:   200,
				IsActive:       true,
			},
		},
		{
			promotion: models.Promotion{
				Name:              "创始人专属升级",
				Description:       "创始人档位免费升级权益",
				Type:              constants.PromotionTypeFreeUpgrade,
				Value:             models.NewMoneyFromFloat(0),
				MinPurchaseAmount: models.NewMoneyFromFloat(0),
				IsActive:          true,
				PlanIDs:           fmt.Sprintf("[%d]", founderID),
			},
			coupon: models.Coupon{
				Code:           "FOUNDER-UP",
				Description:    "创始人专属升级券",
				MaxUsesPerUser: 1,
				MaxUsesTotal:   50,
				IsActive:       true,
			},
		},
	}

	for _, seed := range seeds {
		var existingPromo models.Promotion
		if err := models.DB.Where("name = ?", seed.promotion.Name).First(&existingPromo).Error; err == nil {
			stdLog.Printf("Promotion already exists: %s", seed.promotion.Name)
			continue
		}
		promo := seed.promotion
		if err := models.DB.Create(&promo).Error; err != nil {
			stdLog.Printf("Failed to create promotion %s: %v", promo.Name, err)
			continue
		}
		stdLog.Printf("Created promotion: %s", promo.Name)

		var existingCoupon models.Coupon
		if err := models.DB.Where("code = ?", seed.coupon.Code).First(&existingCoupon).Error; err == nil {
			stdLog.Printf("Coupon already exists: %s", seed.coupon.Code)
			continue
		}
		coupon := seed.coupon
		coupon.PromotionID = promo.ID
		coupon.StartsAt = promo.StartsAt
		coupon.EndsAt = promo.EndsAt
		if err := models.DB.Create(&coupon).Error; err != nil {
			stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			continue
		}
		if err := models.DB.Model(&promo).Update("coupon_id", coupon.ID).Error; err != nil {
			stdLog.Printf("Failed to bind coupon to promotion %s: %v", promo.Name, err)
			continue
		}
		stdLog.Printf("Created coupon: %s", coupon.Code)
	}

	stdLog.Printf("Seed data initialization completed!")
}
