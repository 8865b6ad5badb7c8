package models

import (
	"github.com/nexusorbital-promo/internal/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(username, password string) error {
	var count int64
	DB.Model(&Admin{}).Count(&count)
	if count > 0 {
		return nil
	}

	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := Admin{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "username", username)
		logger.Warnw("default_admin_password_change_required", "username", username)
	} else {
		logger.Warnw("default_admin_created", "username", username, "password_hidden", true)
	}
	return nil
}

// InitDefaultPlans 初始化默认会员档位
func InitDefaultPlans() error {
	var count int64
	DB.Model(&MembershipPlan{}).Count(&count)
	if count > 0 {
		return nil
	}

	plans := []MembershipPlan{
		{Code: "explorer", Name: "探索者", Price: NewMoneyFromDecimal(decimal.Zero), DurationDays: 365, IsActive: true},
		{Code: "professional", Name: "专业版", Price: NewMoneyFromFloat(299), DurationDays: 365, IsActive: true},
		{Code: "founder", Name: "创始者", Price: NewMoneyFromFloat(999), DurationDays: 365, IsActive: true},
	}
	if err := DB.Create(&plans).Error; err != nil {
		return err
	}
	logger.Infow("default_membership_plans_created", "count", len(plans))
	return nil
}
