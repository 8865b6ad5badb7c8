package repository

import (
	"errors"

	"github.com/nexusorbital-promo/internal/models"

	"gorm.io/gorm"
)

// MembershipRepository 会员档位与权益数据访问接口
type MembershipRepository interface {
	GetPlanByID(id uint) (*models.MembershipPlan, error)
	GetPlanByCode(code string) (*models.MembershipPlan, error)
	ListActivePlans() ([]models.MembershipPlan, error)
	ListPlansByIDs(ids []uint) ([]models.MembershipPlan, error)
	CreateGrant(grant *models.UserMembership) error
	GetGrantByOrderID(orderID uint) (*models.UserMembership, error)
	WithTx(tx *gorm.DB) *GormMembershipRepository
}

// GormMembershipRepository GORM 实现
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository 创建会员仓库
func NewMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMembershipRepository) WithTx(tx *gorm.DB) *GormMembershipRepository {
	if tx == nil {
		return r
	}
	return &GormMembershipRepository{db: tx}
}

// GetPlanByID 根据ID获取档位
func (r *GormMembershipRepository) GetPlanByID(id uint) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// GetPlanByCode 根据标识获取档位
func (r *GormMembershipRepository) GetPlanByCode(code string) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	if err := r.db.Where("code = ?", code).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// ListActivePlans 获取上架档位列表
func (r *GormMembershipRepository) ListActivePlans() ([]models.MembershipPlan, error) {
	var plans []models.MembershipPlan
	if err := r.db.Where("is_active = ?", true).Order("price asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// ListPlansByIDs 批量获取档位
func (r *GormMembershipRepository) ListPlansByIDs(ids []uint) ([]models.MembershipPlan, error) {
	if len(ids) == 0 {
		return []models.MembershipPlan{}, nil
	}
	var plans []models.MembershipPlan
	if err := r.db.Where("id IN ?", ids).Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// CreateGrant 创建会员权益记录
func (r *GormMembershipRepository) CreateGrant(grant *models.UserMembership) error {
	return r.db.Create(grant).Error
}

// GetGrantByOrderID 获取订单对应的权益记录
func (r *GormMembershipRepository) GetGrantByOrderID(orderID uint) (*models.UserMembership, error) {
	var grant models.UserMembership
	if err := r.db.Where("order_id = ?", orderID).First(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}
