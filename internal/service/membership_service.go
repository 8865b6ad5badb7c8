package service

import (
	"time"

	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"
)

// MembershipService 会员档位与权益服务
type MembershipService struct {
	membershipRepo repository.MembershipRepository
	orderRepo      repository.OrderRepository
}

// NewMembershipService 创建会员服务
func NewMembershipService(membershipRepo repository.MembershipRepository, orderRepo repository.OrderRepository) *MembershipService {
	return &MembershipService{
		membershipRepo: membershipRepo,
		orderRepo:      orderRepo,
	}
}

// ListPlans 获取上架档位列表
func (s *MembershipService) ListPlans() ([]models.MembershipPlan, error) {
	return s.membershipRepo.ListActivePlans()
}

// GetPlan 获取档位详情
func (s *MembershipService) GetPlan(id uint) (*models.MembershipPlan, error) {
	plan, err := s.membershipRepo.GetPlanByID(id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// ActivateForOrder 为已完成订单开通会员权益。
// order_id 唯一索引保证一单只开通一次，重复投递的任务直接返回。
func (s *MembershipService) ActivateForOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusCompleted {
		return ErrOrderStatusInvalid
	}

	existing, err := s.membershipRepo.GetGrantByOrderID(order.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Infow("membership_already_active", "order_id", order.ID, "grant_id", existing.ID)
		return nil
	}

	plan, err := s.membershipRepo.GetPlanByID(order.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}

	now := time.Now()
	grant := &models.UserMembership{
		UserID:   order.UserID,
		PlanID:   plan.ID,
		OrderID:  order.ID,
		StartsAt: now,
	}
	if plan.DurationDays > 0 {
		expiresAt := now.AddDate(0, 0, plan.DurationDays)
		grant.ExpiresAt = &expiresAt
	}

	if err := s.membershipRepo.CreateGrant(grant); err != nil {
		return err
	}

	logger.Infow("membership_activated",
		"order_id", order.ID,
		"user_id", order.UserID,
		"plan_id", plan.ID,
		"expires_at", grant.ExpiresAt,
	)
	return nil
}
