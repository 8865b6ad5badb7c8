package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/repository"

	"github.com/shopspring/decimal"
)

const orderNoMaxAttempts = 5

// allowedOrderTransitions 订单状态机合法迁移表。
// created→pending→{completed,failed}，completed→refunded，其余一律拒绝。
var allowedOrderTransitions = map[string][]string{
	constants.OrderStatusCreated:   {constants.OrderStatusPending},
	constants.OrderStatusPending:   {constants.OrderStatusCompleted, constants.OrderStatusFailed},
	constants.OrderStatusCompleted: {constants.OrderStatusRefunded},
}

// CanTransition 判断订单状态迁移是否合法
func CanTransition(from, to string) bool {
	for _, allowed := range allowedOrderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// OrderService 订单服务
type OrderService struct {
	orderRepo      repository.OrderRepository
	membershipRepo repository.MembershipRepository
	couponService  *CouponService
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, membershipRepo repository.MembershipRepository, couponService *CouponService) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		membershipRepo: membershipRepo,
		couponService:  couponService,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID        uint
	PlanID        uint
	PaymentMethod string
	Description   string
	CouponCode    string
	ClientIP      string
}

// OrderPreview 订单价格预览
type OrderPreview struct {
	PlanID         uint         `json:"plan_id"`
	PlanName       string       `json:"plan_name"`
	OriginalAmount models.Money `json:"original_amount"`
	DiscountAmount models.Money `json:"discount_amount"`
	TotalAmount    models.Money `json:"total_amount"`
	CouponCode     string       `json:"coupon_code,omitempty"`
}

// Preview 计算订单价格，不落库
func (s *OrderService) Preview(input CreateOrderInput) (*OrderPreview, error) {
	plan, _, discount, coupon, err := s.resolvePricing(input, time.Now())
	if err != nil {
		return nil, err
	}
	preview := &OrderPreview{
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		OriginalAmount: plan.Price,
		DiscountAmount: discount,
		TotalAmount:    models.NewMoneyFromDecimal(plan.Price.Decimal.Sub(discount.Decimal)),
	}
	if coupon != nil {
		preview.CouponCode = coupon.Code
	}
	return preview, nil
}

// Create 创建订单，初始状态为 created
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	now := time.Now()
	plan, promotion, discount, coupon, err := s.resolvePricing(input, now)
	if err != nil {
		return nil, err
	}

	total := plan.Price.Decimal.Sub(discount.Decimal)
	if total.LessThan(decimal.Zero) {
		return nil, ErrInvalidOrderAmount
	}

	orderNo, err := s.generateOrderNo(now)
	if err != nil {
		return nil, ErrOrderCreateFailed
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = plan.Name
	}

	order := &models.Order{
		OrderNo:        orderNo,
		UserID:         input.UserID,
		PlanID:         plan.ID,
		Description:    description,
		Status:         constants.OrderStatusCreated,
		PaymentMethod:  strings.ToLower(strings.TrimSpace(input.PaymentMethod)),
		OriginalAmount: plan.Price,
		DiscountAmount: discount,
		TotalAmount:    models.NewMoneyFromDecimal(total),
		CouponCode:     "",
		ClientIP:       input.ClientIP,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
		order.CouponCode = coupon.Code
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, ErrOrderCreateFailed
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"plan_id", order.PlanID,
		"total", order.TotalAmount.String(),
		"coupon_code", order.CouponCode,
		"promotion_id", promotionID(promotion),
	)
	return order, nil
}

func (s *OrderService) resolvePricing(input CreateOrderInput, now time.Time) (*models.MembershipPlan, *models.Promotion, models.Money, *models.Coupon, error) {
	if input.UserID == 0 || input.PlanID == 0 {
		return nil, nil, models.Money{}, nil, ErrOrderCreateFailed
	}
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	switch method {
	case constants.PaymentMethodWechat, constants.PaymentMethodAlipay, constants.PaymentMethodCreditCard:
	default:
		return nil, nil, models.Money{}, nil, ErrPaymentProviderNotSupported
	}

	plan, err := s.membershipRepo.GetPlanByID(input.PlanID)
	if err != nil {
		return nil, nil, models.Money{}, nil, err
	}
	if plan == nil {
		return nil, nil, models.Money{}, nil, ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, nil, models.Money{}, nil, ErrPlanInactive
	}

	discount := models.NewMoneyFromDecimal(decimal.Zero)
	var promotion *models.Promotion
	var coupon *models.Coupon
	code := strings.TrimSpace(input.CouponCode)
	if code != "" {
		discount, promotion, coupon, err = s.couponService.ValidateAndCompute(code, input.UserID, plan.Price, plan.ID, now)
		if err != nil {
			return nil, nil, models.Money{}, nil, err
		}
	}
	return plan, promotion, discount, coupon, nil
}

// generateOrderNo 生成订单编号：NO + 日期 + 3 位随机数，冲突重试
func (s *OrderService) generateOrderNo(now time.Time) (string, error) {
	for attempt := 0; attempt < orderNoMaxAttempts; attempt++ {
		suffix, err := rand.Int(rand.Reader, big.NewInt(1000))
		if err != nil {
			return "", err
		}
		orderNo := fmt.Sprintf("%s%s%03d", constants.OrderNoPrefix, now.Format("20060102"), suffix.Int64())
		existing, err := s.orderRepo.GetByOrderNo(orderNo)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return orderNo, nil
		}
	}
	return "", fmt.Errorf("order no collision retries exhausted after %d attempts", orderNoMaxAttempts)
}

// GetByID 获取订单
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByIDAndUser 获取用户自己的订单
func (s *OrderService) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 获取订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// Expire 订单支付超时处理。
// 仅 pending 且已过超时时间的订单迁移为 failed；其余情况静默跳过，
// 延迟任务与轮询可能对同一订单重复触发。
func (s *OrderService) Expire(orderID uint, now time.Time) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return nil
	}
	if order.ExpiresAt == nil || !now.After(*order.ExpiresAt) {
		return nil
	}

	moved, err := s.orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusPending, constants.OrderStatusFailed, map[string]interface{}{
		"fail_reason": constants.OrderFailReasonTimeout,
		"updated_at":  now,
	})
	if err != nil {
		return err
	}
	if moved {
		logger.Infow("order_expired", "order_id", order.ID, "order_no", order.OrderNo)
	}
	return nil
}

// ExpireDue 批量处理已超时订单，返回实际过期数量
func (s *OrderService) ExpireDue(now time.Time, limit int) (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, order := range orders {
		if err := s.Expire(order.ID, now); err != nil {
			logger.Warnw("order_expire_failed", "order_id", order.ID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}

// Refund 退款，仅允许 completed → refunded
func (s *OrderService) Refund(orderID uint, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !CanTransition(order.Status, constants.OrderStatusRefunded) {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	moved, err := s.orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusCompleted, constants.OrderStatusRefunded, map[string]interface{}{
		"refund_reason": strings.TrimSpace(reason),
		"refunded_at":   now,
		"updated_at":    now,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrOrderStatusInvalid
	}

	logger.Infow("order_refunded", "order_id", order.ID, "order_no", order.OrderNo, "reason", reason)
	return s.orderRepo.GetByID(order.ID)
}

// Transition 按状态机迁移订单状态，非法迁移直接拒绝
func (s *OrderService) Transition(orderID uint, toStatus string, updates map[string]interface{}) (bool, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, ErrOrderNotFound
	}
	if !CanTransition(order.Status, toStatus) {
		return false, ErrOrderStatusInvalid
	}
	return s.orderRepo.UpdateStatusFrom(order.ID, order.Status, toStatus, updates)
}

func promotionID(promotion *models.Promotion) uint {
	if promotion == nil {
		return 0
	}
	return promotion.ID
}
