package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexusorbital-promo/internal/config"
	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/payment/alipay"
	"github.com/nexusorbital-promo/internal/payment/creditcard"
	"github.com/nexusorbital-promo/internal/payment/wechat"
	"github.com/nexusorbital-promo/internal/queue"
	"github.com/nexusorbital-promo/internal/repository"
)

// PaymentService 支付服务：发起支付与处理回调
type PaymentService struct {
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	couponService *CouponService
	queueClient   *queue.Client
	paymentCfg    *config.PaymentConfig
	expireMinutes int
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	couponService *CouponService,
	queueClient *queue.Client,
	paymentCfg *config.PaymentConfig,
	expireMinutes int,
) *PaymentService {
	if expireMinutes <= 0 {
		expireMinutes = constants.OrderExpireMinutesDefault
	}
	return &PaymentService{
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		couponService: couponService,
		queueClient:   queueClient,
		paymentCfg:    paymentCfg,
		expireMinutes: expireMinutes,
	}
}

// PaymentHandle 发起支付后的交互句柄
type PaymentHandle struct {
	PaymentID       uint         `json:"payment_id"`
	OrderID         uint         `json:"order_id"`
	OrderNo         string       `json:"order_no"`
	Provider        string       `json:"provider"`
	InteractionMode string       `json:"interaction_mode"`
	Amount          models.Money `json:"amount"`
	PayURL          string       `json:"pay_url,omitempty"`
	QRCode          string       `json:"qr_code,omitempty"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
}

// CreatePayment 为订单发起支付，订单从 created 迁移到 pending。
func (s *PaymentService) CreatePayment(ctx context.Context, orderID uint, userID uint) (*PaymentHandle, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusCreated {
		return nil, ErrOrderStatusInvalid
	}
	if !order.TotalAmount.IsPositive() {
		return nil, ErrInvalidOrderAmount
	}

	mode, err := interactionModeFor(order.PaymentMethod)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.expireMinutes) * time.Minute)

	payment := &models.Payment{
		OrderID:         order.ID,
		Provider:        order.PaymentMethod,
		InteractionMode: mode,
		Amount:          order.TotalAmount,
		Status:          constants.PaymentStatusInitiated,
		ExpiredAt:       &expiresAt,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}

	handle := &PaymentHandle{
		PaymentID:       payment.ID,
		OrderID:         order.ID,
		OrderNo:         order.OrderNo,
		Provider:        payment.Provider,
		InteractionMode: mode,
		Amount:          payment.Amount,
		ExpiresAt:       &expiresAt,
	}

	if err := s.initiateProvider(ctx, order, payment, handle); err != nil {
		_ = s.paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status": constants.PaymentStatusFailed,
		})
		return nil, err
	}

	updates := map[string]interface{}{
		"status":  constants.PaymentStatusPending,
		"pay_url": handle.PayURL,
		"qr_code": handle.QRCode,
	}
	if err := s.paymentRepo.UpdateFields(payment.ID, updates); err != nil {
		return nil, err
	}

	moved, err := s.orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusCreated, constants.OrderStatusPending, map[string]interface{}{
		"expires_at": expiresAt,
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, ErrOrderStatusInvalid
	}

	if err := s.queueClient.EnqueueOrderExpire(queue.OrderExpirePayload{OrderID: order.ID}, time.Until(expiresAt)); err != nil {
		logger.Warnw("order_expire_enqueue_failed", "order_id", order.ID, "error", err)
	}

	logger.Infow("payment_created",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"provider", payment.Provider,
		"mode", mode,
		"amount", payment.Amount.String(),
	)
	return handle, nil
}

// GetHandle 查询订单最近一次支付交互句柄
func (s *PaymentService) GetHandle(orderID uint, userID uint) (*PaymentHandle, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	payment, err := s.paymentRepo.GetLatestByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return &PaymentHandle{
		PaymentID:       payment.ID,
		OrderID:         order.ID,
		OrderNo:         order.OrderNo,
		Provider:        payment.Provider,
		InteractionMode: payment.InteractionMode,
		Amount:          payment.Amount,
		PayURL:          payment.PayURL,
		QRCode:          payment.QRCode,
		ExpiresAt:       payment.ExpiredAt,
	}, nil
}

func (s *PaymentService) initiateProvider(ctx context.Context, order *models.Order, payment *models.Payment, handle *PaymentHandle) error {
	switch payment.Provider {
	case constants.PaymentMethodWechat:
		cfg, err := wechat.ParseConfig(s.paymentCfg.Wechat)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentChannelConfigInvalid, err)
		}
		cfg.NotifyURL = s.notifyURL(constants.PaymentMethodWechat)
		result, err := wechat.CreateNativePayment(ctx, cfg, wechat.CreateInput{
			OrderNo:     order.OrderNo,
			PaymentID:   payment.ID,
			Amount:      order.TotalAmount.String(),
			Description: order.Description,
			ClientIP:    order.ClientIP,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentGatewayRequestFailed, err)
		}
		handle.QRCode = result.QRCode
		return nil
	case constants.PaymentMethodAlipay:
		cfg, err := alipay.ParseConfig(s.paymentCfg.Alipay)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentChannelConfigInvalid, err)
		}
		cfg.NotifyURL = s.notifyURL(constants.PaymentMethodAlipay)
		result, err := alipay.BuildPagePayURL(cfg, alipay.CreateInput{
			OrderNo:        order.OrderNo,
			PaymentID:      payment.ID,
			Amount:         order.TotalAmount.String(),
			Subject:        order.Description,
			TimeoutExpress: fmt.Sprintf("%dm", s.expireMinutes),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentGatewayRequestFailed, err)
		}
		handle.PayURL = result.PayURL
		return nil
	case constants.PaymentMethodCreditCard:
		cfg, err := creditcard.ParseConfig(s.paymentCfg.CreditCard)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentChannelConfigInvalid, err)
		}
		result, err := creditcard.Register(cfg, creditcard.CreateInput{
			OrderNo:   order.OrderNo,
			PaymentID: payment.ID,
			Amount:    order.TotalAmount.String(),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentGatewayRequestFailed, err)
		}
		// 直连模式无跳转地址，引用号落库用于回调对账
		return s.paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"provider_ref": result.Reference,
		})
	default:
		return ErrPaymentProviderNotSupported
	}
}

func (s *PaymentService) notifyURL(provider string) string {
	base := strings.TrimRight(strings.TrimSpace(s.paymentCfg.CallbackBaseURL), "/")
	return base + "/api/v1/payments/callback/" + provider
}

func interactionModeFor(method string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case constants.PaymentMethodWechat:
		return constants.PaymentInteractionQR, nil
	case constants.PaymentMethodAlipay:
		return constants.PaymentInteractionRedirect, nil
	case constants.PaymentMethodCreditCard:
		return constants.PaymentInteractionDirect, nil
	default:
		return "", ErrPaymentProviderNotSupported
	}
}
