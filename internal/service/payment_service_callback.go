package service

import (
	"context"
	"errors"
	"time"

	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/payment/alipay"
	"github.com/nexusorbital-promo/internal/payment/creditcard"
	"github.com/nexusorbital-promo/internal/payment/wechat"
	"github.com/nexusorbital-promo/internal/queue"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HandleWechatCallback 处理微信支付回调
func (s *PaymentService) HandleWechatCallback(ctx context.Context, headers map[string]string, body []byte) error {
	cfg, err := wechat.ParseConfig(s.paymentCfg.Wechat)
	if err != nil {
		return ErrPaymentChannelConfigInvalid
	}
	cfg.NotifyURL = s.notifyURL(constants.PaymentMethodWechat)

	result, err := wechat.VerifyAndDecodeWebhook(ctx, cfg, headers, body)
	if err != nil {
		logger.Warnw("payment_callback_verify_failed", "provider", constants.PaymentMethodWechat, "error", err)
		return ErrPaymentGatewayResponseInvalid
	}
	logger.Infow("payment_callback_received",
		"provider", constants.PaymentMethodWechat,
		"order_no", result.OrderNo,
		"status", result.Status,
	)

	payment, order, err := s.resolveCallbackTarget(result.OrderNo, result.Attach)
	if err != nil {
		return err
	}

	switch result.Status {
	case constants.PaymentStatusSuccess:
		return s.applyCallback(payment, order, true, result.TransactionID, result.Amount, result.PaidAt, result.Raw)
	case constants.PaymentStatusFailed:
		return s.applyCallback(payment, order, false, result.TransactionID, result.Amount, nil, result.Raw)
	default:
		// 中间态回调仅确认收到
		return nil
	}
}

// HandleAlipayCallback 处理支付宝异步回调
func (s *PaymentService) HandleAlipayCallback(form map[string][]string) error {
	cfg, err := alipay.ParseConfig(s.paymentCfg.Alipay)
	if err != nil {
		return ErrPaymentChannelConfigInvalid
	}

	result, err := alipay.VerifyCallback(cfg, form)
	if err != nil {
		logger.Warnw("payment_callback_verify_failed", "provider", constants.PaymentMethodAlipay, "error", err)
		return ErrPaymentGatewayResponseInvalid
	}
	logger.Infow("payment_callback_received",
		"provider", constants.PaymentMethodAlipay,
		"order_no", result.OrderNo,
		"trade_status", result.TradeStatus,
	)

	payment, order, err := s.resolveCallbackTarget(result.OrderNo, "")
	if err != nil {
		return err
	}

	raw := map[string]interface{}{}
	for key, values := range form {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	success := alipay.IsTradeSuccess(result.TradeStatus)
	return s.applyCallback(payment, order, success, result.TransactionID, result.Amount, nil, raw)
}

// HandleCreditCardCallback 处理信用卡通道回调
func (s *PaymentService) HandleCreditCardCallback(form map[string][]string) error {
	cfg, err := creditcard.ParseConfig(s.paymentCfg.CreditCard)
	if err != nil {
		return ErrPaymentChannelConfigInvalid
	}

	result, err := creditcard.VerifyCallback(cfg, form)
	if err != nil {
		logger.Warnw("payment_callback_verify_failed", "provider", constants.PaymentMethodCreditCard, "error", err)
		return ErrPaymentGatewayResponseInvalid
	}
	logger.Infow("payment_callback_received",
		"provider", constants.PaymentMethodCreditCard,
		"order_no", result.OrderNo,
		"status", result.Status,
	)

	payment, order, err := s.resolveCallbackTarget(result.OrderNo, "")
	if err != nil {
		return err
	}

	raw := map[string]interface{}{}
	for key, values := range form {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}
	return s.applyCallback(payment, order, creditcard.IsSuccess(result.Status), result.Reference, result.Amount, nil, raw)
}

// resolveCallbackTarget 根据订单号（或 attach 中的支付单ID）定位支付单与订单
func (s *PaymentService) resolveCallbackTarget(orderNo string, attach string) (*models.Payment, *models.Order, error) {
	if paymentID, ok := wechat.ParsePaymentIDFromAttach(attach); ok {
		payment, err := s.paymentRepo.GetByID(paymentID)
		if err != nil {
			return nil, nil, err
		}
		if payment != nil {
			order, err := s.orderRepo.GetByID(payment.OrderID)
			if err != nil {
				return nil, nil, err
			}
			if order == nil {
				return nil, nil, ErrOrderNotFound
			}
			return payment, order, nil
		}
	}

	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	payment, err := s.paymentRepo.GetLatestByOrderID(order.ID)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, ErrPaymentNotFound
	}
	return payment, order, nil
}

// applyCallback 应用回调结果。
// 订单迁移使用条件更新作为幂等守卫：重复回调不会二次迁移，
// 也不会重复核销优惠券或重复开通会员。
func (s *PaymentService) applyCallback(payment *models.Payment, order *models.Order, success bool, providerRef string, amount string, paidAt *time.Time, raw map[string]interface{}) error {
	if amount != "" {
		callbackAmount, err := decimal.NewFromString(amount)
		if err != nil || !callbackAmount.Round(2).Equal(payment.Amount.Decimal.Round(2)) {
			logger.Warnw("payment_callback_amount_mismatch",
				"payment_id", payment.ID,
				"expected", payment.Amount.String(),
				"got", amount,
			)
			return ErrPaymentAmountMismatch
		}
	}

	now := time.Now()
	if paidAt == nil {
		paidAt = &now
	}

	if !success {
		return s.applyFailure(payment, order, providerRef, raw, now)
	}

	moved := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		transitioned, err := orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusPending, constants.OrderStatusCompleted, map[string]interface{}{
			"paid_at":    *paidAt,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if !transitioned {
			return nil
		}
		moved = true

		if order.CouponCode != "" {
			_, err := s.couponService.RedeemTx(tx, RedeemInput{
				Code:           order.CouponCode,
				UserID:         order.UserID,
				OrderID:        order.ID,
				PurchaseAmount: order.OriginalAmount,
				DiscountAmount: order.DiscountAmount,
				PlanID:         order.PlanID,
				Now:            now,
			})
			if err != nil {
				if isCouponRuleError(err) {
					// 下单后券被并发耗尽或停用：订单已收款，照常完成，核销缺口记日志
					logger.Warnw("coupon_finalize_skipped",
						"order_id", order.ID,
						"code", order.CouponCode,
						"error", err,
					)
				} else {
					return err
				}
			}
		}

		return paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status":           constants.PaymentStatusSuccess,
			"provider_ref":     providerRef,
			"callback_payload": models.JSON(raw),
			"callback_at":      now,
			"paid_at":          *paidAt,
		})
	})
	if err != nil {
		return err
	}

	if !moved {
		logger.Infow("payment_callback_duplicate", "payment_id", payment.ID, "order_id", order.ID)
		return nil
	}

	if err := s.queueClient.EnqueueMembershipActivate(queue.MembershipActivatePayload{OrderID: order.ID}); err != nil {
		logger.Errorw("membership_activate_enqueue_failed", "order_id", order.ID, "error", err)
	}

	logger.Infow("order_completed",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"payment_id", payment.ID,
	)
	return nil
}

func (s *PaymentService) applyFailure(payment *models.Payment, order *models.Order, providerRef string, raw map[string]interface{}, now time.Time) error {
	return models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)

		transitioned, err := orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusPending, constants.OrderStatusFailed, map[string]interface{}{
			"fail_reason": constants.OrderFailReasonProvider,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if !transitioned {
			logger.Infow("payment_callback_duplicate", "payment_id", payment.ID, "order_id", order.ID)
			return nil
		}

		logger.Infow("order_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"reason", constants.OrderFailReasonProvider,
		)
		return paymentRepo.UpdateFields(payment.ID, map[string]interface{}{
			"status":           constants.PaymentStatusFailed,
			"provider_ref":     providerRef,
			"callback_payload": models.JSON(raw),
			"callback_at":      now,
		})
	})
}

// isCouponRuleError 判断是否为优惠券规则类失败（区别于存储错误）
func isCouponRuleError(err error) bool {
	for _, target := range []error{
		ErrCouponInvalid,
		ErrCouponNotFound,
		ErrCouponInactive,
		ErrCouponNotStarted,
		ErrCouponExpired,
		ErrCouponExhausted,
		ErrCouponUserLimit,
		ErrCouponMinAmount,
		ErrMembershipNotEligible,
		ErrPromotionInactive,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
