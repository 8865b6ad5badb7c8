package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/models"
)

func TestInteractionModeFor(t *testing.T) {
	cases := []struct {
		method   string
		expected string
	}{
		{"wechat", constants.PaymentInteractionQR},
		{"Alipay ", constants.PaymentInteractionRedirect},
		{"creditcard", constants.PaymentInteractionDirect},
	}
	for _, tc := range cases {
		mode, err := interactionModeFor(tc.method)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.method, err)
		}
		if mode != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.method, tc.expected, mode)
		}
	}
	if _, err := interactionModeFor("paypal"); !errors.Is(err, ErrPaymentProviderNotSupported) {
		t.Fatalf("expected ErrPaymentProviderNotSupported, got %v", err)
	}
}

func TestCreatePaymentCreditCard(t *testing.T) {
	svc, db := newPaymentTestService(t)

	order := models.Order{
		OrderNo:       "NO20260821001",
		UserID:        31,
		PlanID:        1,
		Status:        constants.OrderStatusCreated,
		PaymentMethod: constants.PaymentMethodCreditCard,
		TotalAmount:   models.NewMoneyFromFloat(299),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	handle, err := svc.CreatePayment(context.Background(), order.ID, 31)
	if err != nil {
		t.Fatalf("CreatePayment error: %v", err)
	}
	if handle.InteractionMode != constants.PaymentInteractionDirect {
		t.Fatalf("expected direct mode, got %s", handle.InteractionMode)
	}
	if handle.ExpiresAt == nil {
		t.Fatalf("expected payment deadline")
	}

	var reloadedOrder models.Order
	if err := db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", reloadedOrder.Status)
	}
	if reloadedOrder.ExpiresAt == nil {
		t.Fatalf("expected expires_at on pending order")
	}

	var payment models.Payment
	if err := db.First(&payment, handle.PaymentID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", payment.Status)
	}
	if payment.ProviderRef == "" {
		t.Fatalf("expected reconciliation reference on direct payment")
	}

	// 订单已进入 pending，不允许重复发起
	if _, err := svc.CreatePayment(context.Background(), order.ID, 31); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestCreatePaymentRejections(t *testing.T) {
	svc, db := newPaymentTestService(t)

	zero := models.Order{
		OrderNo:       "NO20260821002",
		UserID:        31,
		PlanID:        1,
		Status:        constants.OrderStatusCreated,
		PaymentMethod: constants.PaymentMethodCreditCard,
		TotalAmount:   models.NewMoneyFromFloat(0),
	}
	if err := db.Create(&zero).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.CreatePayment(context.Background(), 9999, 31); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.CreatePayment(context.Background(), zero.ID, 99); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for other user, got %v", err)
	}
	if _, err := svc.CreatePayment(context.Background(), zero.ID, 31); !errors.Is(err, ErrInvalidOrderAmount) {
		t.Fatalf("expected ErrInvalidOrderAmount, got %v", err)
	}
}
