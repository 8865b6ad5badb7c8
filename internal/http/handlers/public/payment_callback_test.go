package public

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nexusorbital-promo/internal/config"
	"github.com/nexusorbital-promo/internal/constants"
	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/payment/creditcard"
	"github.com/nexusorbital-promo/internal/provider"
	"github.com/nexusorbital-promo/internal/queue"
	"github.com/nexusorbital-promo/internal/repository"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const callbackTestMerchantKey = "handler-test-merchant-key"

func newCallbackTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.MembershipPlan{},
		&models.Promotion{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.Payment{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	couponService := service.NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewPromotionRepository(db),
		repository.NewCouponUsageRepository(db),
	)
	queueClient, err := queue.NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	paymentService := service.NewPaymentService(
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		couponService,
		queueClient,
		&config.PaymentConfig{
			CreditCard: map[string]interface{}{
				"merchant_id":  "m-test",
				"merchant_key": callbackTestMerchantKey,
			},
		},
		30,
	)
	return New(&provider.Container{PaymentService: paymentService}), db
}

func newCallbackTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/payments/callback/:provider", h.PaymentCallback)
	return r
}

func postCallbackForm(t *testing.T, r *gin.Engine, provider string, form map[string][]string) *httptest.ResponseRecorder {
	t.Helper()
	body := url.Values(form).Encode()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback/"+provider, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentCallbackUnknownProvider(t *testing.T) {
	h, _ := newCallbackTestHandler(t)
	r := newCallbackTestRouter(h)

	w := postCallbackForm(t, r, "paypal", map[string][]string{"order_no": {"NO20260829001"}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status want 404 got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != constants.CallbackAckFail {
		t.Fatalf("body want %q got %q", constants.CallbackAckFail, got)
	}
}

func TestCreditCardCallbackCompletesOrder(t *testing.T) {
	h, db := newCallbackTestHandler(t)
	r := newCallbackTestRouter(h)

	order := models.Order{
		OrderNo:        "NO20260829101",
		UserID:         7,
		PlanID:         1,
		Status:         constants.OrderStatusPending,
		PaymentMethod:  constants.PaymentMethodCreditCard,
		OriginalAmount: models.NewMoneyFromFloat(299),
		TotalAmount:    models.NewMoneyFromFloat(299),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	payment := models.Payment{
		OrderID:         order.ID,
		Provider:        constants.PaymentMethodCreditCard,
		InteractionMode: constants.PaymentInteractionDirect,
		Amount:          order.TotalAmount,
		Status:          constants.PaymentStatusPending,
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	form := map[string][]string{
		"order_no":  {order.OrderNo},
		"reference": {order.OrderNo + "-1"},
		"status":    {"success"},
		"amount":    {"299.00"},
	}
	form["sign"] = []string{creditcard.Sign(callbackTestMerchantKey, form)}

	w := postCallbackForm(t, r, constants.PaymentMethodCreditCard, form)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d: %s", w.Code, w.Body.String())
	}
	if got := strings.TrimSpace(w.Body.String()); got != constants.CallbackAckSuccess {
		t.Fatalf("body want %q got %q", constants.CallbackAckSuccess, got)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed order, got %s", reloaded.Status)
	}
}

func TestCreditCardCallbackBadSignatureIsRejected(t *testing.T) {
	h, db := newCallbackTestHandler(t)
	r := newCallbackTestRouter(h)

	order := models.Order{
		OrderNo:        "NO20260829102",
		UserID:         7,
		PlanID:         1,
		Status:         constants.OrderStatusPending,
		PaymentMethod:  constants.PaymentMethodCreditCard,
		OriginalAmount: models.NewMoneyFromFloat(299),
		TotalAmount:    models.NewMoneyFromFloat(299),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	form := map[string][]string{
		"order_no": {order.OrderNo},
		"status":   {"success"},
		"amount":   {"299.00"},
		"sign":     {"deadbeef"},
	}
	w := postCallbackForm(t, r, constants.PaymentMethodCreditCard, form)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400 got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != constants.CallbackAckFail {
		t.Fatalf("body want %q got %q", constants.CallbackAckFail, got)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("rejected callback must not move order, got %s", reloaded.Status)
	}
}
