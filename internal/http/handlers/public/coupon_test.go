package public

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nexusorbital-promo/internal/models"
	"github.com/nexusorbital-promo/internal/provider"
	"github.com/nexusorbital-promo/internal/repository"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newCouponTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Promotion{},
		&models.Coupon{},
		&models.CouponUsage{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	couponService := service.NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewPromotionRepository(db),
		repository.NewCouponUsageRepository(db),
	)
	return New(&provider.Container{CouponService: couponService}), db
}

func newCouponTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/coupons/:code/validate", h.ValidateCoupon)
	r.GET("/api/v1/coupon-usage", h.ListCouponUsages)
	return r
}

func postValidateCoupon(t *testing.T, r *gin.Engine, code, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/"+code+"/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestValidateCouponSuccess(t *testing.T) {
	h, db := newCouponTestHandler(t)
	r := newCouponTestRouter(h)

	promotion := models.Promotion{
		Name:     "周年庆折扣",
		Type:     "percentage",
		Value:    models.NewMoneyFromFloat(20),
		IsActive: true,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	coupon := models.Coupon{
		Code:           "ANNIV20",
		PromotionID:    promotion.ID,
		MaxUsesPerUser: 1,
		MaxUsesTotal:   100,
		IsActive:       true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	w := postValidateCoupon(t, r, "ANNIV20", `{"user_id":7,"purchase_amount":100,"plan_id":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}

	var resp struct {
		StatusCode int                  `json:"status_code"`
		Data       ValidateCouponResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	if !resp.Data.Valid {
		t.Fatalf("expected valid coupon, got reason %s", resp.Data.Reason)
	}
	if resp.Data.DiscountAmount == nil || resp.Data.DiscountAmount.String() != "20.00" {
		t.Fatalf("discount want 20.00 got %+v", resp.Data.DiscountAmount)
	}
	if resp.Data.PromotionName != "周年庆折扣" || resp.Data.PromotionType != "percentage" {
		t.Fatalf("unexpected promotion fields: %+v", resp.Data)
	}
}

func TestValidateCouponRuleFailureReturnsReason(t *testing.T) {
	h, _ := newCouponTestHandler(t)
	r := newCouponTestRouter(h)

	w := postValidateCoupon(t, r, "NOSUCH", `{"user_id":7,"purchase_amount":100,"plan_id":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}

	var resp struct {
		StatusCode int                  `json:"status_code"`
		Data       ValidateCouponResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("rule failures are business results, status_code want 0 got %d", resp.StatusCode)
	}
	if resp.Data.Valid {
		t.Fatalf("expected invalid coupon")
	}
	if resp.Data.Reason != "error.coupon_not_found" {
		t.Fatalf("reason want error.coupon_not_found got %s", resp.Data.Reason)
	}
}

func TestListCouponUsagesReturnsUserRecords(t *testing.T) {
	h, db := newCouponTestHandler(t)
	r := newCouponTestRouter(h)

	promotion := models.Promotion{
		Name:     "会员日立减",
		Type:     "fixed",
		Value:    models.NewMoneyFromFloat(15),
		IsActive: true,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	coupon := models.Coupon{
		Code:         "MEMBER15",
		PromotionID:  promotion.ID,
		MaxUsesTotal: 50,
		IsActive:     true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	usedAt := time.Now()
	for i, userID := range []uint{7, 7, 8} {
		usage := models.CouponUsage{
			CouponID:       coupon.ID,
			CouponCode:     coupon.Code,
			UserID:         userID,
			OrderID:        uint(4001 + i),
			DiscountAmount: models.NewMoneyFromFloat(15),
			UsedAt:         usedAt,
		}
		if err := db.Create(&usage).Error; err != nil {
			t.Fatalf("create usage failed: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/coupon-usage?user_id=7", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}

	var resp struct {
		StatusCode int `json:"status_code"`
		Data       []struct {
			CouponCode    string `json:"coupon_code"`
			UserID        uint   `json:"user_id"`
			PromotionName string `json:"promotion_name"`
		} `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	if len(resp.Data) != 2 || resp.Pagination.Total != 2 {
		t.Fatalf("want 2 records for user 7, got %d (total %d)", len(resp.Data), resp.Pagination.Total)
	}
	for _, entry := range resp.Data {
		if entry.UserID != 7 {
			t.Fatalf("leaked record of user %d", entry.UserID)
		}
		if entry.CouponCode != "MEMBER15" || entry.PromotionName != "会员日立减" {
			t.Fatalf("unexpected record: %+v", entry)
		}
	}
}

func TestListCouponUsagesRequiresUserID(t *testing.T) {
	h, _ := newCouponTestHandler(t)
	r := newCouponTestRouter(h)

	for _, query := range []string{"", "?user_id=0", "?user_id=abc"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/coupon-usage"+query, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("query %q: status want 200 got %d", query, w.Code)
		}

		var resp struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("query %q: unmarshal response failed: %v", query, err)
		}
		if resp.StatusCode != 400 {
			t.Fatalf("query %q: status_code want 400 got %d", query, resp.StatusCode)
		}
	}
}

func TestValidateCouponBadRequest(t *testing.T) {
	h, _ := newCouponTestHandler(t)
	r := newCouponTestRouter(h)

	w := postValidateCoupon(t, r, "ANNIV20", `{"user_id":7}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}

	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
}
