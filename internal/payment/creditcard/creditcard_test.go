package creditcard

import (
	"errors"
	"testing"
)

func TestParseAndValidateConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"merchant_id":  " m-10001 ",
		"merchant_key": " top-secret ",
		"notify_url":   "https://example.com/api/v1/payments/callback/creditcard",
	})
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	if cfg.MerchantID != "m-10001" || cfg.MerchantKey != "top-secret" {
		t.Fatalf("expected trimmed config, got %+v", cfg)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
}

func TestValidateConfigRejectsMissingFields(t *testing.T) {
	if err := ValidateConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil config: expected ErrConfigInvalid, got %v", err)
	}
	if err := ValidateConfig(&Config{MerchantKey: "k"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing merchant_id: expected ErrConfigInvalid, got %v", err)
	}
	if err := ValidateConfig(&Config{MerchantID: "m"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing merchant_key: expected ErrConfigInvalid, got %v", err)
	}
}

func TestRegisterBuildsReference(t *testing.T) {
	cfg := &Config{MerchantID: "m-10001", MerchantKey: "top-secret"}

	result, err := Register(cfg, CreateInput{OrderNo: "NO20260829001", PaymentID: 42, Amount: "299.00"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.Reference != "NO20260829001-42" {
		t.Fatalf("reference want NO20260829001-42 got %s", result.Reference)
	}

	if _, err := Register(cfg, CreateInput{OrderNo: " ", PaymentID: 42}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("blank order_no: expected ErrConfigInvalid, got %v", err)
	}
	if _, err := Register(cfg, CreateInput{OrderNo: "NO20260829001"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("zero payment id: expected ErrConfigInvalid, got %v", err)
	}
}

func TestSignSkipsSignAndEmptyKeys(t *testing.T) {
	base := map[string][]string{
		"order_no":  {"NO20260829001"},
		"reference": {"NO20260829001-42"},
		"status":    {"success"},
		"amount":    {"299.00"},
	}
	expected := Sign("top-secret", base)
	if expected == "" {
		t.Fatalf("expected non-empty signature")
	}

	withNoise := map[string][]string{
		"order_no":  {"NO20260829001"},
		"reference": {"NO20260829001-42"},
		"status":    {"success"},
		"amount":    {"299.00"},
		"sign":      {"should-be-ignored"},
		"memo":      {""},
	}
	if got := Sign("top-secret", withNoise); got != expected {
		t.Fatalf("sign/empty fields should not affect signature: %s vs %s", got, expected)
	}

	if got := Sign("another-key", base); got == expected {
		t.Fatalf("different keys should not yield the same signature")
	}
}

func TestVerifyCallback(t *testing.T) {
	cfg := &Config{MerchantID: "m-10001", MerchantKey: "top-secret"}
	form := map[string][]string{
		"order_no":  {"NO20260829001"},
		"reference": {"NO20260829001-42"},
		"status":    {"Captured"},
		"amount":    {"299.00"},
	}
	form["sign"] = []string{Sign(cfg.MerchantKey, form)}

	result, err := VerifyCallback(cfg, form)
	if err != nil {
		t.Fatalf("verify callback failed: %v", err)
	}
	if result.OrderNo != "NO20260829001" || result.Reference != "NO20260829001-42" {
		t.Fatalf("unexpected callback fields: %+v", result)
	}
	if result.Status != "captured" || result.Amount != "299.00" {
		t.Fatalf("expected normalized status and amount, got %+v", result)
	}
}

func TestVerifyCallbackRejectsBadSignature(t *testing.T) {
	cfg := &Config{MerchantID: "m-10001", MerchantKey: "top-secret"}
	form := map[string][]string{
		"order_no": {"NO20260829001"},
		"status":   {"success"},
		"amount":   {"299.00"},
	}

	if _, err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("missing sign: expected ErrSignatureInvalid, got %v", err)
	}

	form["sign"] = []string{Sign(cfg.MerchantKey, form)}
	form["amount"] = []string{"1.00"}
	if _, err := VerifyCallback(cfg, form); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered amount: expected ErrSignatureInvalid, got %v", err)
	}

	if _, err := VerifyCallback(cfg, nil); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("empty form: expected ErrSignatureInvalid, got %v", err)
	}
}

func TestIsSuccess(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"success", true},
		{" Captured ", true},
		{"SUCCESS", true},
		{"declined", false},
		{"pending", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsSuccess(tc.status); got != tc.want {
			t.Fatalf("IsSuccess(%q) want %v got %v", tc.status, tc.want, got)
		}
	}
}
