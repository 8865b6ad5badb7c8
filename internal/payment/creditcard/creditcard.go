package creditcard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrConfigInvalid    = errors.New("creditcard config invalid")
	ErrSignatureInvalid = errors.New("creditcard signature invalid")
)

// Config 信用卡通道配置。
// 直连模式：下单只登记交易，扣款结果由通道异步回调。
type Config struct {
	MerchantID  string `json:"merchant_id"`
	MerchantKey string `json:"merchant_key"`
	NotifyURL   string `json:"notify_url"`
}

// CreateInput 登记信用卡交易输入。
type CreateInput struct {
	OrderNo   string
	PaymentID uint
	Amount    string
}

// CreateResult 登记结果，Reference 用于与回调对账。
type CreateResult struct {
	Reference string
}

// CallbackResult 回调验签后解析的关键字段。
type CallbackResult struct {
	OrderNo   string
	Reference string
	Status    string
	Amount    string
}

// ParseConfig 解析配置。
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.MerchantID = strings.TrimSpace(cfg.MerchantID)
	cfg.MerchantKey = strings.TrimSpace(cfg.MerchantKey)
	cfg.NotifyURL = strings.TrimSpace(cfg.NotifyURL)
	return &cfg, nil
}

// ValidateConfig 校验配置完整性。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if cfg.MerchantID == "" {
		return fmt.Errorf("%w: merchant_id is required", ErrConfigInvalid)
	}
	if cfg.MerchantKey == "" {
		return fmt.Errorf("%w: merchant_key is required", ErrConfigInvalid)
	}
	return nil
}

// Register 登记一笔待扣款交易，返回对账引用号。
func Register(cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" || input.PaymentID == 0 {
		return nil, fmt.Errorf("%w: order input is invalid", ErrConfigInvalid)
	}
	reference := fmt.Sprintf("%s-%d", orderNo, input.PaymentID)
	return &CreateResult{Reference: reference}, nil
}

// VerifyCallback 校验回调签名并解析字段。
// 签名为对 sign 之外的全部参数按键排序拼接后的 HMAC-SHA256。
func VerifyCallback(cfg *Config, form map[string][]string) (*CallbackResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(form) == 0 {
		return nil, fmt.Errorf("%w: callback form is empty", ErrSignatureInvalid)
	}
	sign := strings.TrimSpace(firstFormValue(form, "sign"))
	if sign == "" {
		return nil, fmt.Errorf("%w: sign is required", ErrSignatureInvalid)
	}

	expected := Sign(cfg.MerchantKey, form)
	if !hmac.Equal([]byte(strings.ToLower(sign)), []byte(expected)) {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	return &CallbackResult{
		OrderNo:   strings.TrimSpace(firstFormValue(form, "order_no")),
		Reference: strings.TrimSpace(firstFormValue(form, "reference")),
		Status:    strings.ToLower(strings.TrimSpace(firstFormValue(form, "status"))),
		Amount:    strings.TrimSpace(firstFormValue(form, "amount")),
	}, nil
}

// Sign 计算回调参数签名（sign 字段除外）。
func Sign(merchantKey string, form map[string][]string) string {
	keys := make([]string, 0, len(form))
	for key, values := range form {
		key = strings.TrimSpace(key)
		if key == "" || strings.EqualFold(key, "sign") || len(values) == 0 || values[0] == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+form[key][0])
	}
	mac := hmac.New(sha256.New, []byte(merchantKey))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// IsSuccess 回调状态是否表示扣款成功。
func IsSuccess(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "captured":
		return true
	default:
		return false
	}
}

func firstFormValue(form map[string][]string, key string) string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
