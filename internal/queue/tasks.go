package queue

import (
	"encoding/json"

	"github.com/nexusorbital-promo/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderExpire 订单支付超时任务
	TaskOrderExpire = constants.TaskOrderExpire
	// TaskMembershipActivate 会员权益开通任务
	TaskMembershipActivate = constants.TaskMembershipActivate
)

// OrderExpirePayload 订单超时任务载荷
type OrderExpirePayload struct {
	OrderID uint `json:"order_id"`
}

// MembershipActivatePayload 会员开通任务载荷
type MembershipActivatePayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderExpireTask 创建订单超时任务
func NewOrderExpireTask(payload OrderExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderExpire, body), nil
}

// NewMembershipActivateTask 创建会员开通任务
func NewMembershipActivateTask(payload MembershipActivatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMembershipActivate, body), nil
}
