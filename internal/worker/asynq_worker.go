package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nexusorbital-promo/internal/logger"
	"github.com/nexusorbital-promo/internal/provider"
	"github.com/nexusorbital-promo/internal/queue"
	"github.com/nexusorbital-promo/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderExpire, c.handleOrderExpire)
	mux.HandleFunc(queue.TaskMembershipActivate, c.handleMembershipActivate)
}

func (c *Consumer) handleOrderExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_expire_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_expire_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.Expire(payload.OrderID, time.Now()); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_expire_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_expire_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleMembershipActivate(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_membership_activate_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.MembershipActivatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_membership_activate_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_membership_activate_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.MembershipService == nil {
		logger.Warnw("worker_membership_activate_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.MembershipService.ActivateForOrder(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_membership_activate_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			logger.Debugw("worker_membership_activate_skip_invalid_status", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrPlanNotFound):
			logger.Warnw("worker_membership_activate_plan_not_found", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_membership_activate_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}
