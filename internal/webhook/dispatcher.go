package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/config"
	"github.com/smallbiznis/viptagger/internal/observability/metrics"
	"github.com/smallbiznis/viptagger/internal/shopify"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Dispatcher turns verified order payloads into classification work.
type Dispatcher struct {
	log      *zap.Logger
	policies *config.PolicyHolder
	engine   domain.Service
	executor *Executor
}

type DispatcherParams struct {
	fx.In

	Log      *zap.Logger
	Policies *config.PolicyHolder
	Engine   domain.Service
	Executor *Executor
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	return &Dispatcher{
		log:      p.Log.Named("webhook.dispatcher"),
		policies: p.Policies,
		engine:   p.Engine,
		executor: p.Executor,
	}
}

// Dispatch parses a raw order payload and, when it references a
// customer and carries a collected financial status, schedules that
// customer for classification. It never blocks the caller.
func (d *Dispatcher) Dispatch(body []byte) error {
	var order shopify.Order
	if err := json.Unmarshal(body, &order); err != nil {
		metrics.Default().IncWebhookEvent(metrics.WebhookResultIgnored)
		return fmt.Errorf("decode order payload: %w", err)
	}

	customerID, ok := order.CustomerID()
	if !ok {
		d.log.Debug("order without customer, skipping", zap.Int64("order_id", order.ID))
		metrics.Default().IncWebhookEvent(metrics.WebhookResultIgnored)
		return nil
	}

	policy := d.policies.Get()
	if !policy.IsCollected(order.FinancialStatus) {
		d.log.Debug("order not in collected state, skipping",
			zap.Int64("order_id", order.ID),
			zap.String("financial_status", order.FinancialStatus),
		)
		metrics.Default().IncWebhookEvent(metrics.WebhookResultIgnored)
		return nil
	}

	submitted := d.executor.Submit("classify_customer", func(ctx context.Context) error {
		result := d.engine.ClassifyByID(ctx, customerID)
		if result.Outcome == domain.OutcomeFailed {
			return result.Err
		}
		return nil
	})
	if !submitted {
		d.log.Warn("classification queue full, dropping event",
			zap.Int64("order_id", order.ID),
			zap.Int64("customer_id", customerID),
		)
		metrics.Default().IncWebhookEvent(metrics.WebhookResultDropped)
		return nil
	}

	metrics.Default().IncWebhookEvent(metrics.WebhookResultAccepted)
	return nil
}
