package service

import (
	"context"
	"sync"

	"github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/clock"
	"github.com/smallbiznis/viptagger/internal/config"
	obsmetrics "github.com/smallbiznis/viptagger/internal/observability/metrics"
	"github.com/smallbiznis/viptagger/internal/shopify"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Platform domain.Platform
	Policies *config.PolicyHolder
	Clock    clock.Clock
}

// Service is the classification engine: fetch state, compute spend, decide,
// apply. The only stateful decision point in the system.
type Service struct {
	log      *zap.Logger
	platform domain.Platform
	policies *config.PolicyHolder
	clock    clock.Clock
	tracer   trace.Tracer
	locks    stripedLocks
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("classify.engine"),
		platform: p.Platform,
		policies: p.Policies,
		clock:    p.Clock,
		tracer:   otel.Tracer("viptagger/classify"),
	}
}

func (s *Service) ClassifyByID(ctx context.Context, customerID int64) domain.Result {
	unlock := s.locks.lock(customerID)
	defer unlock()

	customer, err := s.platform.GetCustomer(ctx, customerID)
	if err != nil {
		return s.finish(domain.Result{CustomerID: customerID, Outcome: domain.OutcomeFailed, Err: err})
	}
	return s.classifyLocked(ctx, customer)
}

func (s *Service) ClassifyCustomer(ctx context.Context, customer shopify.Customer) domain.Result {
	unlock := s.locks.lock(customer.ID)
	defer unlock()

	return s.classifyLocked(ctx, customer)
}

func (s *Service) classifyLocked(ctx context.Context, customer shopify.Customer) domain.Result {
	ctx, span := s.tracer.Start(ctx, "classify.customer")
	span.SetAttributes(attribute.Int64("customer_id", customer.ID))
	defer span.End()

	policy := s.policies.Get()
	tags := customer.TagList()

	// Short-circuit: an already tagged customer needs no order fetch and no
	// writes, under duplicate deliveries or overlapping sweeps alike.
	if shopify.HasTag(tags, policy.VIPTag) {
		return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeAlreadyTagged})
	}

	orders, err := s.platform.ListOrders(ctx, customer.ID)
	if err != nil {
		return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeFailed, Err: err})
	}

	spend, err := ComputeLifetimeSpend(orders, policy)
	if err != nil {
		return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeFailed, Err: err})
	}
	s.log.Debug("lifetime spend computed",
		zap.Int64("customer_id", customer.ID),
		zap.String("email", customer.Email),
		zap.Float64("spend", spend),
	)

	decision := Reconcile(tags, spend, policy, s.clock.Now())
	switch decision.Kind {
	case domain.DecisionBelowThreshold:
		return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeBelowThreshold, Spend: spend})
	case domain.DecisionAlreadyTagged:
		return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeAlreadyTagged, Spend: spend})
	}

	if err := s.platform.UpdateTags(ctx, customer.ID, decision.Tags); err != nil {
		return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeFailed, Spend: spend, Err: err})
	}

	// The tag is the durable fact; the note is a best-effort audit trail.
	if err := s.platform.AppendNote(ctx, customer.ID, decision.Note); err != nil {
		s.log.Warn("audit note append failed after tagging",
			zap.Int64("customer_id", customer.ID),
			zap.Error(err),
		)
	}

	s.log.Info("customer tagged as VIP",
		zap.Int64("customer_id", customer.ID),
		zap.String("email", customer.Email),
		zap.Float64("spend", spend),
	)
	return s.finish(domain.Result{CustomerID: customer.ID, Outcome: domain.OutcomeNewlyTagged, Spend: spend})
}

func (s *Service) finish(result domain.Result) domain.Result {
	obsmetrics.Default().IncClassification(string(result.Outcome))
	return result
}

const lockStripes = 64

// stripedLocks serializes classification per customer within this process.
// Two entry points can race on the same customer (webhook mid-sweep); the
// stripe keyed by customer id makes the second caller observe the first
// caller's tag write.
type stripedLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLocks) lock(customerID int64) func() {
	m := &l.stripes[uint64(customerID)%lockStripes]
	m.Lock()
	return m.Unlock
}
