package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	classifydomain "github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/clock"
	"github.com/smallbiznis/viptagger/internal/lock"
	obsmetrics "github.com/smallbiznis/viptagger/internal/observability/metrics"
	"github.com/smallbiznis/viptagger/internal/shopify"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepLockKey = "viptagger:sweep"

var ErrInvalidConfig = errors.New("sweep: missing dependency")

// CustomerPager is the slice of the platform client the sweep needs.
type CustomerPager interface {
	ListCustomersPage(ctx context.Context, pageURL string) ([]shopify.Customer, string, error)
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	Pager  CustomerPager
	Engine classifydomain.Service
	Locker *lock.Locker `optional:"true"`
	Config Config       `optional:"true"`
}

// Sweeper pages through every customer on a schedule and feeds each one to
// the classification engine. Per-customer failures never abort a sweep.
type Sweeper struct {
	log    *zap.Logger
	clock  clock.Clock
	pager  CustomerPager
	engine classifydomain.Service
	locker *lock.Locker
	cfg    Config
}

// Summary aggregates one sweep run.
type Summary struct {
	Scanned     int64
	VIP         int64
	NewlyTagged int64
	Failed      int64
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.Clock == nil || p.Pager == nil || p.Engine == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:    p.Log.Named("sweep").With(zap.String("component", "sweep")),
		clock:  p.Clock,
		pager:  p.Pager,
		engine: p.Engine,
		locker: p.Locker,
		cfg:    p.Config.withDefaults(),
	}, nil
}

// RunOnce executes a single full-catalog sweep.
func (s *Sweeper) RunOnce(parent context.Context) (Summary, error) {
	m := obsmetrics.Default()
	m.IncSweepRun()
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, s.cfg.Timeout)
	defer cancel()

	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(ctx, sweepLockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("sweep lock unavailable, proceeding unguarded", zap.Error(err))
		} else if !acquired {
			s.log.Info("sweep already running elsewhere, skipping")
			return Summary{}, nil
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), sweepLockKey, token); err != nil {
					s.log.Warn("sweep lock release failed", zap.Error(err))
				}
			}()
		}
	}

	summary, err := s.scan(ctx)

	m.ObserveSweepDuration(time.Since(start))
	s.log.Info("sweep finished",
		zap.Int64("scanned", summary.Scanned),
		zap.Int64("vip", summary.VIP),
		zap.Int64("newly_tagged", summary.NewlyTagged),
		zap.Int64("failed", summary.Failed),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return summary, err
}

// scan walks the paginated catalog and classifies each customer through a
// bounded worker pool. Counters are atomic; no other state is shared.
func (s *Sweeper) scan(ctx context.Context) (Summary, error) {
	m := obsmetrics.Default()

	var scanned, vip, newly, failed atomic.Int64

	jobs := make(chan shopify.Customer)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for customer := range jobs {
				result := s.engine.ClassifyCustomer(ctx, customer)
				if result.IsVIP() {
					vip.Add(1)
				}
				switch result.Outcome {
				case classifydomain.OutcomeNewlyTagged:
					newly.Add(1)
				case classifydomain.OutcomeFailed:
					failed.Add(1)
					s.log.Warn("customer classification failed",
						zap.Int64("customer_id", result.CustomerID),
						zap.Error(result.Err),
					)
				}
			}
		}()
	}

	var pageErr error
	pageURL := ""
	pages := 0
	for {
		customers, next, err := s.pager.ListCustomersPage(ctx, pageURL)
		if err != nil {
			pageErr = fmt.Errorf("customer page %d: %w", pages+1, err)
			break
		}
		pages++
		scanned.Add(int64(len(customers)))
		m.AddCustomersScanned(len(customers))

		for _, customer := range customers {
			select {
			case jobs <- customer:
			case <-ctx.Done():
				pageErr = ctx.Err()
			}
			if pageErr != nil {
				break
			}
		}
		if pageErr != nil || next == "" {
			break
		}
		pageURL = next
	}

	close(jobs)
	wg.Wait()

	return Summary{
		Scanned:     scanned.Load(),
		VIP:         vip.Load(),
		NewlyTagged: newly.Load(),
		Failed:      failed.Load(),
	}, pageErr
}

// RunForever drives RunOnce on the configured interval until ctx ends.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	m := obsmetrics.Default()

	if s.cfg.RunOnStart {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}
	}

	nextRun := s.clock.Now().Add(s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.ObserveSweepLoopLag(time.Since(nextRun))
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.Interval)
	}
}
