// Package sweeper implements the periodic expiry sweep: archiving current
// subscriptions whose expiry date has passed and warning owners whose
// subscriptions expire within the configured window.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Manaslohe/TechReportProBE/internal/lib/month"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

var (
	expiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_subscriptions_expired_total",
		Help: "Subscriptions deactivated by the expiry sweep.",
	})
	warnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_subscriptions_warned_total",
		Help: "Expiry warning notifications emitted by the sweep.",
	})
	sweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_errors_total",
		Help: "Per-subscription errors encountered during sweeps.",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sweeper_run_duration_seconds",
		Help:    "Duration of a full sweep run.",
		Buckets: prometheus.DefBuckets,
	})
)

// Repository defines the storage methods the sweep needs.
type Repository interface {
	FindExpiredCurrentSubscriptions(ctx context.Context, now time.Time) ([]*models.SubscriptionWithUser, error)
	FindExpiringCurrentSubscriptions(ctx context.Context, now, until time.Time) ([]*models.SubscriptionWithUser, error)
	ArchiveSubscription(ctx context.Context, subscriptionID int) error
}

// Notifier emits notification events, fire-and-forget.
type Notifier interface {
	Emit(kind, email string, payload models.NotificationPayload)
}

// Service is the expiry sweep worker.
type Service struct {
	repo        Repository
	notifier    Notifier
	log         *slog.Logger
	interval    time.Duration
	warningDays int
	now         func() time.Time
}

// New creates the sweep service. nowFn may be nil, defaulting to time.Now.
func New(repo Repository, notifier Notifier, log *slog.Logger, interval time.Duration, warningDays int, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		repo:        repo,
		notifier:    notifier,
		log:         log,
		interval:    interval,
		warningDays: warningDays,
		now:         nowFn,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("expiry sweep started",
		slog.Duration("interval", s.interval),
		slog.Int("warning_days", s.warningDays))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.Sweep(ctx); err != nil {
			s.log.Error("sweep run failed", sl.Err(err))
		}
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweep stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep performs one full pass: expirations first, then warnings. Each
// subscription is handled independently; one failure is counted and logged
// and the pass moves on, so a single bad row cannot stall the rest.
func (s *Service) Sweep(ctx context.Context) error {
	const op = "sweeper.Sweep"

	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now()

	if err := s.sweepExpired(ctx, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sweepExpiring(ctx, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) sweepExpired(ctx context.Context, now time.Time) error {
	expired, err := s.repo.FindExpiredCurrentSubscriptions(ctx, now)
	if err != nil {
		return err
	}

	for _, sub := range expired {
		if err := s.repo.ArchiveSubscription(ctx, sub.SubscriptionID); err != nil {
			sweepErrors.Inc()
			s.log.Error("failed to archive expired subscription",
				slog.Int("subscription_id", sub.SubscriptionID), sl.Err(err))
			continue
		}
		expiredTotal.Inc()
		s.log.Info("subscription expired",
			slog.Int("subscription_id", sub.SubscriptionID),
			slog.String("user_uid", sub.UserUID))
		s.notifier.Emit(models.EventSubscriptionExpired, sub.Email, models.NotificationPayload{
			Username:   sub.Username,
			PlanName:   sub.PlanName,
			ExpiryDate: sub.ExpiryDate.Format("2006-01-02"),
		})
	}
	return nil
}

func (s *Service) sweepExpiring(ctx context.Context, now time.Time) error {
	until := now.AddDate(0, 0, s.warningDays)
	expiring, err := s.repo.FindExpiringCurrentSubscriptions(ctx, now, until)
	if err != nil {
		return err
	}

	for _, sub := range expiring {
		warnedTotal.Inc()
		s.notifier.Emit(models.EventSubscriptionExpiring, sub.Email, models.NotificationPayload{
			Username:   sub.Username,
			PlanName:   sub.PlanName,
			ExpiryDate: sub.ExpiryDate.Format("2006-01-02"),
			DaysLeft:   month.DaysLeft(now, sub.ExpiryDate),
		})
	}
	return nil
}
