// Package access implements the access and quota engine: deciding whether a
// user may open a report, charging subscription quota for it, and computing
// the state of a new subscription on activation.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/lib/month"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Repository defines the storage methods the engine needs.
type Repository interface {
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetPurchasedReport(ctx context.Context, userUID, reportID string) (*models.PurchasedReport, error)
	GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	ConsumeQuota(ctx context.Context, userUID, reportID, reportType string, now time.Time) (bool, error)
}

// Service is the access and quota engine.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New creates the engine. nowFn may be nil, defaulting to time.Now.
func New(repo Repository, log *slog.Logger, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		repo: repo,
		log:  log,
		now:  nowFn,
	}
}

// HasActiveSubscription is the single active-subscription predicate: the
// record must exist, the flag must be set AND the expiry date must still be
// in the future. The dual check makes correctness independent of how
// recently the expiry sweep persisted the deactivation — a stale is_active
// flag with a past expiry date counts as inactive everywhere.
func HasActiveSubscription(sub *models.Subscription, now time.Time) bool {
	return sub != nil && sub.IsActive && sub.ExpiryDate.After(now)
}

// CheckAccess decides whether the user may open the report. It performs no
// state change; subscription grants are charged separately via ConsumeQuota.
// userUID may be empty for anonymous callers — free reports still grant.
func (s *Service) CheckAccess(ctx context.Context, userUID, reportID string) (*models.AccessDecision, error) {
	const op = "access.CheckAccess"

	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if report.ReportType == models.ReportTypeFree {
		return &models.AccessDecision{HasAccess: true, AccessType: models.AccessFree}, nil
	}

	if userUID == "" {
		return &models.AccessDecision{HasAccess: false, Reason: models.ReasonNoSubscription}, nil
	}

	purchased, err := s.repo.GetPurchasedReport(ctx, userUID, reportID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if purchased != nil {
		// already owned, idempotent and never re-charged
		return &models.AccessDecision{HasAccess: true, AccessType: models.AccessIndividual}, nil
	}

	sub, err := s.repo.GetCurrentSubscription(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if sub == nil {
		return &models.AccessDecision{HasAccess: false, Reason: models.ReasonNoSubscription}, nil
	}
	if !HasActiveSubscription(sub, now) {
		return &models.AccessDecision{HasAccess: false, Reason: models.ReasonSubscriptionExpired}, nil
	}
	if remaining(sub, report.ReportType) <= 0 {
		return &models.AccessDecision{HasAccess: false, Reason: models.ReasonQuotaExhausted}, nil
	}

	return &models.AccessDecision{HasAccess: true, AccessType: models.AccessSubscription}, nil
}

// ConsumeQuota charges one unit of the matching bucket for a
// subscription-funded access and records the purchase entry. Returns true
// when a unit was actually consumed and false when the (user, report) pair
// was already granted earlier — the idempotent re-access case. Exhausted or
// missing balance is an error (ErrQuotaExhausted), never a silent grant.
func (s *Service) ConsumeQuota(ctx context.Context, userUID, reportID string) (bool, error) {
	const op = "access.ConsumeQuota"

	report, err := s.repo.GetReport(ctx, reportID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if report.ReportType == models.ReportTypeFree {
		return false, fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}

	consumed, err := s.repo.ConsumeQuota(ctx, userUID, reportID, report.ReportType, s.now())
	if err != nil {
		if errors.Is(err, apperr.ErrQuotaExhausted) {
			return false, fmt.Errorf("%s: %w", op, apperr.ErrQuotaExhausted)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if consumed {
		s.log.Info("subscription quota consumed",
			slog.String("user_uid", userUID),
			slog.String("report_id", reportID),
			slog.String("report_type", report.ReportType))
	}
	return consumed, nil
}

// NewSubscription builds the subscription record activated by an approved
// subscription payment: all counters reset to zero, active, with expiry at
// purchase date plus the plan term in calendar months (day-of-month
// overflow clamped).
func NewSubscription(userUID string, plan models.PlanSnapshot, purchaseDate time.Time) models.Subscription {
	return models.Subscription{
		UserUID:         userUID,
		PlanID:          plan.PlanID,
		PlanName:        plan.PlanName,
		Price:           plan.Price,
		DurationMonths:  plan.DurationMonths,
		PurchaseDate:    purchaseDate,
		ExpiryDate:      month.AddMonths(purchaseDate, plan.DurationMonths),
		IsActive:        true,
		IsCurrent:       true,
		ReportsIncluded: plan.ReportsIncluded,
		PremiumQuota:    plan.PremiumQuota,
		BluechipQuota:   plan.BluechipQuota,
	}
}

func remaining(sub *models.Subscription, reportType string) int {
	switch reportType {
	case models.ReportTypePremium:
		return sub.PremiumQuota - sub.PremiumUsed
	case models.ReportTypeBluechip:
		return sub.BluechipQuota - sub.BluechipUsed
	default:
		return 0
	}
}
