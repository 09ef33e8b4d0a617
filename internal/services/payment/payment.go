// Package payment implements the manual-review payment request workflow:
// submission with duplicate guards, admin review with a compare-and-set
// status transition, and the grant side effects of approval.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
	"github.com/Manaslohe/TechReportProBE/internal/services/access"
)

// Repository defines the storage methods the workflow needs.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetPurchasedReport(ctx context.Context, userUID, reportID string) (*models.PurchasedReport, error)
	GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
	CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (string, error)
	GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error)
	HasPendingReportRequest(ctx context.Context, userUID, reportID string) (bool, error)
	HasPendingSubscriptionRequest(ctx context.Context, userUID string) (bool, error)
	ListPaymentRequestsByUser(ctx context.Context, userUID string) ([]*models.PaymentRequest, error)
	ListPaymentRequests(ctx context.Context, status string, limit, offset int) ([]*models.PaymentRequest, error)
	RejectPaymentRequest(ctx context.Context, id, comment, reviewerUID string, now time.Time) error
	ApproveReportPaymentRequest(ctx context.Context, req *models.PaymentRequest, comment, reviewerUID string, now time.Time) error
	ApproveSubscriptionPaymentRequest(ctx context.Context, req *models.PaymentRequest, sub models.Subscription, comment, reviewerUID string, now time.Time) error
}

// Notifier emits notification events, fire-and-forget.
type Notifier interface {
	Emit(kind, email string, payload models.NotificationPayload)
}

// Service is the payment request workflow.
type Service struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// New creates the workflow service. nowFn may be nil, defaulting to time.Now.
func New(repo Repository, notifier Notifier, log *slog.Logger, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      nowFn,
	}
}

// Submit creates a pending payment request for the user. Duplicate pending
// requests are pre-checked for a precise error kind, and the partial unique
// indexes close the remaining race: a concurrent duplicate insert also comes
// back as ErrDuplicateRequest.
func (s *Service) Submit(ctx context.Context, userUID string, req models.DummyPaymentSubmit) (*models.PaymentRequest, error) {
	const op = "payment.Submit"

	if err := validatePayload(req.PaymentType, req.ReportID, req.Plan); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch req.PaymentType {
	case models.PaymentTypeReport:
		if _, err := s.repo.GetReport(ctx, req.ReportID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		purchased, err := s.repo.GetPurchasedReport(ctx, userUID, req.ReportID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if purchased != nil {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrAlreadyPurchased)
		}
		pending, err := s.repo.HasPendingReportRequest(ctx, userUID, req.ReportID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if pending {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrDuplicateRequest)
		}
	case models.PaymentTypeSubscription:
		sub, err := s.repo.GetCurrentSubscription(ctx, userUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if access.HasActiveSubscription(sub, s.now()) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrActiveSubscriptionExists)
		}
		pending, err := s.repo.HasPendingSubscriptionRequest(ctx, userUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if pending {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrDuplicateRequest)
		}
	}

	request := models.PaymentRequest{
		UserUID:     userUID,
		PaymentType: req.PaymentType,
		ReportID:    req.ReportID,
		Plan:        req.Plan,
		Amount:      req.Amount,
		Proof:       req.Proof,
		Status:      models.PaymentStatusPending,
	}
	id, err := s.repo.CreatePaymentRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment request submitted",
		slog.String("request_id", id),
		slog.String("user_uid", userUID),
		slog.String("payment_type", req.PaymentType))

	return s.repo.GetPaymentRequest(ctx, id)
}

// Review transitions a pending request to approved or rejected. The status
// flip is a compare-and-set; on approval the grant (purchase entry or
// subscription activation) is applied in the same storage transaction and
// is itself idempotent, so a re-applied approval never double-grants.
func (s *Service) Review(ctx context.Context, requestID string, review models.DummyPaymentReview, reviewerUID string) (*models.PaymentRequest, error) {
	const op = "payment.Review"

	request, err := s.repo.GetPaymentRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if request.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrAlreadyProcessed)
	}

	now := s.now()
	switch review.Decision {
	case models.PaymentStatusRejected:
		if err := s.repo.RejectPaymentRequest(ctx, requestID, review.Comment, reviewerUID, now); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.notifyReviewed(ctx, request, models.EventPurchaseRejected, review.Comment)
	case models.PaymentStatusApproved:
		switch request.PaymentType {
		case models.PaymentTypeReport:
			if err := s.repo.ApproveReportPaymentRequest(ctx, request, review.Comment, reviewerUID, now); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		case models.PaymentTypeSubscription:
			sub := access.NewSubscription(request.UserUID, *request.Plan, now)
			if err := s.repo.ApproveSubscriptionPaymentRequest(ctx, request, sub, review.Comment, reviewerUID, now); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		s.notifyReviewed(ctx, request, models.EventPurchaseApproved, review.Comment)
	default:
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}

	s.log.Info("payment request reviewed",
		slog.String("request_id", requestID),
		slog.String("decision", review.Decision),
		slog.String("reviewer", reviewerUID))

	return s.repo.GetPaymentRequest(ctx, requestID)
}

// GrantByAdmin creates a pending request on the user's behalf when payment
// was verified out of band. It runs the same guards as Submit and the
// request still has to pass Review — it never bypasses the state machine.
func (s *Service) GrantByAdmin(ctx context.Context, grant models.DummyPaymentGrant) (*models.PaymentRequest, error) {
	const op = "payment.GrantByAdmin"

	if _, err := s.repo.GetUser(ctx, grant.UserUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	request, err := s.Submit(ctx, grant.UserUID, models.DummyPaymentSubmit{
		PaymentType: grant.PaymentType,
		ReportID:    grant.ReportID,
		Plan:        grant.Plan,
		Amount:      grant.Amount,
		Proof:       grant.Proof,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return request, nil
}

// ListByUser returns the user's own payment requests.
func (s *Service) ListByUser(ctx context.Context, userUID string) ([]*models.PaymentRequest, error) {
	return s.repo.ListPaymentRequestsByUser(ctx, userUID)
}

// List returns payment requests for the admin view, optionally filtered by
// status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*models.PaymentRequest, error) {
	return s.repo.ListPaymentRequests(ctx, status, limit, offset)
}

func (s *Service) notifyReviewed(ctx context.Context, request *models.PaymentRequest, kind, comment string) {
	user, err := s.repo.GetUser(ctx, request.UserUID)
	if err != nil {
		s.log.Error("failed to load user for notification", sl.Err(err))
		return
	}

	payload := models.NotificationPayload{
		Username:     user.Username,
		Amount:       request.Amount,
		AdminComment: comment,
	}
	if request.PaymentType == models.PaymentTypeReport {
		if report, err := s.repo.GetReport(ctx, request.ReportID); err == nil {
			payload.ReportTitle = report.Title
		}
	} else if request.Plan != nil {
		payload.PlanName = request.Plan.PlanName
	}
	s.notifier.Emit(kind, user.Email, payload)
}

// validatePayload enforces mutual exclusivity of the report/plan targets and
// their match with the payment type.
func validatePayload(paymentType, reportID string, plan *models.PlanSnapshot) error {
	switch paymentType {
	case models.PaymentTypeReport:
		if reportID == "" || plan != nil {
			return apperr.ErrValidation
		}
	case models.PaymentTypeSubscription:
		if plan == nil || reportID != "" {
			return apperr.ErrValidation
		}
	default:
		return apperr.ErrValidation
	}
	return nil
}
