// Package report implements the report catalog: PDF upload, cached listing,
// and the download path that unifies the access check with the quota charge.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

const (
	listCacheKey = "reports:list"
	listCacheTTL = 5 * time.Minute
	listPageMax  = 100
)

// Repository defines the storage methods the catalog needs.
type Repository interface {
	CreateReport(ctx context.Context, report models.Report, content []byte) (string, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	GetReportContent(ctx context.Context, id string) ([]byte, string, error)
	ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error)
	RemoveReport(ctx context.Context, id string) (int, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// AccessEngine decides and charges report access.
type AccessEngine interface {
	CheckAccess(ctx context.Context, userUID, reportID string) (*models.AccessDecision, error)
	ConsumeQuota(ctx context.Context, userUID, reportID string) (bool, error)
}

// ListCache caches the first catalog page.
type ListCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier emits notification events, fire-and-forget.
type Notifier interface {
	Emit(kind, email string, payload models.NotificationPayload)
}

// Service is the report catalog.
type Service struct {
	repo     Repository
	access   AccessEngine
	cache    ListCache
	notifier Notifier
	log      *slog.Logger
}

// New creates the catalog service.
func New(repo Repository, access AccessEngine, cache ListCache, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		access:   access,
		cache:    cache,
		notifier: notifier,
		log:      log,
	}
}

// Upload stores a new report with its PDF bytes and returns the metadata.
func (s *Service) Upload(ctx context.Context, req models.DummyReportUpload, content []byte) (*models.Report, error) {
	const op = "report.Upload"

	report := models.Report{
		Title:       req.Title,
		Sector:      req.Sector,
		ReportType:  req.ReportType,
		ContentType: req.ContentType,
		Price:       req.Price,
	}
	id, err := s.repo.CreateReport(ctx, report, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidateList()
	s.log.Info("report uploaded",
		slog.String("report_id", id),
		slog.String("report_type", req.ReportType))

	return s.repo.GetReport(ctx, id)
}

// List returns catalog metadata, newest first. The first page is served from
// Redis; a cache failure falls through to storage.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	const op = "report.List"

	if limit <= 0 || limit > listPageMax {
		limit = listPageMax
	}
	firstPage := offset == 0 && limit == listPageMax

	if firstPage {
		var cached []*models.Report
		found, err := s.cache.Get(listCacheKey, &cached)
		if err != nil {
			s.log.Error("report list cache read failed", sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	reports, err := s.repo.ListReports(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if firstPage {
		if err := s.cache.Set(listCacheKey, reports, listCacheTTL); err != nil {
			s.log.Error("report list cache write failed", sl.Err(err))
		}
	}
	return reports, nil
}

// Get returns report metadata by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Report, error) {
	return s.repo.GetReport(ctx, id)
}

// CheckAccess exposes the access decision without charging quota.
func (s *Service) CheckAccess(ctx context.Context, userUID, reportID string) (*models.AccessDecision, error) {
	return s.access.CheckAccess(ctx, userUID, reportID)
}

// Download is the check-and-charge path: it verifies access, charges one
// quota unit when the grant is subscription-funded, and only then returns the
// PDF bytes. A denial never leaks content; an exhausted quota discovered at
// charge time (lost race with a concurrent download) denies too.
func (s *Service) Download(ctx context.Context, userUID, reportID string) ([]byte, string, error) {
	const op = "report.Download"

	decision, err := s.access.CheckAccess(ctx, userUID, reportID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !decision.HasAccess {
		return nil, "", fmt.Errorf("%s: %w", op, denialError(decision.Reason))
	}

	if decision.AccessType == models.AccessSubscription {
		consumed, err := s.access.ConsumeQuota(ctx, userUID, reportID)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		if consumed {
			s.notifyUnlocked(ctx, userUID, reportID)
		}
	}

	content, contentType, err := s.repo.GetReportContent(ctx, reportID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return content, contentType, nil
}

// Delete removes a report from the catalog. Purchase entries referencing it
// stay in place as history.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "report.Delete"

	deleted, err := s.repo.RemoveReport(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	s.invalidateList()
	s.log.Info("report removed", slog.String("report_id", id))
	return nil
}

func (s *Service) invalidateList() {
	if err := s.cache.Invalidate(listCacheKey); err != nil {
		s.log.Error("report list cache invalidation failed", sl.Err(err))
	}
}

func (s *Service) notifyUnlocked(ctx context.Context, userUID, reportID string) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		s.log.Error("failed to load user for notification", sl.Err(err))
		return
	}
	payload := models.NotificationPayload{Username: user.Username}
	if report, err := s.repo.GetReport(ctx, reportID); err == nil {
		payload.ReportTitle = report.Title
	}
	s.notifier.Emit(models.EventReportUnlocked, user.Email, payload)
}

func denialError(reason string) error {
	switch reason {
	case models.ReasonSubscriptionExpired:
		return apperr.ErrSubscriptionExpired
	case models.ReasonQuotaExhausted:
		return apperr.ErrQuotaExhausted
	default:
		return apperr.ErrNoSubscription
	}
}
