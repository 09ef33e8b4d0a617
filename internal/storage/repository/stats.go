package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// CountStats aggregates the dashboard counters in one round trip.
func (s *Storage) CountStats(ctx context.Context, now time.Time) (*models.AdminStats, error) {
	const op = "storage.CountStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      (SELECT COUNT(*) FROM users),
			      (SELECT COUNT(*) FROM reports),
			      (SELECT COUNT(*) FROM payment_requests WHERE status = 'pending'),
			      (SELECT COUNT(*) FROM subscriptions
			       WHERE is_current AND is_active AND expiry_date > $1),
			      (SELECT COUNT(*) FROM contacts)`
	var stats models.AdminStats
	err := s.DB.QueryRowContext(ctx, query, now).Scan(
		&stats.Users, &stats.Reports, &stats.PendingRequests,
		&stats.ActiveSubscriptions, &stats.Contacts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &stats, nil
}
