package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

const paymentColumns = `id, user_uid, payment_type, report_id, plan_id, plan_name,
			      plan_price, plan_duration_months, plan_reports_included,
			      plan_premium_quota, plan_bluechip_quota, amount, proof, status,
			      admin_comment, reviewed_by, reviewed_at, created_at`

func scanPaymentRequest(row interface{ Scan(...any) error }) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	var reportID, planID, planName, adminComment, reviewedBy sql.NullString
	var planPrice sql.NullFloat64
	var planDuration, planIncluded, planPremium, planBluechip sql.NullInt64
	var reviewedAt sql.NullTime

	err := row.Scan(&req.ID, &req.UserUID, &req.PaymentType, &reportID, &planID,
		&planName, &planPrice, &planDuration, &planIncluded, &planPremium,
		&planBluechip, &req.Amount, &req.Proof, &req.Status, &adminComment,
		&reviewedBy, &reviewedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}

	req.ReportID = reportID.String
	req.AdminComment = adminComment.String
	req.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	if planID.Valid {
		req.Plan = &models.PlanSnapshot{
			PlanID:          planID.String,
			PlanName:        planName.String,
			Price:           planPrice.Float64,
			DurationMonths:  int(planDuration.Int64),
			ReportsIncluded: int(planIncluded.Int64),
			PremiumQuota:    int(planPremium.Int64),
			BluechipQuota:   int(planBluechip.Int64),
		}
	}
	return &req, nil
}

// CreatePaymentRequest inserts a pending payment request and returns its id.
// A racing duplicate submission trips the partial unique indexes and is
// reported as ErrDuplicateRequest.
func (s *Storage) CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (string, error) {
	const op = "storage.CreatePaymentRequest"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var reportID any
	var planID, planName any
	var planPrice, planDuration, planIncluded, planPremium, planBluechip any
	if req.PaymentType == models.PaymentTypeReport {
		reportID = req.ReportID
	}
	if req.Plan != nil {
		planID = req.Plan.PlanID
		planName = req.Plan.PlanName
		planPrice = req.Plan.Price
		planDuration = req.Plan.DurationMonths
		planIncluded = req.Plan.ReportsIncluded
		planPremium = req.Plan.PremiumQuota
		planBluechip = req.Plan.BluechipQuota
	}

	query := `INSERT INTO payment_requests (user_uid, payment_type, report_id, plan_id,
			      plan_name, plan_price, plan_duration_months, plan_reports_included,
			      plan_premium_quota, plan_bluechip_quota, amount, proof)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		req.UserUID, req.PaymentType, reportID, planID, planName, planPrice,
		planDuration, planIncluded, planPremium, planBluechip,
		req.Amount, req.Proof).Scan(&newID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, apperr.ErrDuplicateRequest)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPaymentRequest returns a payment request by id.
func (s *Storage) GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	const op = "storage.GetPaymentRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + ` FROM payment_requests WHERE id = $1`
	req, err := scanPaymentRequest(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

// HasPendingReportRequest reports whether the user already has a pending
// request for the report.
func (s *Storage) HasPendingReportRequest(ctx context.Context, userUID, reportID string) (bool, error) {
	const op = "storage.HasPendingReportRequest"
	query := `SELECT EXISTS (SELECT 1 FROM payment_requests
			  WHERE user_uid = $1 AND report_id = $2 AND status = 'pending')`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, reportID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// HasPendingSubscriptionRequest reports whether the user already has a
// pending subscription request.
func (s *Storage) HasPendingSubscriptionRequest(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.HasPendingSubscriptionRequest"
	query := `SELECT EXISTS (SELECT 1 FROM payment_requests
			  WHERE user_uid = $1 AND payment_type = 'subscription' AND status = 'pending')`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListPaymentRequestsByUser returns a user's payment requests, newest first.
func (s *Storage) ListPaymentRequestsByUser(ctx context.Context, userUID string) ([]*models.PaymentRequest, error) {
	const op = "storage.ListPaymentRequestsByUser"
	query := `SELECT ` + paymentColumns + `
			  FROM payment_requests
			  WHERE user_uid = $1
			  ORDER BY created_at DESC`
	return s.queryPaymentRequests(ctx, op, query, userUID)
}

// ListPaymentRequests returns payment requests filtered by status; an empty
// status returns everything.
func (s *Storage) ListPaymentRequests(ctx context.Context, status string, limit, offset int) ([]*models.PaymentRequest, error) {
	const op = "storage.ListPaymentRequests"
	query := `SELECT ` + paymentColumns + `
			  FROM payment_requests
			  WHERE ($1 = '' OR status = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	return s.queryPaymentRequests(ctx, op, query, status, limit, offset)
}

func (s *Storage) queryPaymentRequests(ctx context.Context, op, query string, args ...any) ([]*models.PaymentRequest, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PaymentRequest
	for rows.Next() {
		req, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, req)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// markReviewed compares-and-sets the request status from pending inside tx.
// Zero affected rows means the request was already processed.
func markReviewed(ctx context.Context, tx *sql.Tx, op, id, status, comment, reviewerUID string, now time.Time) error {
	result, err := tx.ExecContext(ctx, `UPDATE payment_requests
			  SET status = $1, admin_comment = $2, reviewed_by = $3, reviewed_at = $4
			  WHERE id = $5 AND status = 'pending'`,
		status, comment, reviewerUID, now, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrAlreadyProcessed)
	}
	return nil
}

// RejectPaymentRequest transitions a pending request to rejected.
func (s *Storage) RejectPaymentRequest(ctx context.Context, id, comment, reviewerUID string, now time.Time) error {
	const op = "storage.RejectPaymentRequest"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := markReviewed(ctx, tx, op, id, models.PaymentStatusRejected, comment, reviewerUID, now); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApproveReportPaymentRequest transitions a pending report request to
// approved and appends the purchase entry in the same transaction. The
// insert is idempotent (ON CONFLICT DO NOTHING), so re-applying a grant can
// never double-charge.
func (s *Storage) ApproveReportPaymentRequest(ctx context.Context, req *models.PaymentRequest, comment, reviewerUID string, now time.Time) error {
	const op = "storage.ApproveReportPaymentRequest"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := markReviewed(ctx, tx, op, req.ID, models.PaymentStatusApproved, comment, reviewerUID, now); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO purchased_reports
			  (user_uid, report_id, purchase_date, price, access_type)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (user_uid, report_id) DO NOTHING`,
		req.UserUID, req.ReportID, now, req.Amount, models.AccessIndividual)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApproveSubscriptionPaymentRequest transitions a pending subscription
// request to approved, archives any current subscription and installs the
// new one with zeroed counters — all in one transaction, so the status flip
// and the grant cannot be torn apart by a crash.
func (s *Storage) ApproveSubscriptionPaymentRequest(ctx context.Context, req *models.PaymentRequest, sub models.Subscription, comment, reviewerUID string, now time.Time) error {
	const op = "storage.ApproveSubscriptionPaymentRequest"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := markReviewed(ctx, tx, op, req.ID, models.PaymentStatusApproved, comment, reviewerUID, now); err != nil {
		return err
	}

	// any existing current subscription moves into history first
	_, err = tx.ExecContext(ctx, `UPDATE subscriptions
			  SET is_current = FALSE
			  WHERE user_uid = $1 AND is_current`, req.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO subscriptions
			  (user_uid, plan_id, plan_name, price, duration_months, purchase_date,
			   expiry_date, is_active, is_current, reports_included, premium_quota, bluechip_quota)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, TRUE, $8, $9, $10)`,
		sub.UserUID, sub.PlanID, sub.PlanName, sub.Price, sub.DurationMonths,
		sub.PurchaseDate, sub.ExpiryDate, sub.ReportsIncluded,
		sub.PremiumQuota, sub.BluechipQuota)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
