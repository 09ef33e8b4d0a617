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

// RegisterUser saves a new user and returns its uid.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, apperr.ErrValidation)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser returns a user by uid, with the current subscription attached when
// one exists.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sub, err := s.GetCurrentSubscription(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.CurrentSubscription = sub
	return u, nil
}

// GetUserByUsername returns a user by username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdatePasswordHash replaces the stored password hash of a user.
func (s *Storage) UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdatePasswordHash"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET password_hash = $1 WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, passwordHash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}

const subscriptionColumns = `id, user_uid, plan_id, plan_name, price, duration_months,
			      purchase_date, expiry_date, is_active, is_current, reports_included,
			      reports_used, premium_quota, premium_used, bluechip_quota, bluechip_used`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.UserUID, &sub.PlanID, &sub.PlanName, &sub.Price,
		&sub.DurationMonths, &sub.PurchaseDate, &sub.ExpiryDate, &sub.IsActive,
		&sub.IsCurrent, &sub.ReportsIncluded, &sub.ReportsUsed, &sub.PremiumQuota,
		&sub.PremiumUsed, &sub.BluechipQuota, &sub.BluechipUsed)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetCurrentSubscription returns the user's current subscription record, or
// nil when none exists.
func (s *Storage) GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetCurrentSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND is_current`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// ListSubscriptionHistory returns the user's archived subscription records
// in chronological order.
func (s *Storage) ListSubscriptionHistory(ctx context.Context, userUID string) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptionHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND NOT is_current
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPurchasedReport returns the purchase entry for (user, report), or nil
// when the user does not own the report.
func (s *Storage) GetPurchasedReport(ctx context.Context, userUID, reportID string) (*models.PurchasedReport, error) {
	const op = "storage.GetPurchasedReport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, report_id, purchase_date, price, access_type
			  FROM purchased_reports
			  WHERE user_uid = $1 AND report_id = $2`
	var p models.PurchasedReport
	row := s.DB.QueryRowContext(ctx, query, userUID, reportID)
	if err := row.Scan(&p.ID, &p.UserUID, &p.ReportID, &p.PurchaseDate,
		&p.Price, &p.AccessType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ListPurchasedReports returns every purchase entry of a user.
func (s *Storage) ListPurchasedReports(ctx context.Context, userUID string) ([]*models.PurchasedReport, error) {
	const op = "storage.ListPurchasedReports"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, report_id, purchase_date, price, access_type
			  FROM purchased_reports
			  WHERE user_uid = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PurchasedReport
	for rows.Next() {
		var p models.PurchasedReport
		if err := rows.Scan(&p.ID, &p.UserUID, &p.ReportID, &p.PurchaseDate,
			&p.Price, &p.AccessType); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ConsumeQuota charges one unit of the matching quota bucket and records the
// purchase entry in a single transaction. The insert and the guarded update
// make the operation atomic and idempotent per (user, report):
//
//   - an existing purchase entry short-circuits to (false, nil) — the caller
//     treats this as an already-granted no-op;
//   - the quota update only matches an active, unexpired current
//     subscription with remaining balance in the bucket, so a failed guard
//     rolls the insert back and returns ErrQuotaExhausted.
func (s *Storage) ConsumeQuota(ctx context.Context, userUID, reportID, reportType string, now time.Time) (bool, error) {
	const op = "storage.ConsumeQuota"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert := `INSERT INTO purchased_reports (user_uid, report_id, purchase_date, price, access_type)
			   VALUES ($1, $2, $3, 0, $4)
			   ON CONFLICT (user_uid, report_id) DO NOTHING`
	result, err := tx.ExecContext(ctx, insert, userUID, reportID, now, models.AccessSubscription)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		// already granted earlier, nothing to charge
		return false, nil
	}

	var bucket string
	switch reportType {
	case models.ReportTypePremium:
		bucket = "premium"
	case models.ReportTypeBluechip:
		bucket = "bluechip"
	default:
		return false, fmt.Errorf("%s: %w", op, apperr.ErrValidation)
	}

	update := fmt.Sprintf(`UPDATE subscriptions
			  SET %[1]s_used = %[1]s_used + 1, reports_used = reports_used + 1
			  WHERE user_uid = $1 AND is_current AND is_active
			    AND expiry_date > $2 AND %[1]s_used < %[1]s_quota`, bucket)
	result, err = tx.ExecContext(ctx, update, userUID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if updated == 0 {
		return false, fmt.Errorf("%s: %w", op, apperr.ErrQuotaExhausted)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// FindExpiredCurrentSubscriptions returns every current subscription whose
// flag is still active but whose expiry date has passed, joined with the
// owner's contact fields.
func (s *Storage) FindExpiredCurrentSubscriptions(ctx context.Context, now time.Time) ([]*models.SubscriptionWithUser, error) {
	const op = "storage.FindExpiredCurrentSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_uid, s.plan_name, s.expiry_date, u.email, u.username
			  FROM subscriptions s
			  JOIN users u ON u.uid = s.user_uid
			  WHERE s.is_current AND s.is_active AND s.expiry_date < $1`
	return s.querySubscriptionsWithUser(ctx, op, query, now)
}

// FindExpiringCurrentSubscriptions returns every active current subscription
// whose expiry date falls within [now, until).
func (s *Storage) FindExpiringCurrentSubscriptions(ctx context.Context, now, until time.Time) ([]*models.SubscriptionWithUser, error) {
	const op = "storage.FindExpiringCurrentSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_uid, s.plan_name, s.expiry_date, u.email, u.username
			  FROM subscriptions s
			  JOIN users u ON u.uid = s.user_uid
			  WHERE s.is_current AND s.is_active AND s.expiry_date >= $1 AND s.expiry_date < $2`
	return s.querySubscriptionsWithUser(ctx, op, query, now, until)
}

func (s *Storage) querySubscriptionsWithUser(ctx context.Context, op, query string, args ...any) ([]*models.SubscriptionWithUser, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.SubscriptionWithUser
	for rows.Next() {
		var item models.SubscriptionWithUser
		if err := rows.Scan(&item.SubscriptionID, &item.UserUID, &item.PlanName,
			&item.ExpiryDate, &item.Email, &item.Username); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ArchiveSubscription deactivates a subscription and moves it out of the
// current slot, keeping the row as history. Idempotent: archiving an
// already-archived subscription affects no rows and returns nil.
func (s *Storage) ArchiveSubscription(ctx context.Context, subscriptionID int) error {
	const op = "storage.ArchiveSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET is_active = FALSE, is_current = FALSE
			  WHERE id = $1 AND is_current`
	if _, err := s.DB.ExecContext(ctx, query, subscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
