package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// CreateReport inserts a report together with its PDF bytes and returns the
// generated id.
func (s *Storage) CreateReport(ctx context.Context, report models.Report, content []byte) (string, error) {
	const op = "storage.CreateReport"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO reports (title, sector, report_type, content_type, content, price)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		report.Title, report.Sector, report.ReportType, report.ContentType,
		content, report.Price).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetReport returns report metadata by id. The PDF bytes are not loaded.
func (s *Storage) GetReport(ctx context.Context, id string) (*models.Report, error) {
	const op = "storage.GetReport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, sector, report_type, content_type, price, uploaded_at
			  FROM reports WHERE id = $1`
	var r models.Report
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&r.ID, &r.Title, &r.Sector, &r.ReportType,
		&r.ContentType, &r.Price, &r.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// GetReportContent returns the stored PDF bytes and content type.
func (s *Storage) GetReportContent(ctx context.Context, id string) ([]byte, string, error) {
	const op = "storage.GetReportContent"
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT content, content_type FROM reports WHERE id = $1`
	var content []byte
	var contentType string
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&content, &contentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return content, contentType, nil
}

// ListReports returns report metadata, newest first, with pagination.
func (s *Storage) ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	const op = "storage.ListReports"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, title, sector, report_type, content_type, price, uploaded_at
			  FROM reports
			  ORDER BY uploaded_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.Title, &r.Sector, &r.ReportType,
			&r.ContentType, &r.Price, &r.UploadedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveReport deletes a report by id and returns the number of deleted rows.
func (s *Storage) RemoveReport(ctx context.Context, id string) (int, error) {
	const op = "storage.RemoveReport"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM reports WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
