package repository

import (
	"context"
	"fmt"

	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// CreateContact appends an inbound contact message and returns its id.
func (s *Storage) CreateContact(ctx context.Context, contact models.Contact) (int, error) {
	const op = "storage.CreateContact"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userUID any
	if contact.UserUID != "" {
		userUID = contact.UserUID
	}

	query := `INSERT INTO contacts (user_uid, name, email, message)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		userUID, contact.Name, contact.Email, contact.Message).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListContacts returns contact messages, newest first, with pagination.
func (s *Storage) ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	const op = "storage.ListContacts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, COALESCE(user_uid::TEXT, ''), name, email, message, created_at
			  FROM contacts
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.UserUID, &c.Name, &c.Email,
			&c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
