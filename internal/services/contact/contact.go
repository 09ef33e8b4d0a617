// Package contact handles inbound support messages.
package contact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Manaslohe/TechReportProBE/internal/models"
)

// Repository defines the storage methods for contact messages.
type Repository interface {
	CreateContact(ctx context.Context, contact models.Contact) (int, error)
	ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error)
}

// Notifier emits notification events, fire-and-forget.
type Notifier interface {
	Emit(kind, email string, payload models.NotificationPayload)
}

// Service stores contact messages and forwards them to the support inbox.
type Service struct {
	repo         Repository
	notifier     Notifier
	supportEmail string
	log          *slog.Logger
}

// New creates the contact service. supportEmail is the inbox that receives a
// copy of every submission.
func New(repo Repository, notifier Notifier, supportEmail string, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		notifier:     notifier,
		supportEmail: supportEmail,
		log:          log,
	}
}

// Submit stores the message. userUID is empty for anonymous submissions.
func (s *Service) Submit(ctx context.Context, userUID string, req models.DummyContact) (int, error) {
	const op = "contact.Submit"

	id, err := s.repo.CreateContact(ctx, models.Contact{
		UserUID: userUID,
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("contact message stored", slog.Int("contact_id", id))
	s.notifier.Emit(models.EventContactSubmission, s.supportEmail, models.NotificationPayload{
		ContactName: req.Name,
		Message:     req.Message,
	})
	return id, nil
}

// List returns contact messages for the admin view.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	return s.repo.ListContacts(ctx, limit, offset)
}
