// Package auth implements registration, login and the OTP-based password
// reset flow. Reset codes live in Redis with a short TTL and are consumed on
// first successful confirmation.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/lib/jwt"
	"github.com/Manaslohe/TechReportProBE/internal/lib/password"
	"github.com/Manaslohe/TechReportProBE/internal/lib/sl"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

const (
	otpTTL    = 10 * time.Minute
	otpDigits = 6
)

// Repository defines the storage methods auth needs.
type Repository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error
}

// OTPStore keeps reset codes with a TTL.
type OTPStore interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Notifier emits notification events, fire-and-forget.
type Notifier interface {
	Emit(kind, email string, payload models.NotificationPayload)
}

// Service implements authentication and account recovery.
type Service struct {
	repo     Repository
	otps     OTPStore
	maker    jwt.Maker
	notifier Notifier
	log      *slog.Logger
}

// New creates the auth service.
func New(repo Repository, otps OTPStore, maker jwt.Maker, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		otps:     otps,
		maker:    maker,
		notifier: notifier,
		log:      log,
	}
}

// Register creates a user account and sends the welcome email. A taken email
// or username surfaces as ErrValidation.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	const op = "auth.Register"

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.RegisterUser(ctx, models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         "user",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered",
		slog.String("user_uid", uid),
		slog.String("username", req.Username))
	s.notifier.Emit(models.EventWelcome, req.Email, models.NotificationPayload{
		Username: req.Username,
	})
	return uid, nil
}

// Login verifies the credentials and issues a JWT. A missing user and a wrong
// password both map to ErrInvalidCredentials so the response does not reveal
// which usernames exist.
func (s *Service) Login(ctx context.Context, req models.DummyLogin) (string, error) {
	const op = "auth.Login"

	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return "", fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}

	token, err := s.maker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// RequestPasswordReset generates a one-time code and emails it to the user.
// An unknown email is logged and reported as success to the caller, so the
// endpoint cannot be used to probe which addresses are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "auth.RequestPasswordReset"

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.log.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.otps.Set(otpKey(email), otp, otpTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notifier.Emit(models.EventOTP, email, models.NotificationPayload{
		Username: user.Username,
		OTP:      otp,
	})
	return nil
}

// ResetPassword verifies the code and replaces the password. The code is
// invalidated on success, so it cannot be replayed.
func (s *Service) ResetPassword(ctx context.Context, req models.DummyPasswordResetConfirm) error {
	const op = "auth.ResetPassword"

	var stored string
	found, err := s.otps.Get(otpKey(req.Email), &stored)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found || stored != req.OTP {
		return fmt.Errorf("%s: %w", op, apperr.ErrInvalidCredentials)
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.UID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.otps.Invalidate(otpKey(req.Email)); err != nil {
		s.log.Error("failed to invalidate reset code", sl.Err(err))
	}

	s.log.Info("password reset completed", slog.String("user_uid", user.UID))
	s.notifier.Emit(models.EventPasswordResetSuccess, req.Email, models.NotificationPayload{
		Username: user.Username,
	})
	return nil
}

// GetProfile returns the account with its current subscription attached.
func (s *Service) GetProfile(ctx context.Context, userUID string) (*models.User, error) {
	return s.repo.GetUser(ctx, userUID)
}

func otpKey(email string) string {
	return "password-reset:" + email
}

func generateOTP() (string, error) {
	digits := make([]byte, otpDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0') + byte(n.Int64())
	}
	return string(digits), nil
}
