package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/lib/jwt"
	"github.com/Manaslohe/TechReportProBE/internal/lib/password"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) UpdatePasswordHash(ctx context.Context, userUID, passwordHash string) error {
	return m.Called(ctx, userUID, passwordHash).Error(0)
}

type OTPStoreMock struct{ mock.Mock }

func (m *OTPStoreMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *OTPStoreMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *OTPStoreMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Emit(kind, email string, payload models.NotificationPayload) {
	m.Called(kind, email, payload)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const userUID = "11111111-1111-4111-8111-111111111111"

func newService(repo *RepoMock, otps *OTPStoreMock, notif *NotifierMock) *Service {
	return New(repo, otps, jwt.NewMaker("test-secret", time.Hour), notif, newNoopLogger())
}

func TestService_Register(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		// the hash is salted, so only its presence can be checked
		return u.Email == "alice@example.com" &&
			u.Username == "alice" &&
			u.Role == "user" &&
			u.PasswordHash != "" && u.PasswordHash != "s3cretpass"
	})).Return(userUID, nil).Once()
	notif.On("Emit", models.EventWelcome, "alice@example.com",
		models.NotificationPayload{Username: "alice"}).Once()

	svc := newService(repo, otps, notif)
	uid, err := svc.Register(context.Background(), models.DummyRegister{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "s3cretpass",
	})

	require.NoError(t, err)
	assert.Equal(t, userUID, uid)
	repo.AssertExpectations(t)
	notif.AssertExpectations(t)
}

func TestService_Register_TakenEmail(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	repo.On("RegisterUser", mock.Anything, mock.Anything).
		Return("", apperr.ErrValidation).Once()

	svc := newService(repo, otps, notif)
	_, err := svc.Register(context.Background(), models.DummyRegister{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "s3cretpass",
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	notif.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("s3cretpass")
	require.NoError(t, err)

	tests := []struct {
		name       string
		pass       string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "valid credentials",
			pass: "s3cretpass",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{UID: userUID, Username: "alice", Role: "user", PasswordHash: hash}, nil).Once()
			},
		},
		{
			name: "wrong password",
			pass: "not-the-password",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(&models.User{UID: userUID, Username: "alice", Role: "user", PasswordHash: hash}, nil).Once()
			},
			wantErr: apperr.ErrInvalidCredentials,
		},
		{
			name: "unknown user maps to invalid credentials",
			pass: "s3cretpass",
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByUsername", mock.Anything, "alice").
					Return(nil, apperr.ErrNotFound).Once()
			},
			wantErr: apperr.ErrInvalidCredentials,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := newService(repo, new(OTPStoreMock), new(NotifierMock))

			token, err := svc.Login(context.Background(), models.DummyLogin{
				Username: "alice",
				Password: tt.pass,
			})
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				claims, err := jwt.NewMaker("test-secret", time.Hour).ParseToken(token)
				require.NoError(t, err)
				assert.Equal(t, "alice", claims.Username)
				assert.Equal(t, userUID, claims.UserUID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_RequestPasswordReset(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	repo.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{UID: userUID, Username: "alice", Email: "alice@example.com"}, nil).Once()

	var storedOTP string
	otps.On("Set", "password-reset:alice@example.com", mock.MatchedBy(func(v any) bool {
		otp, ok := v.(string)
		if !ok || len(otp) != 6 {
			return false
		}
		storedOTP = otp
		return true
	}), 10*time.Minute).Return(nil).Once()
	notif.On("Emit", models.EventOTP, "alice@example.com",
		mock.MatchedBy(func(p models.NotificationPayload) bool {
			return p.Username == "alice" && p.OTP == storedOTP && p.OTP != ""
		})).Once()

	svc := newService(repo, otps, notif)
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "alice@example.com"))

	repo.AssertExpectations(t)
	otps.AssertExpectations(t)
	notif.AssertExpectations(t)
}

func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").
		Return(nil, apperr.ErrNotFound).Once()

	svc := newService(repo, otps, notif)
	// unknown addresses succeed silently so the endpoint cannot probe accounts
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "ghost@example.com"))

	otps.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	notif.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ResetPassword(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	otps.On("Get", "password-reset:alice@example.com", mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*string) = "123456"
		}).Return(true, nil).Once()
	repo.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&models.User{UID: userUID, Username: "alice", Email: "alice@example.com"}, nil).Once()
	repo.On("UpdatePasswordHash", mock.Anything, userUID, mock.MatchedBy(func(hash string) bool {
		return password.CompareHash(hash, "newpassword1") == nil
	})).Return(nil).Once()
	otps.On("Invalidate", "password-reset:alice@example.com").Return(nil).Once()
	notif.On("Emit", models.EventPasswordResetSuccess, "alice@example.com",
		models.NotificationPayload{Username: "alice"}).Once()

	svc := newService(repo, otps, notif)
	err := svc.ResetPassword(context.Background(), models.DummyPasswordResetConfirm{
		Email:       "alice@example.com",
		OTP:         "123456",
		NewPassword: "newpassword1",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	otps.AssertExpectations(t)
	notif.AssertExpectations(t)
}

func TestService_ResetPassword_WrongOTP(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	otps.On("Get", "password-reset:alice@example.com", mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*string) = "123456"
		}).Return(true, nil).Once()

	svc := newService(repo, otps, notif)
	err := svc.ResetPassword(context.Background(), models.DummyPasswordResetConfirm{
		Email:       "alice@example.com",
		OTP:         "654321",
		NewPassword: "newpassword1",
	})

	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	repo.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	otps.AssertNotCalled(t, "Invalidate", mock.Anything)
}

func TestService_ResetPassword_MissingOTP(t *testing.T) {
	repo := new(RepoMock)
	otps := new(OTPStoreMock)
	notif := new(NotifierMock)

	otps.On("Get", "password-reset:alice@example.com", mock.Anything).
		Return(false, nil).Once()

	svc := newService(repo, otps, notif)
	err := svc.ResetPassword(context.Background(), models.DummyPasswordResetConfirm{
		Email:       "alice@example.com",
		OTP:         "123456",
		NewPassword: "newpassword1",
	})

	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	repo.AssertNotCalled(t, "GetUserByEmail", mock.Anything, mock.Anything)
}
