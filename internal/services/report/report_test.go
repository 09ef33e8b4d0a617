package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Manaslohe/TechReportProBE/internal/apperr"
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateReport(ctx context.Context, report models.Report, content []byte) (string, error) {
	args := m.Called(ctx, report, content)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetReport(ctx context.Context, id string) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *RepoMock) GetReportContent(ctx context.Context, id string) ([]byte, string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *RepoMock) ListReports(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Report), args.Error(1)
}

func (m *RepoMock) RemoveReport(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type AccessMock struct{ mock.Mock }

func (m *AccessMock) CheckAccess(ctx context.Context, userUID, reportID string) (*models.AccessDecision, error) {
	args := m.Called(ctx, userUID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessDecision), args.Error(1)
}

func (m *AccessMock) ConsumeQuota(ctx context.Context, userUID, reportID string) (bool, error) {
	args := m.Called(ctx, userUID, reportID)
	return args.Bool(0), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Emit(kind, email string, payload models.NotificationPayload) {
	m.Called(kind, email, payload)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const (
	userUID  = "11111111-1111-4111-8111-111111111111"
	reportID = "22222222-2222-4222-8222-222222222222"
)

var pdfBytes = []byte("%PDF-1.7 fake")

func TestService_Download(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, a *AccessMock, n *NotifierMock)
		wantErr    error
	}{
		{
			name: "free access serves without charging",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: true, AccessType: models.AccessFree}, nil).Once()
				r.On("GetReportContent", mock.Anything, reportID).
					Return(pdfBytes, "application/pdf", nil).Once()
			},
		},
		{
			name: "subscription access charges and notifies on first unlock",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: true, AccessType: models.AccessSubscription}, nil).Once()
				a.On("ConsumeQuota", mock.Anything, userUID, reportID).
					Return(true, nil).Once()
				r.On("GetUser", mock.Anything, userUID).
					Return(&models.User{UID: userUID, Username: "alice", Email: "alice@example.com"}, nil).Once()
				r.On("GetReport", mock.Anything, reportID).
					Return(&models.Report{ID: reportID, Title: "Steel Outlook 2024"}, nil).Once()
				n.On("Emit", models.EventReportUnlocked, "alice@example.com",
					mock.MatchedBy(func(p models.NotificationPayload) bool {
						return p.ReportTitle == "Steel Outlook 2024"
					})).Once()
				r.On("GetReportContent", mock.Anything, reportID).
					Return(pdfBytes, "application/pdf", nil).Once()
			},
		},
		{
			name: "repeat unlocked download does not notify again",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: true, AccessType: models.AccessSubscription}, nil).Once()
				a.On("ConsumeQuota", mock.Anything, userUID, reportID).
					Return(false, nil).Once()
				r.On("GetReportContent", mock.Anything, reportID).
					Return(pdfBytes, "application/pdf", nil).Once()
			},
		},
		{
			name: "no subscription denies",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: false, Reason: models.ReasonNoSubscription}, nil).Once()
			},
			wantErr: apperr.ErrNoSubscription,
		},
		{
			name: "expired subscription denies",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: false, Reason: models.ReasonSubscriptionExpired}, nil).Once()
			},
			wantErr: apperr.ErrSubscriptionExpired,
		},
		{
			name: "exhausted quota denies",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: false, Reason: models.ReasonQuotaExhausted}, nil).Once()
			},
			wantErr: apperr.ErrQuotaExhausted,
		},
		{
			name: "lost charge race denies",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(&models.AccessDecision{HasAccess: true, AccessType: models.AccessSubscription}, nil).Once()
				a.On("ConsumeQuota", mock.Anything, userUID, reportID).
					Return(false, apperr.ErrQuotaExhausted).Once()
			},
			wantErr: apperr.ErrQuotaExhausted,
		},
		{
			name: "missing report",
			setupMocks: func(r *RepoMock, a *AccessMock, n *NotifierMock) {
				a.On("CheckAccess", mock.Anything, userUID, reportID).
					Return(nil, apperr.ErrNotFound).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			acc := new(AccessMock)
			cache := new(CacheMock)
			notif := new(NotifierMock)
			tt.setupMocks(repo, acc, notif)
			svc := New(repo, acc, cache, notif, newNoopLogger())

			content, contentType, err := svc.Download(context.Background(), userUID, reportID)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, content)
			} else {
				require.NoError(t, err)
				assert.Equal(t, pdfBytes, content)
				assert.Equal(t, "application/pdf", contentType)
			}
			repo.AssertExpectations(t)
			acc.AssertExpectations(t)
			notif.AssertExpectations(t)
		})
	}
}

func TestService_List_CacheHit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	cached := []*models.Report{{ID: reportID, Title: "Cached"}}
	cache.On("Get", "reports:list", mock.Anything).
		Run(func(args mock.Arguments) {
			*args.Get(1).(*[]*models.Report) = cached
		}).Return(true, nil).Once()

	svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
	got, err := svc.List(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, cached, got)
	repo.AssertNotCalled(t, "ListReports", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestService_List_CacheMissFillsCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	fromDB := []*models.Report{{ID: reportID, Title: "Fresh"}}
	cache.On("Get", "reports:list", mock.Anything).Return(false, nil).Once()
	repo.On("ListReports", mock.Anything, 100, 0).Return(fromDB, nil).Once()
	cache.On("Set", "reports:list", fromDB, 5*time.Minute).Return(nil).Once()

	svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
	got, err := svc.List(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_List_CacheErrorFallsThrough(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	fromDB := []*models.Report{{ID: reportID}}
	cache.On("Get", "reports:list", mock.Anything).
		Return(false, errors.New("redis down")).Once()
	repo.On("ListReports", mock.Anything, 100, 0).Return(fromDB, nil).Once()
	cache.On("Set", "reports:list", fromDB, 5*time.Minute).Return(nil).Once()

	svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
	got, err := svc.List(context.Background(), 0, 0)

	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
}

func TestService_List_LaterPageSkipsCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	fromDB := []*models.Report{{ID: reportID}}
	repo.On("ListReports", mock.Anything, 20, 40).Return(fromDB, nil).Once()

	svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
	got, err := svc.List(context.Background(), 20, 40)

	require.NoError(t, err)
	assert.Equal(t, fromDB, got)
	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Upload_InvalidatesCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	repo.On("CreateReport", mock.Anything, mock.MatchedBy(func(r models.Report) bool {
		return r.Title == "Steel Outlook 2024" &&
			r.ReportType == models.ReportTypePremium &&
			r.ContentType == "application/pdf"
	}), pdfBytes).Return(reportID, nil).Once()
	cache.On("Invalidate", "reports:list").Return(nil).Once()
	repo.On("GetReport", mock.Anything, reportID).
		Return(&models.Report{ID: reportID, Title: "Steel Outlook 2024"}, nil).Once()

	svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
	got, err := svc.Upload(context.Background(), models.DummyReportUpload{
		Title:       "Steel Outlook 2024",
		Sector:      "metals",
		ReportType:  models.ReportTypePremium,
		Price:       499,
		ContentType: "application/pdf",
	}, pdfBytes)

	require.NoError(t, err)
	assert.Equal(t, reportID, got.ID)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	t.Run("removes and invalidates", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("RemoveReport", mock.Anything, reportID).Return(1, nil).Once()
		cache.On("Invalidate", "reports:list").Return(nil).Once()

		svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
		require.NoError(t, svc.Delete(context.Background(), reportID))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("zero rows means not found", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		repo.On("RemoveReport", mock.Anything, reportID).Return(0, nil).Once()

		svc := New(repo, new(AccessMock), cache, new(NotifierMock), newNoopLogger())
		err := svc.Delete(context.Background(), reportID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything)
	})
}
