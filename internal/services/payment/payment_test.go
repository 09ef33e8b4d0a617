package payment

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
	"github.com/Manaslohe/TechReportProBE/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) GetReport(ctx context.Context, id string) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *RepoMock) GetPurchasedReport(ctx context.Context, userUID, reportID string) (*models.PurchasedReport, error) {
	args := m.Called(ctx, userUID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchasedReport), args.Error(1)
}

func (m *RepoMock) GetCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *RepoMock) CreatePaymentRequest(ctx context.Context, req models.PaymentRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetPaymentRequest(ctx context.Context, id string) (*models.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentRequest), args.Error(1)
}

func (m *RepoMock) HasPendingReportRequest(ctx context.Context, userUID, reportID string) (bool, error) {
	args := m.Called(ctx, userUID, reportID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) HasPendingSubscriptionRequest(ctx context.Context, userUID string) (bool, error) {
	args := m.Called(ctx, userUID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) ListPaymentRequestsByUser(ctx context.Context, userUID string) ([]*models.PaymentRequest, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRequest), args.Error(1)
}

func (m *RepoMock) ListPaymentRequests(ctx context.Context, status string, limit, offset int) ([]*models.PaymentRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentRequest), args.Error(1)
}

func (m *RepoMock) RejectPaymentRequest(ctx context.Context, id, comment, reviewerUID string, now time.Time) error {
	return m.Called(ctx, id, comment, reviewerUID, now).Error(0)
}

func (m *RepoMock) ApproveReportPaymentRequest(ctx context.Context, req *models.PaymentRequest, comment, reviewerUID string, now time.Time) error {
	return m.Called(ctx, req, comment, reviewerUID, now).Error(0)
}

func (m *RepoMock) ApproveSubscriptionPaymentRequest(ctx context.Context, req *models.PaymentRequest, sub models.Subscription, comment, reviewerUID string, now time.Time) error {
	return m.Called(ctx, req, sub, comment, reviewerUID, now).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Emit(kind, email string, payload models.NotificationPayload) {
	m.Called(kind, email, payload)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

const (
	userUID     = "11111111-1111-4111-8111-111111111111"
	reportID    = "22222222-2222-4222-8222-222222222222"
	requestID   = "33333333-3333-4333-8333-333333333333"
	reviewerUID = "44444444-4444-4444-8444-444444444444"
)

func proPlan() *models.PlanSnapshot {
	return &models.PlanSnapshot{
		PlanID:          "plan-pro",
		PlanName:        "Pro",
		Price:           4999,
		DurationMonths:  1,
		ReportsIncluded: 7,
		PremiumQuota:    5,
		BluechipQuota:   2,
	}
}

func TestService_Submit(t *testing.T) {
	reportReq := models.DummyPaymentSubmit{
		PaymentType: models.PaymentTypeReport,
		ReportID:    reportID,
		Amount:      499,
		Proof:       "txn-123",
	}
	subReq := models.DummyPaymentSubmit{
		PaymentType: models.PaymentTypeSubscription,
		Plan:        proPlan(),
		Amount:      4999,
		Proof:       "txn-456",
	}

	tests := []struct {
		name       string
		req        models.DummyPaymentSubmit
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "report request created",
			req:  reportReq,
			setupMocks: func(r *RepoMock) {
				r.On("GetReport", mock.Anything, reportID).
					Return(&models.Report{ID: reportID, ReportType: models.ReportTypePremium}, nil).Once()
				r.On("GetPurchasedReport", mock.Anything, userUID, reportID).
					Return(nil, nil).Once()
				r.On("HasPendingReportRequest", mock.Anything, userUID, reportID).
					Return(false, nil).Once()
				r.On("CreatePaymentRequest", mock.Anything, mock.MatchedBy(func(req models.PaymentRequest) bool {
					return req.UserUID == userUID &&
						req.PaymentType == models.PaymentTypeReport &&
						req.Status == models.PaymentStatusPending
				})).Return(requestID, nil).Once()
				r.On("GetPaymentRequest", mock.Anything, requestID).
					Return(&models.PaymentRequest{ID: requestID, Status: models.PaymentStatusPending}, nil).Once()
			},
		},
		{
			name: "payload must match type",
			req: models.DummyPaymentSubmit{
				PaymentType: models.PaymentTypeReport,
				Plan:        proPlan(),
				ReportID:    reportID,
				Amount:      499,
				Proof:       "txn",
			},
			setupMocks: func(_ *RepoMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name: "already purchased",
			req:  reportReq,
			setupMocks: func(r *RepoMock) {
				r.On("GetReport", mock.Anything, reportID).
					Return(&models.Report{ID: reportID, ReportType: models.ReportTypePremium}, nil).Once()
				r.On("GetPurchasedReport", mock.Anything, userUID, reportID).
					Return(&models.PurchasedReport{UserUID: userUID, ReportID: reportID}, nil).Once()
			},
			wantErr: apperr.ErrAlreadyPurchased,
		},
		{
			name: "duplicate pending report request",
			req:  reportReq,
			setupMocks: func(r *RepoMock) {
				r.On("GetReport", mock.Anything, reportID).
					Return(&models.Report{ID: reportID, ReportType: models.ReportTypePremium}, nil).Once()
				r.On("GetPurchasedReport", mock.Anything, userUID, reportID).
					Return(nil, nil).Once()
				r.On("HasPendingReportRequest", mock.Anything, userUID, reportID).
					Return(true, nil).Once()
			},
			wantErr: apperr.ErrDuplicateRequest,
		},
		{
			name: "active subscription blocks a new one",
			req:  subReq,
			setupMocks: func(r *RepoMock) {
				r.On("GetCurrentSubscription", mock.Anything, userUID).
					Return(&models.Subscription{
						IsActive:   true,
						ExpiryDate: fixedNow.AddDate(0, 0, 10),
					}, nil).Once()
			},
			wantErr: apperr.ErrActiveSubscriptionExists,
		},
		{
			name: "expired current subscription does not block",
			req:  subReq,
			setupMocks: func(r *RepoMock) {
				r.On("GetCurrentSubscription", mock.Anything, userUID).
					Return(&models.Subscription{
						IsActive:   true,
						ExpiryDate: fixedNow.Add(-time.Hour),
					}, nil).Once()
				r.On("HasPendingSubscriptionRequest", mock.Anything, userUID).
					Return(false, nil).Once()
				r.On("CreatePaymentRequest", mock.Anything, mock.Anything).
					Return(requestID, nil).Once()
				r.On("GetPaymentRequest", mock.Anything, requestID).
					Return(&models.PaymentRequest{ID: requestID}, nil).Once()
			},
		},
		{
			name: "lost insert race maps to duplicate",
			req:  subReq,
			setupMocks: func(r *RepoMock) {
				r.On("GetCurrentSubscription", mock.Anything, userUID).
					Return(nil, nil).Once()
				r.On("HasPendingSubscriptionRequest", mock.Anything, userUID).
					Return(false, nil).Once()
				r.On("CreatePaymentRequest", mock.Anything, mock.Anything).
					Return("", apperr.ErrDuplicateRequest).Once()
			},
			wantErr: apperr.ErrDuplicateRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			notif := new(NotifierMock)
			tt.setupMocks(repo)
			svc := New(repo, notif, newNoopLogger(), fixedClock)

			got, err := svc.Submit(context.Background(), userUID, tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Review_ApproveSubscription(t *testing.T) {
	repo := new(RepoMock)
	notif := new(NotifierMock)
	pending := &models.PaymentRequest{
		ID:          requestID,
		UserUID:     userUID,
		PaymentType: models.PaymentTypeSubscription,
		Plan:        proPlan(),
		Amount:      4999,
		Status:      models.PaymentStatusPending,
	}

	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(pending, nil).Once()
	repo.On("ApproveSubscriptionPaymentRequest", mock.Anything, pending,
		mock.MatchedBy(func(sub models.Subscription) bool {
			// purchase on 2024-01-15, one month term
			return sub.UserUID == userUID &&
				sub.PlanName == "Pro" &&
				sub.IsActive && sub.IsCurrent &&
				sub.ExpiryDate.Equal(time.Date(2024, time.February, 15, 10, 0, 0, 0, time.UTC)) &&
				sub.PremiumUsed == 0 && sub.BluechipUsed == 0 && sub.ReportsUsed == 0
		}), "looks good", reviewerUID, fixedNow).Return(nil).Once()
	repo.On("GetUser", mock.Anything, userUID).
		Return(&models.User{UID: userUID, Username: "alice", Email: "alice@example.com"}, nil).Once()
	notif.On("Emit", models.EventPurchaseApproved, "alice@example.com", mock.Anything).Once()
	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(&models.PaymentRequest{ID: requestID, Status: models.PaymentStatusApproved}, nil).Once()

	svc := New(repo, notif, newNoopLogger(), fixedClock)
	got, err := svc.Review(context.Background(), requestID,
		models.DummyPaymentReview{Decision: models.PaymentStatusApproved, Comment: "looks good"}, reviewerUID)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, got.Status)
	repo.AssertExpectations(t)
	notif.AssertExpectations(t)
}

func TestService_Review_Reject(t *testing.T) {
	repo := new(RepoMock)
	notif := new(NotifierMock)
	pending := &models.PaymentRequest{
		ID:          requestID,
		UserUID:     userUID,
		PaymentType: models.PaymentTypeReport,
		ReportID:    reportID,
		Amount:      499,
		Status:      models.PaymentStatusPending,
	}

	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(pending, nil).Once()
	repo.On("RejectPaymentRequest", mock.Anything, requestID, "proof unreadable", reviewerUID, fixedNow).
		Return(nil).Once()
	repo.On("GetUser", mock.Anything, userUID).
		Return(&models.User{UID: userUID, Username: "alice", Email: "alice@example.com"}, nil).Once()
	repo.On("GetReport", mock.Anything, reportID).
		Return(&models.Report{ID: reportID, Title: "Steel Outlook 2024"}, nil).Once()
	notif.On("Emit", models.EventPurchaseRejected, "alice@example.com",
		mock.MatchedBy(func(p models.NotificationPayload) bool {
			return p.ReportTitle == "Steel Outlook 2024" && p.AdminComment == "proof unreadable"
		})).Once()
	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(&models.PaymentRequest{ID: requestID, Status: models.PaymentStatusRejected}, nil).Once()

	svc := New(repo, notif, newNoopLogger(), fixedClock)
	got, err := svc.Review(context.Background(), requestID,
		models.DummyPaymentReview{Decision: models.PaymentStatusRejected, Comment: "proof unreadable"}, reviewerUID)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, got.Status)
	repo.AssertExpectations(t)
	notif.AssertExpectations(t)
}

func TestService_Review_AlreadyProcessed(t *testing.T) {
	repo := new(RepoMock)
	notif := new(NotifierMock)
	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(&models.PaymentRequest{ID: requestID, Status: models.PaymentStatusApproved}, nil).Once()

	svc := New(repo, notif, newNoopLogger(), fixedClock)
	_, err := svc.Review(context.Background(), requestID,
		models.DummyPaymentReview{Decision: models.PaymentStatusApproved}, reviewerUID)

	assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
	repo.AssertExpectations(t)
}

func TestService_Review_LostCASRace(t *testing.T) {
	// a concurrent reviewer flipped the status between the read and the CAS
	repo := new(RepoMock)
	notif := new(NotifierMock)
	pending := &models.PaymentRequest{
		ID:          requestID,
		UserUID:     userUID,
		PaymentType: models.PaymentTypeReport,
		ReportID:    reportID,
		Status:      models.PaymentStatusPending,
	}
	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(pending, nil).Once()
	repo.On("ApproveReportPaymentRequest", mock.Anything, pending, "", reviewerUID, fixedNow).
		Return(apperr.ErrAlreadyProcessed).Once()

	svc := New(repo, notif, newNoopLogger(), fixedClock)
	_, err := svc.Review(context.Background(), requestID,
		models.DummyPaymentReview{Decision: models.PaymentStatusApproved}, reviewerUID)

	assert.ErrorIs(t, err, apperr.ErrAlreadyProcessed)
	repo.AssertExpectations(t)
	notif.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_GrantByAdmin(t *testing.T) {
	repo := new(RepoMock)
	notif := new(NotifierMock)

	repo.On("GetUser", mock.Anything, userUID).
		Return(&models.User{UID: userUID, Username: "alice", Email: "alice@example.com"}, nil).Once()
	repo.On("GetReport", mock.Anything, reportID).
		Return(&models.Report{ID: reportID, ReportType: models.ReportTypePremium}, nil).Once()
	repo.On("GetPurchasedReport", mock.Anything, userUID, reportID).
		Return(nil, nil).Once()
	repo.On("HasPendingReportRequest", mock.Anything, userUID, reportID).
		Return(false, nil).Once()
	repo.On("CreatePaymentRequest", mock.Anything, mock.Anything).
		Return(requestID, nil).Once()
	repo.On("GetPaymentRequest", mock.Anything, requestID).
		Return(&models.PaymentRequest{ID: requestID, Status: models.PaymentStatusPending}, nil).Once()

	svc := New(repo, notif, newNoopLogger(), fixedClock)
	got, err := svc.GrantByAdmin(context.Background(), models.DummyPaymentGrant{
		UserUID:     userUID,
		PaymentType: models.PaymentTypeReport,
		ReportID:    reportID,
		Amount:      499,
		Proof:       "verified offline",
	})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	repo.AssertExpectations(t)
}

func TestService_GrantByAdmin_UnknownUser(t *testing.T) {
	repo := new(RepoMock)
	notif := new(NotifierMock)
	repo.On("GetUser", mock.Anything, userUID).
		Return(nil, apperr.ErrNotFound).Once()

	svc := New(repo, notif, newNoopLogger(), fixedClock)
	_, err := svc.GrantByAdmin(context.Background(), models.DummyPaymentGrant{
		UserUID:     userUID,
		PaymentType: models.PaymentTypeReport,
		ReportID:    reportID,
		Proof:       "x",
	})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	repo.AssertExpectations(t)
}
