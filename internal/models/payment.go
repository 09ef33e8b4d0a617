package models

import "time"

// Payment request types and statuses.
const (
	PaymentTypeReport       = "report"
	PaymentTypeSubscription = "subscription"

	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentRequest is a manual-review payment submission. Exactly one of
// ReportID / Plan is populated, matching PaymentType. Status transitions
// exactly once from pending to approved or rejected; approval applies the
// grant (purchase entry or subscription activation) in the same transaction.
type PaymentRequest struct {
	ID           string        `json:"id"`
	UserUID      string        `json:"user_uid"`
	PaymentType  string        `json:"payment_type"`
	ReportID     string        `json:"report_id,omitempty"`
	Plan         *PlanSnapshot `json:"plan,omitempty"`
	Amount       float64       `json:"amount"`
	Proof        string        `json:"proof"` // opaque proof-of-payment reference
	Status       string        `json:"status"`
	AdminComment string        `json:"admin_comment,omitempty"`
	ReviewedBy   string        `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// DummyPaymentSubmit receives a payment submission. ReportID is required for
// payment_type=report, Plan for payment_type=subscription; the service
// rejects mixed or missing payloads.
type DummyPaymentSubmit struct {
	PaymentType string        `json:"payment_type" validate:"required,oneof=report subscription"`
	ReportID    string        `json:"report_id,omitempty" validate:"omitempty,uuid"`
	Plan        *PlanSnapshot `json:"plan,omitempty"`
	Amount      float64       `json:"amount" validate:"required,gt=0"`
	Proof       string        `json:"proof" validate:"required"`
}

// DummyPaymentReview receives an admin review decision.
type DummyPaymentReview struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  string `json:"comment,omitempty"`
}

// DummyPaymentGrant receives an admin out-of-band grant: it creates a
// pending request on the user's behalf which still goes through review.
type DummyPaymentGrant struct {
	UserUID     string        `json:"user_uid" validate:"required,uuid"`
	PaymentType string        `json:"payment_type" validate:"required,oneof=report subscription"`
	ReportID    string        `json:"report_id,omitempty" validate:"omitempty,uuid"`
	Plan        *PlanSnapshot `json:"plan,omitempty"`
	Amount      float64       `json:"amount" validate:"gte=0"`
	Proof       string        `json:"proof" validate:"required"`
}
