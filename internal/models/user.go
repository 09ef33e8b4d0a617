// Package models contains the domain structures for users, reports, payment
// requests and contact messages, plus the Dummy* types used to receive and
// validate JSON request bodies before converting them into domain values.
package models

import "time"

// Access types recorded on purchased reports.
const (
	AccessFree         = "free"
	AccessIndividual   = "individual"
	AccessSubscription = "subscription"
)

// User represents a registered user of the service.
type User struct {
	UID                 string        // unique user identifier
	Email               string        // e-mail address (unique)
	Username            string        // username (unique)
	PasswordHash        string        // bcrypt hash of the password
	Role                string        // "admin" or "user"
	CreatedAt           time.Time     // registration time
	CurrentSubscription *Subscription // nil when the user has no current subscription
}

// Subscription is a plan snapshot owned by a user together with its quota
// counters. Invariant: ReportsUsed = PremiumUsed + BluechipUsed and every
// *Used <= *Quota. A user has at most one current subscription; activating a
// new one archives the previous record into history first.
type Subscription struct {
	ID              int
	UserUID         string
	PlanID          string
	PlanName        string
	Price           float64
	DurationMonths  int
	PurchaseDate    time.Time
	ExpiryDate      time.Time
	IsActive        bool
	IsCurrent       bool
	ReportsIncluded int
	ReportsUsed     int
	PremiumQuota    int
	PremiumUsed     int
	BluechipQuota   int
	BluechipUsed    int
}

// SubscriptionWithUser is a sweep row: the subscription joined with the
// owner's contact fields for notification payloads.
type SubscriptionWithUser struct {
	SubscriptionID int       `json:"subscription_id"`
	UserUID        string    `json:"user_uid"`
	PlanName       string    `json:"plan_name"`
	ExpiryDate     time.Time `json:"expiry_date"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
}

// PurchasedReport is one entry of a user's purchased-reports set, unique per
// (user, report). Entries are appended on approval or on subscription-funded
// access and never removed.
type PurchasedReport struct {
	ID           int
	UserUID      string
	ReportID     string
	PurchaseDate time.Time
	Price        float64
	AccessType   string // individual or subscription
}

// AdminStats are the dashboard aggregation counters.
type AdminStats struct {
	Users               int `json:"users"`
	Reports             int `json:"reports"`
	PendingRequests     int `json:"pending_requests"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	Contacts            int `json:"contacts"`
}

// PlanSnapshot is the plan definition frozen into a subscription payment
// request at submission time, so later plan edits do not change what the
// user paid for.
type PlanSnapshot struct {
	PlanID          string  `json:"plan_id" validate:"required"`
	PlanName        string  `json:"plan_name" validate:"required"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	DurationMonths  int     `json:"duration_months" validate:"required,gt=0"`
	ReportsIncluded int     `json:"reports_included" validate:"gte=0"`
	PremiumQuota    int     `json:"premium_quota" validate:"gte=0"`
	BluechipQuota   int     `json:"bluechip_quota" validate:"gte=0"`
}

// DummyRegister receives a signup JSON request.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin receives a login JSON request.
type DummyLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// DummyPasswordResetRequest receives a password reset initiation request.
type DummyPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DummyPasswordResetConfirm receives the OTP confirmation request.
type DummyPasswordResetConfirm struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
