package models

// Notification event kinds. Each kind maps to one email template in the
// sender worker.
const (
	EventWelcome              = "welcome"
	EventOTP                  = "otp"
	EventPasswordResetSuccess = "password-reset-success"
	EventPurchaseApproved     = "purchase-approved"
	EventPurchaseRejected     = "purchase-rejected"
	EventReportUnlocked       = "subscription-report-unlocked"
	EventSubscriptionExpired  = "subscription-expired"
	EventSubscriptionExpiring = "subscription-expiring-soon"
	EventContactSubmission    = "contact-submission"
)

// NotificationEvent is the message published to RabbitMQ. The sender picks
// the template by Kind; Payload carries the template fields.
type NotificationEvent struct {
	Kind    string              `json:"kind"`
	Email   string              `json:"email"`
	Payload NotificationPayload `json:"payload"`
}

// NotificationPayload is a superset of the fields the email templates use;
// producers fill only what their kind needs.
type NotificationPayload struct {
	Username     string  `json:"username,omitempty"`
	OTP          string  `json:"otp,omitempty"`
	ReportTitle  string  `json:"report_title,omitempty"`
	PlanName     string  `json:"plan_name,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	AdminComment string  `json:"admin_comment,omitempty"`
	ExpiryDate   string  `json:"expiry_date,omitempty"`
	DaysLeft     int     `json:"days_left,omitempty"`
	ContactName  string  `json:"contact_name,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// RoutingKey returns the exchange routing key for an event kind, grouping
// kinds by template family / consumer queue.
func RoutingKey(kind string) string {
	switch kind {
	case EventWelcome, EventOTP, EventPasswordResetSuccess:
		return "account"
	case EventPurchaseApproved, EventPurchaseRejected, EventReportUnlocked:
		return "purchase"
	case EventSubscriptionExpired, EventSubscriptionExpiring:
		return "subscription"
	case EventContactSubmission:
		return "contact"
	default:
		return "account"
	}
}
