package models

import "time"

// Report types. Free reports are accessible without authentication and never
// consume quota; premium and bluechip each draw from their own quota bucket.
const (
	ReportTypeFree     = "free"
	ReportTypePremium  = "premium"
	ReportTypeBluechip = "bluechip"
)

// Report is a market-research report. The PDF bytes live in a separate blob
// column and are fetched only on download; metadata is immutable after
// upload except for admin deletion.
type Report struct {
	ID          string
	Title       string
	Sector      string // free-form category/sector
	ReportType  string // free, premium or bluechip
	ContentType string
	Price       float64
	UploadedAt  time.Time
}

// DummyReportUpload receives the multipart metadata of an admin upload.
// ContentType is set by the handler from the uploaded file, never by the
// client fields.
type DummyReportUpload struct {
	Title       string  `json:"title" validate:"required"`
	Sector      string  `json:"sector" validate:"required"`
	ReportType  string  `json:"report_type" validate:"required,oneof=free premium bluechip"`
	Price       float64 `json:"price" validate:"gte=0"`
	ContentType string  `json:"-"`
}

// AccessDecision is the result of an access check for a (user, report) pair.
type AccessDecision struct {
	HasAccess  bool   `json:"has_access"`
	AccessType string `json:"access_type,omitempty"` // free, individual or subscription
	Reason     string `json:"reason,omitempty"`      // set when access is denied
}

// Deny reasons, in the priority order the engine reports them.
const (
	ReasonNoSubscription      = "no subscription"
	ReasonSubscriptionExpired = "subscription expired"
	ReasonQuotaExhausted      = "quota exhausted"
)
