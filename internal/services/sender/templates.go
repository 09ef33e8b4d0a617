package sender

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Manaslohe/TechReportProBE/internal/models"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[string]emailTemplate{
	models.EventWelcome: {
		subject: "Welcome to TechReport Pro",
		body: mustParse("welcome", `Hi {{.Username}},

Your account is ready. Browse the catalog and open any free report right away.

TechReport Pro
`),
	},
	models.EventOTP: {
		subject: "Your password reset code",
		body: mustParse("otp", `Hi {{.Username}},

Your password reset code is {{.OTP}}. It expires in 10 minutes.
If you did not request a reset, ignore this message.

TechReport Pro
`),
	},
	models.EventPasswordResetSuccess: {
		subject: "Your password was changed",
		body: mustParse("password-reset-success", `Hi {{.Username}},

The password for your account was just changed. If this was not you,
contact support immediately.

TechReport Pro
`),
	},
	models.EventPurchaseApproved: {
		subject: "Payment approved",
		body: mustParse("purchase-approved", `Hi {{.Username}},

Your payment of {{printf "%.2f" .Amount}} was approved.
{{if .ReportTitle}}The report "{{.ReportTitle}}" is now available in your library.{{end}}{{if .PlanName}}Your {{.PlanName}} subscription is now active.{{end}}
{{if .AdminComment}}Reviewer note: {{.AdminComment}}{{end}}

TechReport Pro
`),
	},
	models.EventPurchaseRejected: {
		subject: "Payment could not be verified",
		body: mustParse("purchase-rejected", `Hi {{.Username}},

We could not verify your payment of {{printf "%.2f" .Amount}}.
{{if .AdminComment}}Reviewer note: {{.AdminComment}}{{end}}
You can submit a new request with corrected payment proof.

TechReport Pro
`),
	},
	models.EventReportUnlocked: {
		subject: "Report unlocked",
		body: mustParse("report-unlocked", `Hi {{.Username}},

The report "{{.ReportTitle}}" was unlocked with your subscription and is
now permanently available in your library.

TechReport Pro
`),
	},
	models.EventSubscriptionExpired: {
		subject: "Your subscription has expired",
		body: mustParse("subscription-expired", `Hi {{.Username}},

Your {{.PlanName}} subscription expired on {{.ExpiryDate}}.
Reports you already unlocked stay available; renew to keep unlocking new ones.

TechReport Pro
`),
	},
	models.EventSubscriptionExpiring: {
		subject: "Your subscription expires soon",
		body: mustParse("subscription-expiring", `Hi {{.Username}},

Your {{.PlanName}} subscription expires on {{.ExpiryDate}} ({{.DaysLeft}} day(s) left).
Renew now to keep your access uninterrupted.

TechReport Pro
`),
	},
	models.EventContactSubmission: {
		subject: "New contact form submission",
		body: mustParse("contact-submission", `New message from {{.ContactName}}:

{{.Message}}
`),
	},
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

func render(kind string, payload models.NotificationPayload) (string, string, error) {
	tpl, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("no template for event kind %q", kind)
	}
	var b strings.Builder
	if err := tpl.body.Execute(&b, payload); err != nil {
		return "", "", err
	}
	return tpl.subject, b.String(), nil
}
