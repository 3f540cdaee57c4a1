package helpers

import (
	"fmt"
	"strings"

	"github.com/campusconnect/campus-connect/pkg/mailer"
	mailtpl "github.com/campusconnect/campus-connect/pkg/mailer/templates"
)

// SubjectFor picks the subject line for a templated job.
func SubjectFor(job *mailer.EmailJob) string {
	if job.Subject != "" {
		return job.Subject
	}
	switch strings.ToLower(job.Template) {
	case mailtpl.VerifyEmail:
		return "Verify your campus email address"
	case mailtpl.Welcome:
		return "Welcome to " + fmt.Sprintf("%v", orDefault(job.Data["AppName"], "Campus Connect"))
	default:
		return "Notification"
	}
}

// EnsureRecipient fills Email/RecipientEmail from job.To when absent.
func EnsureRecipient(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}

func orDefault(v any, def string) any {
	if v == nil || fmt.Sprintf("%v", v) == "" {
		return def
	}
	return v
}
