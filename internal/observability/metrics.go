package observability

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes recorded in contactform_submissions_total.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected" // validation or token failure
	OutcomeFailed    = "failed"   // persistence or send failure
)

var (
	// Submissions counts contact-form submissions by outcome.
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactform_submissions_total",
			Help: "Contact form submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// SubmissionErrors counts user-facing error codes.
	SubmissionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactform_submission_errors_total",
			Help: "Contact form errors by code.",
		},
		[]string{"code"},
	)

	// Emails counts outgoing mails by template and result (sent|failed).
	Emails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactform_emails_total",
			Help: "Emails sent by the contact form.",
		},
		[]string{"template", "result"},
	)
)

func init() {
	prometheus.MustRegister(Submissions, SubmissionErrors, Emails)
}
