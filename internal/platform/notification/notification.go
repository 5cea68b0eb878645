// Package notification sends outbound messages rendered from {{key}}
// templates. Delivery goes through an EmailSender: SMTP in production, a
// zerolog-backed sender when no relay is configured, and a recording mock in
// tests.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Message
// ---------------------------------------------------------------------------

// Status values recorded on a Message after a send attempt.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Message is a single rendered outbound email.
type Message struct {
	ID           string            `json:"id"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       string            `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Sender Interface
// ---------------------------------------------------------------------------

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// Template Engine
// ---------------------------------------------------------------------------

// TemplatePathwayTransfer informs a referring clinician that their patient
// moved to a new care pathway.
const TemplatePathwayTransfer = "pathway-transfer"

// Template defines a reusable message template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine renders the built-in templates with data. The set is fixed
// at construction, so Render is safe for concurrent use.
type TemplateEngine struct {
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplatePathwayTransfer,
			Name:    "Pathway Transfer",
			Subject: "Care pathway update for {{patient_name}} ({{patient_identifier}})",
			Body: "Dear {{recipient_name}},\n\n" +
				"Your patient {{patient_name}} ({{patient_identifier}}) has been moved to the {{pathway}} pathway.\n" +
				"Reason: {{reason}}\n" +
				"{{appointment_summary}}\n\n" +
				"This message is for information only.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	t, ok := e.templates[templateID]
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Mailer
// ---------------------------------------------------------------------------

// Mailer renders templates and hands the result to an EmailSender.
type Mailer struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
}

// NewMailer constructs a Mailer.
func NewMailer(sender EmailSender, tpl *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, templates: tpl, logger: logger}
}

// SendFromTemplate renders templateID and sends it to recipient. The returned
// Message carries the outcome even when sending fails; it is nil only when
// rendering fails.
func (m *Mailer) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Message, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, errors.New("recipient is required")
	}
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	msg := &Message{
		ID:           uuid.New().String(),
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
		CreatedAt:    time.Now().UTC(),
	}

	if err := m.sender.SendEmail(ctx, recipient, subject, body); err != nil {
		msg.Status = StatusFailed
		msg.Error = err.Error()
		m.logger.Warn().Err(err).Str("template", templateID).Str("message_id", msg.ID).Msg("email send failed")
		return msg, fmt.Errorf("send email: %w", err)
	}

	sentAt := time.Now().UTC()
	msg.Status = StatusSent
	msg.SentAt = &sentAt
	m.logger.Debug().Str("template", templateID).Str("message_id", msg.ID).Msg("email sent")
	return msg, nil
}

// ---------------------------------------------------------------------------
// Mock Sender (test double)
// ---------------------------------------------------------------------------

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
