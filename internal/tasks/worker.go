package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Sender delivers an HTML email
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a sender dialing the SMTP server for every message
func NewSMTPSender(host string, port int, username, password, from string) *smtpSender {
	return &smtpSender{host: host, port: port, username: username, password: password, from: from}
}

// Send sends one email
func (s *smtpSender) Send(to, subject, htmlBody string) error {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := mail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var (
	passwordResetTemplate = template.Must(template.New("reset").Parse(
		`<p>Hello {{.Username}},</p>
<p>We received a request to reset your StoryKeeper password. The link below is valid until {{.ExpiresAt.Format "2006-01-02 15:04 MST"}}.</p>
<p><a href="{{.ResetLink}}">Reset password</a></p>
<p>If you did not ask for it, you can ignore this email.</p>`))

	moderationTemplate = template.Must(template.New("moderation").Parse(
		`<p>Hello {{.Username}},</p>
{{if eq .Decision "approved"}}<p>Your story "{{.StoryTitle}}" was approved and is now published in the library.</p>
{{else}}<p>Your story "{{.StoryTitle}}" was not approved.</p>
{{if .Reason}}<p>Reason: {{.Reason}}</p>
{{end}}<p>You can edit it and submit it again.</p>
{{end}}`))
)

// Worker renders and sends the email jobs
type Worker struct {
	sender Sender
	logger *zap.Logger
}

// NewWorker creates a worker
func NewWorker(sender Sender, logger *zap.Logger) *Worker {
	return &Worker{sender: sender, logger: logger}
}

// Register adds the handlers to mux
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordReset, w.HandlePasswordReset)
	mux.HandleFunc(TypeModerationDecision, w.HandleModerationDecision)
}

// HandlePasswordReset sends the reset link
func (w *Worker) HandlePasswordReset(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never succeed, do not retry them
		return fmt.Errorf("failed to parse payload: %v: %w", err, asynq.SkipRetry)
	}

	body, err := render(passwordResetTemplate, payload)
	if err != nil {
		return err
	}

	if err := w.sender.Send(payload.Email, "Reset your StoryKeeper password", body); err != nil {
		w.logger.Error("failed to send password reset email", zap.String("email", payload.Email), zap.Error(err))
		return err
	}

	w.logger.Info("password reset email sent", zap.String("email", payload.Email))
	return nil
}

// HandleModerationDecision tells the owner what happened to the story
func (w *Worker) HandleModerationDecision(ctx context.Context, t *asynq.Task) error {
	var payload ModerationDecisionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to parse payload: %v: %w", err, asynq.SkipRetry)
	}

	body, err := render(moderationTemplate, payload)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Your story \"%s\" was %s", payload.StoryTitle, payload.Decision)
	if err := w.sender.Send(payload.Email, subject, body); err != nil {
		w.logger.Error("failed to send moderation email", zap.Int("story_id", payload.StoryID), zap.Error(err))
		return err
	}

	w.logger.Info("moderation email sent", zap.Int("story_id", payload.StoryID), zap.String("decision", payload.Decision))
	return nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
