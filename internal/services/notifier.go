package services

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"gopkg.in/gomail.v2"

	"github.com/stewardbooks/backend/internal/config"
	"github.com/stewardbooks/backend/internal/logger"
)

// Notification kinds dispatched after a successful commit.
const (
	NotifyIncomeRecorded        = "income.recorded"
	NotifyReimbursementApproved = "reimbursement.approved"
	NotifyReimbursementRejected = "reimbursement.rejected"
	NotifyReimbursementVoided   = "reimbursement.voided"
	NotifyReimbursementReopened = "reimbursement.reopened"
)

// Notification is the envelope handed to the notification collaborator.
type Notification struct {
	Kind      string         `json:"kind"`
	OrgID     string         `json:"orgId"`
	Recipient string         `json:"recipient,omitempty"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
}

// Notifier is the fire-and-forget notification collaborator. Implementations
// are invoked only after a successful commit; failures are logged, never
// rolled back against.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// dispatch runs a notification at the post-commit boundary, swallowing the
// error after recording it. The ledger write has already committed.
func dispatch(ctx context.Context, notifier Notifier, n Notification) {
	if notifier == nil {
		logger.Log.WithField("kind", n.Kind).Debug("no notifier configured, dropping notification")
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Log.WithField("kind", n.Kind).Warnf("notification failed: %v", err)
	}
}

// QueueNotifier pushes notification envelopes onto a Redis list consumed by
// the external delivery job.
type QueueNotifier struct {
	rdb   *redis.Client
	queue string
}

func NewQueueNotifier(rdb *redis.Client) *QueueNotifier {
	return &QueueNotifier{rdb: rdb, queue: "notification_queue"}
}

func (q *QueueNotifier) Notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, q.queue, data).Err()
}

// EmailNotifier delivers directly over SMTP. Notifications without a
// recipient are dropped.
type EmailNotifier struct {
	cfg *config.SMTPConfig
}

func NewEmailNotifier(cfg *config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (e *EmailNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Recipient == "" {
		logger.Log.WithField("kind", n.Kind).Debug("notification has no recipient, skipping email")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", e.cfg.From)
	msg.SetHeader("To", n.Recipient)
	msg.SetHeader("Subject", n.Subject)
	msg.SetBody("text/html", n.Body)

	d := gomail.NewDialer(e.cfg.Host, e.cfg.Port, e.cfg.From, e.cfg.Password)
	return d.DialAndSend(msg)
}

// LogNotifier records notifications to the application log. Used when neither
// Redis nor SMTP is available.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	logger.Log.WithField("kind", n.Kind).WithField("org_id", n.OrgID).Info(n.Subject)
	return nil
}
