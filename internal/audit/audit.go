package audit

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stewardbooks/backend/internal/logger"
	"github.com/stewardbooks/backend/internal/money"
)

// Event is one immutable audit record emitted for every money movement and
// every approval decision.
type Event struct {
	Timestamp time.Time   `json:"timestamp"`
	EventType string      `json:"event_type"`
	OrgID     string      `json:"org_id"`
	ActorID   string      `json:"actor_id"`
	SubjectID string      `json:"subject_id"`
	Amount    money.Cents `json:"amount,omitempty"`
	Status    string      `json:"status"`
	Details   any         `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogTransfer(orgID, actorID, fromAccountID, toAccountID string, amount money.Cents, status string) {
	a.log(Event{
		EventType: "TRANSFER",
		OrgID:     orgID,
		ActorID:   actorID,
		Amount:    amount,
		Status:    status,
		Details: map[string]string{
			"from_account": fromAccountID,
			"to_account":   toAccountID,
		},
	})
}

func (a *Logger) LogTransaction(orgID, actorID, transactionID, accountID string, amount money.Cents) {
	a.log(Event{
		EventType: "TRANSACTION",
		OrgID:     orgID,
		ActorID:   actorID,
		SubjectID: transactionID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"account": accountID},
	})
}

func (a *Logger) LogDecision(orgID, actorID, requestID, action string, amount money.Cents) {
	a.log(Event{
		EventType: "REIMBURSEMENT_" + action,
		OrgID:     orgID,
		ActorID:   actorID,
		SubjectID: requestID,
		Amount:    amount,
		Status:    "SUCCESS",
	})
}

func (a *Logger) LogError(orgID, actorID, subjectID string, err error) {
	a.log(Event{
		EventType: "ERROR",
		OrgID:     orgID,
		ActorID:   actorID,
		SubjectID: subjectID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(e Event) {
	e.Timestamp = time.Now()
	logger.Log.WithFields(logrus.Fields{
		"audit":      true,
		"event_type": e.EventType,
		"org_id":     e.OrgID,
		"actor_id":   e.ActorID,
		"subject_id": e.SubjectID,
		"amount":     int64(e.Amount),
		"status":     e.Status,
		"details":    e.Details,
	}).Info("audit event")
}
