package amqp

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"smartspend/internal/core"
)

// EventType names what happened; it is also sent as the AMQP message type.
type EventType string

const (
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
	BudgetSaved    EventType = "budget.saved"
	BudgetDeleted  EventType = "budget.deleted"
	BudgetAlerted  EventType = "budget.alert"
	ReportReady    EventType = "report.ready"
)

func (t EventType) Valid() bool {
	switch t {
	case ExpenseCreated, ExpenseDeleted, BudgetSaved, BudgetDeleted, BudgetAlerted, ReportReady:
		return true
	}
	return false
}

// Event is the envelope for everything published on the exchange. Exactly
// one payload field is set, matching Type. Deletions carry the deleted
// record so consumers need not look it up.
type Event struct {
	Type      EventType          `json:"type"`
	UserID    string             `json:"userId"`
	RecordID  string             `json:"recordId,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Expense   *core.Expense      `json:"expense,omitempty"`
	Budget    *core.Budget       `json:"budget,omitempty"`
	Alert     *core.BudgetAlert  `json:"alert,omitempty"`
	Report    *core.PeriodReport `json:"report,omitempty"`
}

func NewExpenseEvent(t EventType, e core.Expense) *Event {
	return &Event{Type: t, UserID: e.UserID, RecordID: e.ID, Timestamp: time.Now().UTC(), Expense: &e}
}

func NewBudgetEvent(t EventType, b core.Budget) *Event {
	return &Event{Type: t, UserID: b.UserID, RecordID: b.ID, Timestamp: time.Now().UTC(), Budget: &b}
}

func NewAlertEvent(a core.BudgetAlert) *Event {
	return &Event{Type: BudgetAlerted, UserID: a.UserID, RecordID: a.BudgetID, Timestamp: time.Now().UTC(), Alert: &a}
}

func NewReportEvent(r core.PeriodReport) *Event {
	return &Event{Type: ReportReady, UserID: r.UserID, Timestamp: time.Now().UTC(), Report: &r}
}

// Validate checks that the envelope is addressable and its payload matches Type.
func (e *Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.UserID == "" {
		return fmt.Errorf("event %s: %w", e.Type, core.ErrEmptyUserID)
	}
	var ok bool
	switch e.Type {
	case ExpenseCreated, ExpenseDeleted:
		ok = e.Expense != nil
	case BudgetSaved, BudgetDeleted:
		ok = e.Budget != nil
	case BudgetAlerted:
		ok = e.Alert != nil
	case ReportReady:
		ok = e.Report != nil
	}
	if !ok {
		return fmt.Errorf("event %s: missing payload", e.Type)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and validates an event.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
