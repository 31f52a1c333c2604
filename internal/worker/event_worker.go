// Package worker consumes SmartSpend events: it mirrors expenses to the
// spreadsheet exporter and raises budget alerts after spending changes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/sheets"
)

// AlertNotifier re-evaluates a user's budgets and publishes new alerts.
type AlertNotifier interface {
	Notify(ctx context.Context, userID string) ([]core.BudgetAlert, error)
}

// EventWorker handles events delivered by the AMQP consumer. Both
// collaborators are optional.
type EventWorker struct {
	exporter sheets.Exporter
	alerts   AlertNotifier
	logger   *slog.Logger
}

func NewEventWorker(exporter sheets.Exporter, alerts AlertNotifier, logger *slog.Logger) *EventWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventWorker{exporter: exporter, alerts: alerts, logger: logger}
}

// Handle satisfies amqp.Handler. A returned error requeues the delivery, so
// once an expense row is appended later failures are logged and the
// delivery is acked.
func (w *EventWorker) Handle(ctx context.Context, e *amqp.Event) error {
	w.logger.DebugContext(ctx, "Processing event",
		"event_type", e.Type,
		"user_id", e.UserID,
		"record_id", e.RecordID)

	switch e.Type {
	case amqp.ExpenseCreated:
		if err := w.exportExpense(ctx, *e.Expense); err != nil {
			return err
		}
		if err := w.notify(ctx, e.UserID); err != nil {
			w.logger.ErrorContext(ctx, "Budget alert check failed after export",
				"error", err,
				"user_id", e.UserID,
				"record_id", e.RecordID)
		}
		return nil
	case amqp.ExpenseDeleted:
		return w.removeExpense(ctx, e.Expense.ID)
	case amqp.BudgetSaved:
		return w.notify(ctx, e.UserID)
	case amqp.BudgetDeleted:
		return nil
	case amqp.BudgetAlerted:
		w.logger.InfoContext(ctx, "Budget notification",
			"user_id", e.UserID,
			"category", e.Alert.Category,
			"level", e.Alert.Level,
			"message", e.Alert.Message())
		return nil
	case amqp.ReportReady:
		r := e.Report
		w.logger.InfoContext(ctx, "Report notification",
			"user_id", e.UserID,
			"period", r.Period,
			"from", r.From.String(),
			"to", r.To.String(),
			"transactions", r.Count,
			"income", r.Summary.MonthlyIncome.String(),
			"expenses", r.Summary.MonthlyExpenses.String(),
			"alerts", len(r.Alerts))
		return nil
	default:
		return fmt.Errorf("unhandled event type %q", e.Type)
	}
}

func (w *EventWorker) exportExpense(ctx context.Context, e core.Expense) error {
	if w.exporter == nil {
		return nil
	}
	ref, err := w.exporter.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("export expense %s: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Expense exported", "record_id", e.ID, "range", ref)
	return nil
}

func (w *EventWorker) removeExpense(ctx context.Context, id string) error {
	if w.exporter == nil {
		return nil
	}
	err := w.exporter.DeleteByID(ctx, id)
	if errors.Is(err, sheets.ErrRowNotFound) {
		w.logger.WarnContext(ctx, "Expense not present in sheet, nothing to delete", "record_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove expense %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Expense removed from sheet", "record_id", id)
	return nil
}

func (w *EventWorker) notify(ctx context.Context, userID string) error {
	if w.alerts == nil {
		return nil
	}
	alerts, err := w.alerts.Notify(ctx, userID)
	if err != nil {
		return fmt.Errorf("check budget alerts for %s: %w", userID, err)
	}
	if len(alerts) > 0 {
		w.logger.InfoContext(ctx, "Budget alerts published", "user_id", userID, "count", len(alerts))
	}
	return nil
}
