// Package sqlite stores SmartSpend data in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"smartspend/internal/core"
	"smartspend/internal/store"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*Repository)(nil)

// New opens the database at dbPath, creating parent directories and
// applying migrations.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, description, amount_cents, category, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Description, e.Amount.Cents(), string(e.Category), e.Date.Format(dateLayout), e.CreatedAt.UnixNano())
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents(),
		"category", e.Category)

	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, description, amount_cents, category, date, created_at
		 FROM expenses WHERE user_id = ?
		 ORDER BY date DESC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, amount_cents, category, date, created_at
		 FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	return e, err
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return expectAffected(res)
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_cents, period
		 FROM budgets WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		var (
			b     core.Budget
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &cents, &b.Period); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Amount = core.MoneyFromCents(cents)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (id, user_id, category, amount_cents, period, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, category) DO UPDATE SET
		     amount_cents = excluded.amount_cents,
		     period = excluded.period
		 RETURNING id`,
		uuid.NewString(), b.UserID, string(b.Category), b.Amount.Cents(), string(b.Period), r.now().UnixNano(),
	).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return b, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return expectAffected(res)
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, current_cents, target_cents, color
		 FROM savings_goals WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingsGoal, 0)
	for rows.Next() {
		var (
			g               core.SavingsGoal
			current, target int64
		)
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &current, &target, &g.Color); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.Current = core.MoneyFromCents(current)
		g.Target = core.MoneyFromCents(target)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO savings_goals (id, user_id, name, current_cents, target_cents, color, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.UserID, g.Name, g.Current.Cents(), g.Target.Cents(), g.Color, r.now().UnixNano())
		if err != nil {
			return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
		}
		return g, nil
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET name = ?, current_cents = ?, target_cents = ?, color = ?
		 WHERE id = ? AND user_id = ?`,
		g.Name, g.Current.Cents(), g.Target.Cents(), g.Color, g.ID, g.UserID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	if err := expectAffected(res); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return expectAffected(res)
}

func (r *Repository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	s := core.Settings{UserID: userID}
	n := &s.Notifications
	err := r.db.QueryRowContext(ctx,
		`SELECT name, email, currency, notify_email, notify_push, weekly_report, budget_alerts, savings_goal_alerts
		 FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&s.Name, &s.Email, &s.Currency, &n.Email, &n.Push, &n.WeeklyReport, &n.BudgetAlerts, &n.SavingsGoalAlerts)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *Repository) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	n := s.Notifications
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, name, email, currency, notify_email, notify_push, weekly_report, budget_alerts, savings_goal_alerts, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     name = excluded.name,
		     email = excluded.email,
		     currency = excluded.currency,
		     notify_email = excluded.notify_email,
		     notify_push = excluded.notify_push,
		     weekly_report = excluded.weekly_report,
		     budget_alerts = excluded.budget_alerts,
		     savings_goal_alerts = excluded.savings_goal_alerts,
		     updated_at = excluded.updated_at`,
		s.UserID, s.Name, s.Email, string(s.Currency), n.Email, n.Push, n.WeeklyReport, n.BudgetAlerts, n.SavingsGoalAlerts, r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM expenses
		 UNION SELECT user_id FROM budgets
		 UNION SELECT user_id FROM savings_goals
		 UNION SELECT user_id FROM user_settings
		 ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e         core.Expense
		cents     int64
		date      string
		createdAt int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Description, &cents, &e.Category, &date, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, err
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	e.Date = d
	e.Amount = core.MoneyFromCents(cents)
	e.CreatedAt = time.Unix(0, createdAt).UTC()
	return e, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
