// Package postgres stores SmartSpend data in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// New connects to databaseURL and creates missing tables.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const expenseColumns = `id, user_id, description, amount_cents, category, date, created_at`

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Description, e.Amount.Cents(), string(e.Category), e.Date.Time, e.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = $1 AND id = $2`, userID, id)
	e, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return expectAffected(tag)
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, category, amount_cents, period
		 FROM budgets WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Budget, error) {
		var (
			b                core.Budget
			category, period string
			cents            int64
		)
		if err := row.Scan(&b.ID, &b.UserID, &category, &cents, &period); err != nil {
			return core.Budget{}, err
		}
		b.Category, b.Period, b.Amount = core.Category(category), core.Period(period), core.MoneyFromCents(cents)
		return b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO budgets (id, user_id, category, amount_cents, period, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, category) DO UPDATE SET
		     amount_cents = EXCLUDED.amount_cents,
		     period = EXCLUDED.period
		 RETURNING id`,
		uuid.NewString(), b.UserID, string(b.Category), b.Amount.Cents(), string(b.Period), s.now().UTC(),
	).Scan(&b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return b, nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	return expectAffected(tag)
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, current_cents, target_cents, color
		 FROM savings_goals WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.SavingsGoal, error) {
		var (
			g               core.SavingsGoal
			current, target int64
		)
		if err := row.Scan(&g.ID, &g.UserID, &g.Name, &current, &target, &g.Color); err != nil {
			return core.SavingsGoal{}, err
		}
		g.Current, g.Target = core.MoneyFromCents(current), core.MoneyFromCents(target)
		return g, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (s *Store) SaveGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
		_, err := s.pool.Exec(ctx,
			`INSERT INTO savings_goals (id, user_id, name, current_cents, target_cents, color, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.ID, g.UserID, g.Name, g.Current.Cents(), g.Target.Cents(), g.Color, s.now().UTC())
		if err != nil {
			return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
		}
		return g, nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE savings_goals SET name = $1, current_cents = $2, target_cents = $3, color = $4
		 WHERE id = $5 AND user_id = $6`,
		g.Name, g.Current.Cents(), g.Target.Cents(), g.Color, g.ID, g.UserID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	if err := expectAffected(tag); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM savings_goals WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return expectAffected(tag)
}

func (s *Store) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	st := core.Settings{UserID: userID}
	n := &st.Notifications
	var currency string
	err := s.pool.QueryRow(ctx,
		`SELECT name, email, currency, notify_email, notify_push, weekly_report, budget_alerts, savings_goal_alerts
		 FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&st.Name, &st.Email, &currency, &n.Email, &n.Push, &n.WeeklyReport, &n.BudgetAlerts, &n.SavingsGoalAlerts)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	st.Currency = core.Currency(currency)
	return st, nil
}

func (s *Store) SaveSettings(ctx context.Context, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	n := st.Notifications
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, name, email, currency, notify_email, notify_push, weekly_report, budget_alerts, savings_goal_alerts, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id) DO UPDATE SET
		     name = EXCLUDED.name,
		     email = EXCLUDED.email,
		     currency = EXCLUDED.currency,
		     notify_email = EXCLUDED.notify_email,
		     notify_push = EXCLUDED.notify_push,
		     weekly_report = EXCLUDED.weekly_report,
		     budget_alerts = EXCLUDED.budget_alerts,
		     savings_goal_alerts = EXCLUDED.savings_goal_alerts,
		     updated_at = EXCLUDED.updated_at`,
		st.UserID, st.Name, st.Email, string(st.Currency), n.Email, n.Push, n.WeeklyReport, n.BudgetAlerts, n.SavingsGoalAlerts, s.now().UTC())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM expenses
		 UNION SELECT user_id FROM budgets
		 UNION SELECT user_id FROM savings_goals
		 UNION SELECT user_id FROM user_settings
		 ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var (
		e        core.Expense
		category string
		cents    int64
		date     time.Time
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &cents, &category, &date, &e.CreatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.MoneyFromCents(cents)
	e.Category = core.Category(category)
	e.Date = core.DateOf(date)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func expectAffected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
