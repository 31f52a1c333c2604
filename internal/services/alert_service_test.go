package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"smartspend/internal/amqp"
	"smartspend/internal/core"
	"smartspend/internal/store/memory"
)

func seedAlertData(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []core.Expense{
		expense(t, "alice", "-450", core.Food, core.NewDate(2024, 3, 4)),
		expense(t, "alice", "-120", core.Transport, core.NewDate(2024, 3, 12)),
		// last month, outside the monthly window
		expense(t, "alice", "-300", core.Food, core.NewDate(2024, 2, 20)),
		expense(t, "bob", "-10", core.Food, core.NewDate(2024, 3, 12)),
	} {
		if _, err := s.CreateExpense(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	for _, b := range []core.Budget{
		{UserID: "alice", Category: core.Food, Amount: money(t, "500"), Period: core.Monthly},
		{UserID: "alice", Category: core.Transport, Amount: money(t, "100"), Period: core.Weekly},
		{UserID: "bob", Category: core.Food, Amount: money(t, "500"), Period: core.Monthly},
	} {
		if _, err := s.UpsertBudget(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
}

func fixedNow() time.Time { return time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC) }

func TestAlertService_Check(t *testing.T) {
	s := memory.New()
	seedAlertData(t, s)
	svc := NewAlertService(s, 80, Options{Now: fixedNow})

	alerts, err := svc.Check(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %+v, want 2", alerts)
	}
	if alerts[0].Category != core.Food || alerts[0].Level != core.AlertWarning || alerts[0].Percent != 90 {
		t.Errorf("food alert = %+v", alerts[0])
	}
	if alerts[1].Category != core.Transport || alerts[1].Level != core.AlertExceeded {
		t.Errorf("transport alert = %+v", alerts[1])
	}
}

func TestAlertService_NotifyOncePerWindow(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedAlertData(t, s)
	pub := &recordingPublisher{}
	now := fixedNow()
	svc := NewAlertService(s, 80, Options{Publisher: pub, Now: func() time.Time { return now }})

	n, err := svc.Sweep(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Sweep() = %d, %v; want 2 alerts", n, err)
	}
	if n, _ := svc.Sweep(ctx); n != 0 {
		t.Errorf("second Sweep() = %d, want 0", n)
	}
	for _, e := range pub.events {
		if e.Type != amqp.BudgetAlerted || e.UserID != "alice" {
			t.Errorf("unexpected event %+v", e)
		}
	}

	// next week the weekly transport budget starts over
	now = now.AddDate(0, 0, 7)
	if _, err := s.CreateExpense(ctx, expense(t, "alice", "-150", core.Transport, core.DateOf(now))); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.Sweep(ctx); n != 1 {
		t.Errorf("Sweep() next week = %d, want 1", n)
	}
}

func TestAlertService_SweepForgetsClosedWindows(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedAlertData(t, s)
	now := fixedNow()
	svc := NewAlertService(s, 80, Options{Now: func() time.Time { return now }})

	tests := []struct {
		name     string
		advance  time.Duration
		wantSent int
	}{
		// monthly food warning and weekly transport alert
		{name: "same week", advance: 0, wantSent: 2},
		// Monday 2024-03-18: the weekly window closed, no new spending
		{name: "next week", advance: 5 * 24 * time.Hour, wantSent: 1},
		// April: the monthly window closed as well
		{name: "next month", advance: 20 * 24 * time.Hour, wantSent: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = now.Add(tt.advance)
			if _, err := svc.Sweep(ctx); err != nil {
				t.Fatalf("Sweep() error = %v", err)
			}
			if got := svc.sentCount(); got != tt.wantSent {
				t.Errorf("remembered alerts = %d, want %d", got, tt.wantSent)
			}
		})
	}
}

func TestAlertService_HonoursSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedAlertData(t, s)
	st := core.DefaultSettings("alice")
	st.Notifications.BudgetAlerts = false
	if err := s.SaveSettings(ctx, st); err != nil {
		t.Fatal(err)
	}

	svc := NewAlertService(s, 80, Options{Now: fixedNow})
	alerts, err := svc.Notify(ctx, "alice")
	if err != nil || len(alerts) != 0 {
		t.Errorf("Notify() = %v, %v; want none", alerts, err)
	}
}

func TestReportService_SendWeekly(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	seedAlertData(t, s)
	st := core.DefaultSettings("bob")
	st.Notifications.WeeklyReport = false
	if err := s.SaveSettings(ctx, st); err != nil {
		t.Fatal(err)
	}

	// the default schedule fires on Monday morning; the report covers the
	// week that just ended
	monday := func() time.Time { return time.Date(2024, 3, 18, 8, 0, 0, 0, time.UTC) }
	pub := &recordingPublisher{}
	svc := NewReportService(s, 80, Options{Publisher: pub, Now: monday})
	sent, err := svc.SendWeekly(ctx)
	if err != nil || sent != 1 {
		t.Fatalf("SendWeekly() = %d, %v; want 1", sent, err)
	}
	r := pub.events[0].Report
	if r.UserID != "alice" || r.Count != 1 || r.From.String() != "2024-03-11" || r.To.String() != "2024-03-17" {
		t.Errorf("report = %+v", r)
	}
	if !r.Summary.MonthlyExpenses.Equal(money(t, "120")) {
		t.Errorf("report expenses = %s, want 120", r.Summary.MonthlyExpenses)
	}
	if len(r.Alerts) != 2 {
		t.Errorf("report alerts = %+v", r.Alerts)
	}

	if _, err := svc.Build(ctx, "", core.Weekly); !errors.Is(err, core.ErrEmptyUserID) {
		t.Errorf("Build() without user error = %v", err)
	}

	current, err := svc.Build(ctx, "alice", core.Weekly)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if current.From.String() != "2024-03-18" || current.Count != 0 {
		t.Errorf("current week report = %+v", current)
	}
}

func TestScheduler(t *testing.T) {
	var runs atomic.Int32
	job := Job{
		Name:     "count",
		Schedule: "@every 1h",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}
	s := NewScheduler(nil, job)

	if s.IsRunning() {
		t.Fatal("scheduler should not be running initially")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() when not running error = %v", err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}
	if err := s.RunNow(ctx, job); err != nil || runs.Load() != 1 {
		t.Errorf("RunNow() = %v, runs = %d", err, runs.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler(nil, Job{Name: "bad", Schedule: "every tuesday", Run: func(context.Context) error { return nil }})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected schedule parse error")
	}
	if s.IsRunning() {
		t.Error("scheduler must not run after a failed start")
	}
}

func TestScheduler_RunNowTimeout(t *testing.T) {
	s := NewScheduler(nil)
	err := s.RunNow(context.Background(), Job{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunNow() error = %v, want deadline exceeded", err)
	}
}
