package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"smartspend/internal/cache"
	"smartspend/internal/core"
	"smartspend/internal/log"
	"smartspend/internal/services"
	"smartspend/internal/store/memory"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var fixedNow = time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	st := memory.New()
	dashCache := cache.NewLRUCache[services.Dashboard](16, time.Minute)
	analyticsCache := cache.NewLRUCache[core.Analytics](16, time.Minute)
	dash := services.NewDashboardService(st, dashCache, analyticsCache, nil)
	svcOpts := services.Options{Invalidator: dash}

	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Output: io.Discard})
	}
	if opts.Caches == nil {
		opts.Caches = map[string]StatsReporter{"dashboard": dashCache, "analytics": analyticsCache}
	}
	opts.Now = func() time.Time { return fixedNow }

	srv := NewServer(":0", Services{
		Expenses:  services.NewExpenseService(st, svcOpts),
		Budgets:   services.NewBudgetService(st, svcOpts),
		Goals:     services.NewGoalService(st, svcOpts),
		Settings:  services.NewSettingsService(st, svcOpts),
		Dashboard: dash,
	}, fakePinger{}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	srv.store = fakePinger{err: errors.New("connection refused")}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store status=%d, want 503", rr.Code)
	}
}

func TestMissingUserID(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{
		"/api/expenses", "/api/budgets", "/api/budgets/progress", "/api/dashboard",
		"/api/analytics", "/api/goals", "/api/settings", "/api/export",
	} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("GET %s status=%d, want 400", path, rr.Code)
			continue
		}
		if body := decode[map[string]string](t, rr); !strings.Contains(body["error"], "userId") {
			t.Errorf("GET %s error = %q", path, body["error"])
		}
	}

	if rr := do(t, srv, http.MethodPost, "/api/expenses", `{"description":"Lunch","amount":-5,"category":"food"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("POST without userId status=%d, want 400", rr.Code)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	srv := newTestServer(t, Options{})
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"description":`},
		{"zero amount", `{"userId":"u1","description":"Lunch","amount":0,"category":"food"}`},
		{"non numeric amount", `{"userId":"u1","description":"Lunch","amount":"abc","category":"food"}`},
		{"short description", `{"userId":"u1","description":"L","amount":-5,"category":"food"}`},
		{"unknown category", `{"userId":"u1","description":"Lunch","amount":-5,"category":"pets"}`},
		{"bad date", `{"userId":"u1","description":"Lunch","amount":-5,"category":"food","date":"15/04/2024"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(t, srv, http.MethodPost, "/api/expenses", tt.body); rr.Code != http.StatusBadRequest {
				t.Errorf("status=%d, want 400 (body %s)", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestWorkedExample(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Groceries","amount":-120.5,"category":"food","date":"2024-04-10"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	if created["id"] == "" || created["amount"] != -120.5 || created["date"] != "2024-04-10" {
		t.Fatalf("created = %v", created)
	}

	if rr := do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Salary","amount":3500,"category":"income"}`); rr.Code != http.StatusCreated {
		t.Fatalf("create income status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/api/budgets", `{"userId":"u1","category":"food","amount":500,"period":"monthly"}`); rr.Code != http.StatusOK {
		t.Fatalf("save budget status=%d body=%s", rr.Code, rr.Body.String())
	}

	progress := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/budgets/progress?userId=u1", ""))
	if len(progress) != 1 || progress[0]["category"] != "food" || progress[0]["spent"] != 120.5 {
		t.Fatalf("progress = %v", progress)
	}

	var dash struct {
		Summary struct {
			TotalBalance    float64 `json:"totalBalance"`
			MonthlyIncome   float64 `json:"monthlyIncome"`
			MonthlyExpenses float64 `json:"monthlyExpenses"`
			SavingsRate     float64 `json:"savingsRate"`
		} `json:"summary"`
		RecentTransactions []map[string]any `json:"recentTransactions"`
		ExpenseBreakdown   []map[string]any `json:"expenseBreakdown"`
		BudgetProgress     []map[string]any `json:"budgetProgress"`
	}
	rr = do(t, srv, http.MethodGet, "/api/dashboard?userId=u1", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	s := dash.Summary
	if s.MonthlyIncome != 3500 || s.MonthlyExpenses != 120.5 || s.TotalBalance != 3379.5 || s.SavingsRate != 96.56 {
		t.Errorf("summary = %+v", s)
	}
	if len(dash.RecentTransactions) != 2 || len(dash.ExpenseBreakdown) != 1 || len(dash.BudgetProgress) != 1 {
		t.Errorf("dashboard = %+v", dash)
	}

	// other users see nothing
	other := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/expenses?userId=u2", ""))
	if len(other) != 0 {
		t.Errorf("u2 expenses = %v", other)
	}
}

func TestDashboardReflectsWrites(t *testing.T) {
	srv := newTestServer(t, Options{})
	balance := func() float64 {
		var d struct {
			Summary struct {
				TotalBalance float64 `json:"totalBalance"`
			} `json:"summary"`
		}
		rr := do(t, srv, http.MethodGet, "/api/dashboard?userId=u1", "")
		if err := json.Unmarshal(rr.Body.Bytes(), &d); err != nil {
			t.Fatalf("decode dashboard: %v", err)
		}
		return d.Summary.TotalBalance
	}

	do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Salary","amount":1000,"category":"income"}`)
	first := balance()
	do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Rent","amount":-400,"category":"housing"}`)
	second := balance()

	if first != 1000 || second != 600 {
		t.Errorf("balances = %v then %v", first, second)
	}
}

func TestDeleteExpense(t *testing.T) {
	srv := newTestServer(t, Options{})
	created := decode[map[string]any](t, do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Bus","amount":-2.5,"category":"transport"}`))
	id := created["id"].(string)

	if rr := do(t, srv, http.MethodDelete, "/api/expenses?userId=u1", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("delete without id status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/expenses?id="+id+"&userId=u2", ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete as another user status=%d, want 404", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/expenses?id="+id+"&userId=u1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status=%d, want 204", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/expenses?id="+id+"&userId=u1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status=%d, want 404", rr.Code)
	}
}

func TestBudgetUpsertAndDelete(t *testing.T) {
	srv := newTestServer(t, Options{})
	first := decode[map[string]any](t, do(t, srv, http.MethodPost, "/api/budgets", `{"userId":"u1","category":"food","amount":500}`))
	second := decode[map[string]any](t, do(t, srv, http.MethodPost, "/api/budgets", `{"userId":"u1","category":"Food","amount":650,"period":"weekly"}`))

	if first["id"] != second["id"] {
		t.Errorf("upsert changed id: %v -> %v", first["id"], second["id"])
	}
	if first["period"] != "monthly" || second["period"] != "weekly" || second["amount"] != 650.0 {
		t.Errorf("budgets = %v, %v", first, second)
	}

	budgets := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/budgets?userId=u1", ""))
	if len(budgets) != 1 {
		t.Fatalf("budgets = %v", budgets)
	}

	if rr := do(t, srv, http.MethodPost, "/api/budgets", `{"userId":"u1","category":"income","amount":100}`); rr.Code != http.StatusBadRequest {
		t.Errorf("income budget status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/budgets?id=missing&userId=u1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete missing status=%d, want 404", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/budgets?id="+first["id"].(string)+"&userId=u1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete status=%d, want 204", rr.Code)
	}
}

func TestGoals(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodPost, "/api/goals", `{"userId":"u1","name":"Vacation","current":0,"target":3000,"color":"bg-blue-500"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	goal := decode[map[string]any](t, rr)

	rr = do(t, srv, http.MethodPost, "/api/goals", `{"id":"`+goal["id"].(string)+`","userId":"u1","name":"Vacation","current":1200,"target":3000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update goal status=%d body=%s", rr.Code, rr.Body.String())
	}

	goals := decode[[]map[string]any](t, do(t, srv, http.MethodGet, "/api/goals?userId=u1", ""))
	if len(goals) != 1 || goals[0]["current"] != 1200.0 {
		t.Fatalf("goals = %v", goals)
	}

	if rr := do(t, srv, http.MethodPost, "/api/goals", `{"userId":"u1","name":"Car","target":0}`); rr.Code != http.StatusBadRequest {
		t.Errorf("zero target status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/goals?id="+goal["id"].(string)+"&userId=u1", ""); rr.Code != http.StatusNoContent {
		t.Errorf("delete goal status=%d, want 204", rr.Code)
	}
}

func TestSettings(t *testing.T) {
	srv := newTestServer(t, Options{})

	defaults := decode[core.Settings](t, do(t, srv, http.MethodGet, "/api/settings?userId=u1", ""))
	if defaults.Currency != core.USD || !defaults.Notifications.BudgetAlerts {
		t.Fatalf("defaults = %+v", defaults)
	}

	rr := do(t, srv, http.MethodPut, "/api/settings?userId=u1", `{"name":"Ada","currency":"EUR","notifications":{"budgetAlerts":false}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	saved := decode[core.Settings](t, do(t, srv, http.MethodGet, "/api/settings?userId=u1", ""))
	if saved.Name != "Ada" || saved.Currency != core.EUR || saved.Notifications.BudgetAlerts {
		t.Errorf("saved = %+v", saved)
	}

	if rr := do(t, srv, http.MethodPut, "/api/settings?userId=u1", `{"currency":"btc"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad currency status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/settings?userId=u1", `{"email":"not-an-email"}`); rr.Code != http.StatusBadRequest {
		t.Errorf("bad email status=%d, want 400", rr.Code)
	}
}

func TestAnalytics(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Rent","amount":-900,"category":"housing","date":"2024-04-01"}`)

	a := decode[core.Analytics](t, do(t, srv, http.MethodGet, "/api/analytics?userId=u1&months=3", ""))
	if len(a.SavingsData) != 3 || len(a.CategoryData) != 1 {
		t.Errorf("analytics = %+v", a)
	}
	if rr := do(t, srv, http.MethodGet, "/api/analytics?userId=u1&months=many", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad months status=%d, want 400", rr.Code)
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/expenses", `{"userId":"u1","description":"Rent","amount":-900,"category":"housing","date":"2024-04-01"}`)

	rr := do(t, srv, http.MethodGet, "/api/export?userId=u1&format=csv", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="smartspend-expenses-2024-04-15.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "2024-04-01,Rent,Housing,-900.00,") {
		t.Errorf("body = %q", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodGet, "/api/export?userId=u1&format=pdf", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown format status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/export?userId=u1", ""); rr.Code != http.StatusOK || rr.Body.Len() == 0 {
		t.Errorf("default xlsx export status=%d len=%d", rr.Code, rr.Body.Len())
	}
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, Options{})
	cats := decode[[]core.CategoryInfo](t, do(t, srv, http.MethodGet, "/api/categories", ""))
	if len(cats) != len(core.Categories()) || cats[0].Value != core.Housing {
		t.Errorf("categories = %v", cats)
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t, Options{})
	if rr := do(t, srv, http.MethodGet, "/api/nope", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown route status=%d, want 404", rr.Code)
	}
	if rr := do(t, srv, http.MethodPatch, "/api/expenses?userId=u1", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status=%d, want 405", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 2})
	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/categories", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("third request status=%d retry-after=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
	// probes are not limited
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("healthz status=%d", rr.Code)
	}
}

func TestMetricsAndHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/api/dashboard?userId=u1", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
	do(t, srv, http.MethodGet, "/api/dashboard?userId=u1", "")

	body := do(t, srv, http.MethodGet, "/metrics", "").Body.String()
	for _, want := range []string{
		"smartspend_http_requests_total 2",
		"smartspend_ratelimit_allowed_total 2",
		`smartspend_cache_hits_total{cache="dashboard"} 1`,
		"smartspend_security_suspicious_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestSuspiciousRequestsBlocked(t *testing.T) {
	srv := newTestServer(t, Options{BlockSuspicious: true})
	rr := do(t, srv, http.MethodGet, "/api/expenses?userId=u1%27%20union%20select%20*", "")
	if rr.Code != http.StatusForbidden {
		t.Errorf("status=%d, want 403", rr.Code)
	}
}
