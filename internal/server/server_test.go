package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/pipeline"
	"github.com/theirongolddev/fburn/internal/store"
)

const statement = "Date,Details,Amount,Debit/Credit\n" +
	"01 Jan 2024,Coffee Shop,4.50,Debit\n" +
	"02 Jan 2024,Coffee Shop,3.20,Debit\n" +
	"03 Jan 2024,Salary,2000.00,Credit\n"

func newTestService(t *testing.T, budgeting bool) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(store.NewJSONBackend(
		filepath.Join(dir, "categories.json"),
		filepath.Join(dir, "budgets.json"),
	), nil)
	if err != nil {
		t.Fatal(err)
	}
	sess := pipeline.NewSession(st, budgeting, nil)
	return New(sess, Config{Currency: "AED", EventsBuffer: 3}, nil), dir
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, h http.Handler, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, want, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestService(t, true)
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok\n" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok\n")
	}
}

func TestSummaryBeforeUpload(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()
	for _, path := range []string{"/v1/summary", "/v1/transactions", "/v1/payments"} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusConflict {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusConflict)
		}
	}
}

func TestUploadAndSummary(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()

	rec := upload(t, h, "jan.csv", statement)
	expectStatus(t, rec, http.StatusCreated)
	up := decode[UploadResult](t, rec)
	if up.UploadID == "" {
		t.Error("upload_id is empty")
	}
	if up.Rows != 3 || up.Debits != 2 || up.Credits != 1 {
		t.Errorf("rows/debits/credits = %d/%d/%d, want 3/2/1", up.Rows, up.Debits, up.Credits)
	}

	rec = do(t, h, http.MethodGet, "/v1/summary", "")
	expectStatus(t, rec, http.StatusOK)
	sum := decode[Summary](t, rec)
	if !sum.DebitTotal.Equal(decimal.RequireFromString("7.70")) {
		t.Errorf("debit_total = %s, want 7.70", sum.DebitTotal)
	}
	if !sum.CreditTotal.Equal(decimal.RequireFromString("2000")) {
		t.Errorf("credit_total = %s, want 2000", sum.CreditTotal)
	}
	if sum.Currency != "AED" {
		t.Errorf("currency = %q, want AED", sum.Currency)
	}
	if len(sum.Categories) != 1 || sum.Categories[0].Category != "Uncategorized" || sum.Categories[0].Count != 2 {
		t.Fatalf("categories = %+v, want one Uncategorized row with 2 debits", sum.Categories)
	}
	if sum.Categories[0].PercentUsed == nil || !sum.Categories[0].PercentUsed.IsZero() {
		t.Errorf("percent_used = %v, want 0 with a zero budget", sum.Categories[0].PercentUsed)
	}

	rec = do(t, h, http.MethodGet, "/v1/payments", "")
	expectStatus(t, rec, http.StatusOK)
	pay := decode[paymentsView](t, rec)
	if len(pay.Payments) != 1 || pay.Payments[0].Details != "Salary" {
		t.Errorf("payments = %+v, want the Salary row", pay.Payments)
	}
}

func TestUploadRejectsBadStatement(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()

	rec := upload(t, h, "bad.csv", "Date,Details\n01 Jan 2024,Coffee\n")
	expectStatus(t, rec, http.StatusUnprocessableEntity)

	rec = do(t, h, http.MethodPost, "/v1/upload", "")
	expectStatus(t, rec, http.StatusBadRequest)

	if s.status().UploadID != "" {
		t.Error("failed upload replaced the session")
	}
}

func TestSummaryHidesBudgetsWhenDisabled(t *testing.T) {
	s, _ := newTestService(t, false)
	h := s.Handler()
	expectStatus(t, upload(t, h, "jan.csv", statement), http.StatusCreated)

	rec := do(t, h, http.MethodGet, "/v1/summary", "")
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, field := range []string{"budget_total", "remaining", "percent_used"} {
		if strings.Contains(body, field) {
			t.Errorf("summary contains %q with budgets disabled: %s", field, body)
		}
	}

	expectStatus(t, do(t, h, http.MethodGet, "/v1/budgets", ""), http.StatusNotFound)
}

func TestEditsLearnKeyword(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()
	expectStatus(t, upload(t, h, "jan.csv", statement), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/categories", `{"name":"Food"}`), http.StatusCreated)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/categories", `{"name":"Food"}`), http.StatusOK)

	rec := do(t, h, http.MethodPost, "/v1/edits", `[{"id":1,"category":"Food"}]`)
	expectStatus(t, rec, http.StatusOK)
	res := decode[pipeline.EditResult](t, rec)
	if res.Applied != 1 || len(res.Learned) != 1 || res.Learned[0].Keyword != "Coffee Shop" {
		t.Fatalf("edit result = %+v, want 1 applied, Coffee Shop learned", res)
	}

	rec = do(t, h, http.MethodGet, "/v1/transactions?category=Food", "")
	expectStatus(t, rec, http.StatusOK)
	txs := decode[[]transactionView](t, rec)
	if len(txs) != 2 {
		t.Errorf("Food rows = %d, want 2 after learning", len(txs))
	}

	rec = do(t, h, http.MethodGet, "/v1/categories", "")
	cats := decode[[]categoryEntry](t, rec)
	var food categoryEntry
	for _, c := range cats {
		if c.Name == "Food" {
			food = c
		}
	}
	if len(food.Keywords) != 1 || food.Keywords[0] != "Coffee Shop" {
		t.Errorf("Food keywords = %v, want [Coffee Shop]", food.Keywords)
	}
}

func TestEditsRejectUnknown(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()
	expectStatus(t, upload(t, h, "jan.csv", statement), http.StatusCreated)

	expectStatus(t, do(t, h, http.MethodPost, "/v1/edits", `[{"id":1,"category":"Nope"}]`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/edits", `[{"id":99,"category":"Uncategorized"}]`), http.StatusUnprocessableEntity)
	// Row 3 is the salary credit; payments are not editable.
	expectStatus(t, do(t, h, http.MethodPost, "/v1/edits", `[{"id":3,"category":"Uncategorized"}]`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/edits", `{"id":1}`), http.StatusBadRequest)
}

func TestAddKeyword(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()
	expectStatus(t, do(t, h, http.MethodPost, "/v1/categories", `{"name":"Food"}`), http.StatusCreated)

	rec := do(t, h, http.MethodPost, "/v1/categories/Food/keywords", `{"keyword":" Bakery "}`)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[map[string]any](t, rec)["learned"]; got != true {
		t.Errorf("learned = %v, want true", got)
	}
	expectStatus(t, do(t, h, http.MethodPost, "/v1/categories/Rent/keywords", `{"keyword":"landlord"}`), http.StatusNotFound)
}

func TestCategoryRoutesUnescapeName(t *testing.T) {
	s, _ := newTestService(t, true)
	h := s.Handler()
	expectStatus(t, do(t, h, http.MethodPost, "/v1/categories", `{"name":"Food/Drink"}`), http.StatusCreated)

	rec := do(t, h, http.MethodPost, "/v1/categories/Food%2FDrink/keywords", `{"keyword":"bar"}`)
	expectStatus(t, rec, http.StatusOK)
	got := decode[map[string]any](t, rec)
	if got["category"] != "Food/Drink" || got["learned"] != true {
		t.Errorf("response = %v, want Food/Drink learned", got)
	}
	if kws, _ := got["keywords"].([]any); len(kws) != 1 || kws[0] != "bar" {
		t.Errorf("keywords = %v, want [bar]", got["keywords"])
	}

	expectStatus(t, do(t, h, http.MethodPut, "/v1/budgets/Food%2FDrink", `{"amount":"20"}`), http.StatusOK)
	if got := s.session.Store().Budget("Food/Drink"); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Budget(Food/Drink) = %s, want 20", got)
	}
}

func TestBudgets(t *testing.T) {
	s, dir := newTestService(t, true)
	h := s.Handler()
	expectStatus(t, do(t, h, http.MethodPost, "/v1/categories", `{"name":"Food"}`), http.StatusCreated)

	expectStatus(t, do(t, h, http.MethodPut, "/v1/budgets/Food", `{"amount":"50.00"}`), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodPut, "/v1/budgets/Food", `{"amount":-1}`), http.StatusBadRequest)
	expectStatus(t, do(t, h, http.MethodPut, "/v1/budgets/Rent", `{"amount":10}`), http.StatusNotFound)
	expectStatus(t, do(t, h, http.MethodPut, "/v1/budgets/Food", `{}`), http.StatusBadRequest)

	rec := do(t, h, http.MethodGet, "/v1/budgets", "")
	bv := decode[budgetsView](t, rec)
	if !bv.Unsaved {
		t.Error("unsaved = false after PUT, want true")
	}

	data, err := os.ReadFile(filepath.Join(dir, "budgets.json"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "50") {
		t.Errorf("budgets file written before save: %s", data)
	}

	rec = do(t, h, http.MethodPost, "/v1/budgets/save", "")
	expectStatus(t, rec, http.StatusOK)
	if decode[budgetsView](t, rec).Unsaved {
		t.Error("unsaved = true after save")
	}
	data, err = os.ReadFile(filepath.Join(dir, "budgets.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Food": 50`) {
		t.Errorf("budgets file = %s, want Food 50", data)
	}
}

func TestPublishRingBuffer(t *testing.T) {
	s, _ := newTestService(t, true)
	for range 5 {
		s.publish(EventBudgetSet, nil)
	}

	events := s.recentEvents()
	if len(events) != 3 {
		t.Fatalf("events len = %d, want 3", len(events))
	}
	if events[0].ID != 3 || events[2].ID != 5 {
		t.Fatalf("event ids = [%d..%d], want [3..5]", events[0].ID, events[2].ID)
	}
}

func TestStream(t *testing.T) {
	s, _ := newTestService(t, true)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	next := func() string {
		t.Helper()
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "event: ") {
				return strings.TrimPrefix(line, "event: ")
			}
		}
		t.Fatalf("stream ended: %v", sc.Err())
		return ""
	}

	if got := next(); got != EventStatus {
		t.Fatalf("first event = %q, want %q", got, EventStatus)
	}
	s.publish(EventBudgetsSaved, nil)
	if got := next(); got != EventBudgetsSaved {
		t.Fatalf("second event = %q, want %q", got, EventBudgetsSaved)
	}
}
