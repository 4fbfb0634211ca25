package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fburn/internal/pipeline"
	"github.com/theirongolddev/fburn/internal/server"
	"github.com/theirongolddev/fburn/internal/store"
)

func newTestServer(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(store.NewJSONBackend(
		filepath.Join(dir, "categories.json"),
		filepath.Join(dir, "budgets.json"),
	), nil)
	if err != nil {
		t.Fatal(err)
	}
	svc := server.New(pipeline.NewSession(st, true, nil), server.Config{Currency: "AED"}, nil)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func writeStatement(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jan.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	if New("  ") != nil {
		t.Error("New(blank) != nil")
	}
	tests := []struct {
		addr, want string
	}{
		{"127.0.0.1:8787", "http://127.0.0.1:8787"},
		{"http://localhost:9000/", "http://localhost:9000"},
		{"https://budget.example.com", "https://budget.example.com"},
	}
	for _, tt := range tests {
		if got := New(tt.addr).BaseURL(); got != tt.want {
			t.Errorf("New(%q).BaseURL() = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestUploadAndSummary(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if _, err := c.Summary(ctx); !errors.Is(err, ErrNoStatement) {
		t.Fatalf("Summary before upload err = %v, want ErrNoStatement", err)
	}

	path := writeStatement(t, "Date,Details,Amount,Debit/Credit\n"+
		"01 Jan 2024,Coffee Shop,4.50,Debit\n"+
		"03 Jan 2024,Salary,2000.00,Credit\n")
	res, err := c.Upload(ctx, path)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.File != "jan.csv" || res.Rows != 2 {
		t.Errorf("upload = %+v, want jan.csv with 2 rows", res)
	}

	sum, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !sum.DebitTotal.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("DebitTotal = %s, want 4.50", sum.DebitTotal)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.UploadID != res.UploadID || st.Rows != 2 {
		t.Errorf("status = %+v, want upload %s with 2 rows", st, res.UploadID)
	}
}

func TestUploadRejected(t *testing.T) {
	c := newTestServer(t)
	path := writeStatement(t, "Date,Details\n01 Jan 2024,Coffee\n")

	_, err := c.Upload(context.Background(), path)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Upload err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Message == "" {
		t.Errorf("APIError = %+v, want 422 with a message", apiErr)
	}
}
