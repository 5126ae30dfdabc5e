package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"

	applog "fintrack/internal/log"
	"fintrack/internal/report"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"}, applog.Discard())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.json")
	if err := os.WriteFile(keyFile, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := credentials(Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: keyFile})
	if err != nil || string(got) != `{"inline":true}` {
		t.Errorf("inline should win: %s, %v", got, err)
	}
	got, err = credentials(Config{CredentialsFile: keyFile})
	if err != nil || !strings.Contains(string(got), "service_account") {
		t.Errorf("file: %s, %v", got, err)
	}
	if _, err := credentials(Config{CredentialsFile: filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := credentials(Config{}); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", keyFile)
	if _, err := credentials(Config{}); err != nil {
		t.Errorf("GOOGLE_APPLICATION_CREDENTIALS fallback: %v", err)
	}
}

func TestAppendReport_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.AppendReport(context.Background(), "2025-06 Report", report.Table{}); err == nil {
		t.Fatal("expected error with nil service")
	}
}

// fakeSheets records the calls the client makes against the Sheets REST surface.
type fakeSheets struct {
	mu       sync.Mutex
	tabs     []string
	added    []string
	appended [][]any
	ranges   []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/spreadsheets/sheet-1"):
		sheets := make([]map[string]any, 0, len(f.tabs))
		for _, tab := range f.tabs {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": tab}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.appended = append(f.appended, body.Values...)
		f.ranges = append(f.ranges, r.URL.Path)
		_, _ = w.Write([]byte(`{"updates":{"updatedRange":"'2025-06 Report'!A1:E5"}}`))

	default:
		http.Error(w, `{"error":{"code":404,"message":"unexpected call"}}`, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := newClient(context.Background(), "sheet-1", applog.Discard(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	return c
}

func TestAppendReport_CreatesTabOnce(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"Summary"}}
	c := newTestClient(t, fake)
	table := report.Table{
		Title:  "2025-06 Budgets",
		Header: report.BudgetHeader,
		Rows:   [][]any{{"Groceries", decimal.RequireFromString("85.5"), decimal.NewFromInt(100), decimal.RequireFromString("14.5"), "CLOSE"}},
	}

	ref, err := c.AppendReport(context.Background(), "2025-06 Report", table)
	if err != nil {
		t.Fatalf("AppendReport: %v", err)
	}
	if ref != "'2025-06 Report'!A1:E5" {
		t.Errorf("ref = %q", ref)
	}
	if _, err := c.AppendReport(context.Background(), "2025-06 Report", table); err != nil {
		t.Fatalf("second AppendReport: %v", err)
	}

	if len(fake.added) != 1 || fake.added[0] != "2025-06 Report" {
		t.Errorf("added tabs = %v, want one 2025-06 Report", fake.added)
	}
	// title, header, one data row, spacer; twice
	if len(fake.appended) != 8 {
		t.Fatalf("appended %d rows, want 8", len(fake.appended))
	}
	if fake.appended[0][0] != "2025-06 Budgets" || fake.appended[2][1] != "85.50" {
		t.Errorf("unexpected rows: %v", fake.appended[:3])
	}
	if !strings.Contains(fake.ranges[0], "2025-06 Report") {
		t.Errorf("append range = %q", fake.ranges[0])
	}
}

func TestAppendReport_PropagatesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()
	c, err := newClient(context.Background(), "sheet-1", applog.Discard(),
		goption.WithEndpoint(srv.URL+"/"), goption.WithoutAuthentication(), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.AppendReport(context.Background(), "2025-06 Report", report.Table{}); err == nil {
		t.Fatal("expected error from a 403 response")
	}
}
