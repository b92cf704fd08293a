package sheet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/option"
)

type sheetsRequest struct {
	Method string
	Path   string
	Input  string
	Values [][]any
}

// fakeSheets serves the two Values endpoints the store uses.
type fakeSheets struct {
	mu       sync.Mutex
	values   [][]any
	requests []sheetsRequest
	failPut  bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req := sheetsRequest{Method: r.Method, Path: r.URL.Path, Input: r.URL.Query().Get("valueInputOption")}
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.requests = append(f.requests, req)
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Sheet1!A1:AA10", "values": f.values})
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)
		req.Values = vr.Values
		f.requests = append(f.requests, req)
		if f.failPut {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeGoogleStore(t *testing.T, fake *fakeSheets, sheetName string) *GoogleStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewGoogleStore(context.Background(), "sheet-id", sheetName,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewGoogleStore() error = %v", err)
	}
	return s
}

func TestGoogleStore_ReadRows(t *testing.T) {
	fake := &fakeSheets{values: [][]any{
		{"Date", "Day"},
		{"15/02/2025", "Saturday", "Text", "hello", float64(5)},
	}}
	s := newFakeGoogleStore(t, fake, "")

	rows, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1][4] != "5" {
		t.Errorf("rows[1][4] = %q, want 5", rows[1][4])
	}

	got := fake.requests[0]
	if !strings.HasSuffix(got.Path, "/v4/spreadsheets/sheet-id/values/Sheet1!A:AA") {
		t.Errorf("path = %q, want values range Sheet1!A:AA", got.Path)
	}
	if !s.EvaluatesFormulas() {
		t.Error("Google store should evaluate formulas")
	}
}

func TestGoogleStore_WriteRowUserEntered(t *testing.T) {
	fake := &fakeSheets{}
	s := newFakeGoogleStore(t, fake, "Sheet1")

	if err := s.WriteRow(context.Background(), 7, []string{"15/02/2025", "Saturday", "Text", "hi", "=LEN(D7)"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}

	got := fake.requests[0]
	if got.Method != http.MethodPut {
		t.Errorf("method = %s, want PUT", got.Method)
	}
	if !strings.HasSuffix(got.Path, "/values/Sheet1!A7") {
		t.Errorf("path = %q, want range Sheet1!A7", got.Path)
	}
	if got.Input != "USER_ENTERED" {
		t.Errorf("valueInputOption = %q, want USER_ENTERED", got.Input)
	}
	if len(got.Values) != 1 || len(got.Values[0]) != 5 || got.Values[0][4] != "=LEN(D7)" {
		t.Errorf("values = %v", got.Values)
	}
}

func TestGoogleStore_WriteHeaderRaw(t *testing.T) {
	fake := &fakeSheets{}
	s := newFakeGoogleStore(t, fake, "Tweets 2025")

	if err := s.WriteHeader(context.Background(), Header()); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}

	got := fake.requests[0]
	if got.Input != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", got.Input)
	}
	if !strings.HasSuffix(got.Path, "/values/'Tweets 2025'!A1") {
		t.Errorf("path = %q, want quoted tab name", got.Path)
	}
}

func TestGoogleStore_WriteError(t *testing.T) {
	fake := &fakeSheets{failPut: true}
	s := newFakeGoogleStore(t, fake, "")

	if err := s.WriteRow(context.Background(), 2, []string{"x"}); err == nil {
		t.Fatal("WriteRow() expected error")
	}
}
