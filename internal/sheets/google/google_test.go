package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{ServiceAccountJSON: "{}"}, nil)
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"}, nil)
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableServiceAccountFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:      "sheet",
		ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json"),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_InvalidOAuthClient(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet",
		OAuthClientFile: writeFile(t, "client.json", "invalid-json"),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got: %v", err)
	}
}

func TestNew_MissingOAuthToken(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet",
		OAuthClientFile: writeFile(t, "client.json", testOAuthClient),
		OAuthTokenFile:  filepath.Join(t.TempDir(), "token.json"),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "run oauth-init first") {
		t.Fatalf("expected missing token error, got: %v", err)
	}
}

func TestReadToken(t *testing.T) {
	path := writeFile(t, "token.json", `{"access_token":"abc","token_type":"Bearer","refresh_token":"r"}`)
	tok, err := readToken(path)
	if err != nil {
		t.Fatalf("readToken: %v", err)
	}
	if tok.AccessToken != "abc" || tok.RefreshToken != "r" {
		t.Errorf("unexpected token: %+v", tok)
	}

	if _, err := readToken(writeFile(t, "bad.json", "{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{"Dashboard", 2024, "2024 Dashboard"},
		{"", 2023, ""},
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}

	for _, tt := range tests {
		got := yearPrefixedName(tt.baseName, tt.year)
		if got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q",
				tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestEntryRow(t *testing.T) {
	row := entryRow(ports.Entry{
		EventID:     "evt-1",
		UserID:      3,
		RecordID:    9,
		Kind:        ports.KindIncome,
		Date:        core.NewDate(2024, 2, 29),
		Description: "Salary",
		Amount:      core.MustMoney("2500.5"),
	})

	want := []any{"2024-02-29", "income", "Salary", "2500.50", int64(3), int64(9), "evt-1"}
	if len(row) != len(want) {
		t.Fatalf("row = %v", row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("col %d = %v (%T), want %v", i, row[i], row[i], want[i])
		}
	}
}

func TestAppendEntry_Validation(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: "Ledger"} // svc is nil

	_, err := c.AppendEntry(context.Background(), ports.Entry{Kind: ports.KindExpense})
	if !errors.Is(err, ports.ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got: %v", err)
	}

	_, err = c.AppendEntry(context.Background(), ports.Entry{
		UserID: 1,
		Kind:   ports.KindExpense,
		Date:   core.NewDate(2024, 1, 1),
		Amount: core.MustMoney("1"),
	})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got: %v", err)
	}
}
