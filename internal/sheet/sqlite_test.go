package sheet

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "schedule.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "schedule.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", path)
	}

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}

	version, err := GetUserVersion(s.db)
	if err != nil {
		t.Fatalf("GetUserVersion() error = %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}

func TestOpenSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "schedule.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.WriteRow(ctx, 2, []string{"15/02/2025", "Saturday"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("second OpenSQLite() error = %v", err)
	}
	defer s.Close()

	rows, err := s.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "15/02/2025" {
		t.Errorf("rows = %v, want row 2 preserved", rows)
	}
}

func TestSQLiteStore_Empty(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
	if s.EvaluatesFormulas() {
		t.Error("SQLite store should not evaluate formulas")
	}
}

func TestSQLiteStore_GapsReadAsEmptyRows(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.WriteRow(ctx, 3, []string{"16/02/2025", "Sunday", "Text", "hello"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}

	rows, err := s.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if len(rows[0]) != 0 || len(rows[1]) != 0 {
		t.Errorf("rows 1-2 = %v, want empty", rows[:2])
	}
	if rows[2][3] != "hello" {
		t.Errorf("rows[2][3] = %q, want hello", rows[2][3])
	}
}

func TestSQLiteStore_WriteRowOverlays(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.WriteRow(ctx, 2, []string{"15/02/2025", "Saturday", "Text", "a", "1", "", "", "Text", "b"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}
	if err := s.WriteRow(ctx, 2, []string{"15/02/2025", "Saturday", "Text", "a2"}); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}

	rows, err := s.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	row := rows[1]
	if Cell(row, 3) != "a2" {
		t.Errorf("content 1 = %q, want a2", Cell(row, 3))
	}
	if Cell(row, 8) != "b" {
		t.Errorf("content 2 = %q, want b (kept from first write)", Cell(row, 8))
	}
}

func TestSQLiteStore_TrailingCellsTrimmed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	cells := make([]string, RowWidth)
	cells[0], cells[1], cells[2], cells[3] = "15/02/2025", "Saturday", "Text", "a"
	if err := s.WriteRow(ctx, 2, cells); err != nil {
		t.Fatalf("WriteRow() error = %v", err)
	}

	rows, err := s.ReadRows(ctx)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	if len(rows[1]) != 4 {
		t.Errorf("len(row) = %d, want 4", len(rows[1]))
	}
}

func TestSQLiteStore_InvalidRow(t *testing.T) {
	s := openTestStore(t)
	if err := s.WriteRow(context.Background(), 0, []string{"x"}); err == nil {
		t.Error("WriteRow(0) expected error")
	}
}
