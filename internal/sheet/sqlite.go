package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// SQLiteStore keeps the sheet in a local SQLite file, one table row per sheet row.
// Formulas are stored as text and never evaluated.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the sheet database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the connection string apply to every pooled connection.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(path, 0600)

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// ReadRows implements Store.
func (s *SQLiteStore) ReadRows(ctx context.Context) ([][]string, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT row_number, cells_json FROM sheet_rows ORDER BY row_number`)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var (
			n    int
			data string
		)
		if err := rs.Scan(&n, &data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(data), &cells); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", n, err)
		}
		// Rows never written read back as empty, like blank spreadsheet rows.
		for len(rows) < n-1 {
			rows = append(rows, []string{})
		}
		rows = append(rows, trimRow(cells))
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return trimRows(rows), nil
}

// WriteRow implements Store. Cells beyond len(cells) keep their previous values.
func (s *SQLiteStore) WriteRow(ctx context.Context, row int, cells []string) error {
	if row < 1 {
		return fmt.Errorf("invalid row number %d", row)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var existing []string
	var data string
	err = tx.QueryRowContext(ctx, `SELECT cells_json FROM sheet_rows WHERE row_number = ?`, row).Scan(&data)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("load row %d: %w", row, err)
	default:
		if err := json.Unmarshal([]byte(data), &existing); err != nil {
			return fmt.Errorf("decode row %d: %w", row, err)
		}
	}

	merged := make([]string, max(len(existing), len(cells)))
	copy(merged, existing)
	copy(merged, cells)

	encoded, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode row %d: %w", row, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (row_number, cells_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(row_number) DO UPDATE SET cells_json = excluded.cells_json, updated_at = excluded.updated_at`,
		row, string(encoded), s.now().Unix())
	if err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return tx.Commit()
}

// WriteHeader implements Store.
func (s *SQLiteStore) WriteHeader(ctx context.Context, cells []string) error {
	return s.WriteRow(ctx, HeaderRow, cells)
}

// EvaluatesFormulas implements Store.
func (s *SQLiteStore) EvaluatesFormulas() bool { return false }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: row table
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS sheet_rows (
		  row_number INTEGER PRIMARY KEY,
		  cells_json TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
