// Package sheet stores the scheduling grid: one row per day, five post slots per row.
//
// Row 1 holds the header; data starts at row 2. Each slot spans five cells
// (type, content, character count, image, video) after the date and weekday
// columns, so a full row is 27 cells wide. Two backends implement Store:
// Google Sheets and a local SQLite file.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

const (
	// SlotsPerRow is the number of posts scheduled per day.
	SlotsPerRow = 5
	// FieldsPerSlot is the number of cells each slot occupies.
	FieldsPerSlot = 5
	// RowWidth is date + weekday + every slot cell.
	RowWidth = 2 + SlotsPerRow*FieldsPerSlot
	// HeaderRow is the row holding column titles.
	HeaderRow = 1
	// FirstDataRow is the first row that holds a day.
	FirstDataRow = 2

	// KindText is the only slot type written today.
	KindText = "Text"
)

// Store reads and writes whole rows of the scheduling sheet.
type Store interface {
	// ReadRows returns every row starting with row 1. Trailing empty rows are
	// dropped and rows may be shorter than RowWidth.
	ReadRows(ctx context.Context) ([][]string, error)

	// WriteRow writes cells starting at column A of row. Values are entered as
	// if typed by a user, so formulas evaluate where the backend supports it.
	WriteRow(ctx context.Context, row int, cells []string) error

	// WriteHeader writes cells to row 1 verbatim.
	WriteHeader(ctx context.Context, cells []string) error

	// EvaluatesFormulas reports whether "=LEN(D2)" becomes a number in the sheet.
	EvaluatesFormulas() bool

	Close() error
}

// ContentIndex returns the 0-based cell offset of slot i's content.
func ContentIndex(slot int) int {
	return 3 + slot*FieldsPerSlot
}

// SlotBase returns the 0-based cell offset of slot i's type cell.
func SlotBase(slot int) int {
	return 2 + slot*FieldsPerSlot
}

// ContentColumn returns the column letter of slot i's content (D, I, N, S, X).
func ContentColumn(slot int) string {
	return string(rune('D' + slot*FieldsPerSlot))
}

// LenFormula returns the character count formula for slot i in row.
func LenFormula(slot, row int) string {
	return "=LEN(" + ContentColumn(slot) + strconv.Itoa(row) + ")"
}

// Cell returns row[i], or "" when the row is too short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Header returns the 27 column titles of row 1.
func Header() []string {
	h := make([]string, 0, RowWidth)
	h = append(h, "Date", "Day")
	for n := 1; n <= SlotsPerRow; n++ {
		h = append(h,
			fmt.Sprintf("Type %d", n),
			fmt.Sprintf("Content %d", n),
			fmt.Sprintf("Characters %d", n),
			fmt.Sprintf("Image %d", n),
			fmt.Sprintf("Video %d", n),
		)
	}
	return h
}

// ErrUnreadable marks an EnsureHeader failure that happened before any write.
var ErrUnreadable = errors.New("read header")

// EnsureHeader writes the header to row 1 when the sheet holds no data rows
// and row 1 is not already the header. A sheet with data keeps its row 1.
// It reports whether a write happened.
func EnsureHeader(ctx context.Context, s Store) (bool, error) {
	rows, err := s.ReadRows(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	want := Header()
	if len(rows) >= FirstDataRow || (len(rows) > 0 && equalCells(rows[0], want)) {
		return false, nil
	}
	if err := s.WriteHeader(ctx, want); err != nil {
		return false, fmt.Errorf("write header: %w", err)
	}
	return true, nil
}

func equalCells(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// trimRow drops trailing empty cells, the way spreadsheet reads report rows.
func trimRow(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

// trimRows drops trailing rows that have no cells.
func trimRows(rows [][]string) [][]string {
	n := len(rows)
	for n > 0 && len(rows[n-1]) == 0 {
		n--
	}
	return rows[:n]
}
