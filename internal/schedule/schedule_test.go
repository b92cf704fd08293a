package schedule

import (
	"context"
	"fmt"
	"sync"

	"github.com/hpungsan/tweetsched/internal/sheet"
)

// memStore is an in-memory sheet.Store with fault injection.
type memStore struct {
	mu       sync.Mutex
	rows     [][]string
	formulas bool

	readErr   error
	failRow   int // WriteRow to this row fails
	reads     int
	writes    []int
	writeRows [][]string
}

func (m *memStore) ReadRows(ctx context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (m *memStore) WriteRow(ctx context.Context, row int, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, row)
	if row == m.failRow {
		return fmt.Errorf("quota exceeded")
	}
	for len(m.rows) < row {
		m.rows = append(m.rows, nil)
	}
	m.rows[row-1] = append([]string(nil), cells...)
	m.writeRows = append(m.writeRows, append([]string(nil), cells...))
	return nil
}

func (m *memStore) WriteHeader(ctx context.Context, cells []string) error {
	return m.WriteRow(ctx, sheet.HeaderRow, cells)
}

func (m *memStore) EvaluatesFormulas() bool { return m.formulas }

func (m *memStore) Close() error { return nil }

// fullRow returns a data row with all five slots filled.
func fullRow(date, weekday string) []string {
	r := make([]string, sheet.RowWidth)
	r[0], r[1] = date, weekday
	for i := 0; i < sheet.SlotsPerRow; i++ {
		b := sheet.SlotBase(i)
		r[b], r[b+1], r[b+2] = sheet.KindText, fmt.Sprintf("post %s/%d", date, i), "10"
	}
	return r
}

// partialRow returns a data row with the first n slots filled, trimmed like a sheet read.
func partialRow(date, weekday string, n int) []string {
	r := fullRow(date, weekday)
	return r[:sheet.SlotBase(n)]
}
