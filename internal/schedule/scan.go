// Package schedule appends posts to the scheduling sheet.
//
// Scanner finds where the last run stopped; Appender continues from there,
// filling the remaining slots of the last row before moving to the next day.
package schedule

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/sheet"
)

// Status describes how a scan located the resume point.
type Status string

const (
	// StatusFresh means the sheet has no data rows.
	StatusFresh Status = "fresh"
	// StatusResumed means the resume point follows the last data row.
	StatusResumed Status = "resumed"
	// StatusUnavailable means the sheet could not be read.
	StatusUnavailable Status = "unavailable"
)

// ScanResult is the point where the next post goes.
type ScanResult struct {
	Status Status `json:"status"`

	// LastDate and LastWeekday come from the last data row; empty when fresh.
	LastDate    string `json:"last_date,omitempty"`
	LastWeekday string `json:"last_weekday,omitempty"`

	NextRow  int `json:"next_row"`
	NextSlot int `json:"next_slot"`

	// Existing holds the cells of NextRow when the scan resumes inside it.
	Existing []string `json:"-"`

	// Err is the read error behind StatusUnavailable.
	Err error `json:"-"`
}

func freshResult() ScanResult {
	return ScanResult{Status: StatusFresh, NextRow: sheet.FirstDataRow, NextSlot: 0}
}

// Scanner reads the sheet to find the resume point.
type Scanner struct {
	store sheet.Store
	log   zerolog.Logger
}

// NewScanner creates a Scanner over store.
func NewScanner(store sheet.Store, log zerolog.Logger) *Scanner {
	return &Scanner{store: store, log: log}
}

// Scan never fails: a read error yields StatusUnavailable with fresh defaults.
func (s *Scanner) Scan(ctx context.Context) ScanResult {
	rows, err := s.store.ReadRows(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("sheet read failed during scan")
		r := freshResult()
		r.Status = StatusUnavailable
		r.Err = err
		return r
	}
	return Locate(rows)
}

// Locate computes the resume point from rows, where rows[0] is row 1.
func Locate(rows [][]string) ScanResult {
	if len(rows) <= 1 {
		return freshResult()
	}

	lastRowNumber := len(rows)
	last := rows[lastRowNumber-1]
	r := ScanResult{
		Status:      StatusResumed,
		LastDate:    sheet.Cell(last, 0),
		LastWeekday: sheet.Cell(last, 1),
	}

	for i := 0; i < sheet.SlotsPerRow; i++ {
		if sheet.Cell(last, sheet.ContentIndex(i)) == "" {
			r.NextRow = lastRowNumber
			r.NextSlot = i
			r.Existing = append([]string(nil), last...)
			return r
		}
	}

	r.NextRow = lastRowNumber + 1
	r.NextSlot = 0
	return r
}
