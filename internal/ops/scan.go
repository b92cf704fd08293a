package ops

import (
	"context"

	"github.com/hpungsan/tweetsched/internal/calendar"
	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/schedule"
	"github.com/hpungsan/tweetsched/internal/sheet"
)

// ScanOutput describes where the next post would go.
type ScanOutput struct {
	Status         schedule.Status `json:"status"`
	LastDate       string          `json:"last_date,omitempty"`
	LastWeekday    string          `json:"last_weekday,omitempty"`
	NextRow        int             `json:"next_row"`
	NextSlot       int             `json:"next_slot"`
	NextColumn     string          `json:"next_column"`
	NextDate       string          `json:"next_date,omitempty"`
	NextWeekday    string          `json:"next_weekday,omitempty"`
	SlotsFreeInRow int             `json:"slots_free_in_row"`
}

// Scan reports the resume point without writing anything.
func Scan(ctx context.Context, env *Env) (*ScanOutput, error) {
	res := schedule.NewScanner(env.Store, env.Log).Scan(ctx)
	env.Metrics.ObserveScan(string(res.Status))
	if res.Status == schedule.StatusUnavailable {
		return nil, errors.NewStoreUnavailable("read", res.Err)
	}

	out := &ScanOutput{
		Status:         res.Status,
		LastDate:       res.LastDate,
		LastWeekday:    res.LastWeekday,
		NextRow:        res.NextRow,
		NextSlot:       res.NextSlot,
		NextColumn:     sheet.ContentColumn(res.NextSlot),
		SlotsFreeInRow: sheet.SlotsPerRow - res.NextSlot,
	}

	// The next post lands on the last row's date; a fresh sheet uses the configured start.
	if res.Status == schedule.StatusResumed {
		out.NextDate, out.NextWeekday = res.LastDate, res.LastWeekday
		return out, nil
	}
	cur, ok, err := calendar.Resolve(env.Config.Schedule.StartDate, env.Config.Schedule.StartWeekday)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur = calendar.Today(env.now(), env.Policy.Location)
	}
	out.NextDate, out.NextWeekday = cur.Date, cur.Weekday
	return out, nil
}

// HeaderOutput contains the result of the EnsureHeader operation.
type HeaderOutput struct {
	Created bool     `json:"created"`
	Header  []string `json:"header"`
}

// EnsureHeader writes the header row unless it is already in place.
func EnsureHeader(ctx context.Context, env *Env) (*HeaderOutput, error) {
	env.mu.Lock()
	defer env.mu.Unlock()

	created, err := sheet.EnsureHeader(ctx, env.Store)
	if err != nil {
		return nil, errors.NewStoreUnavailable("header", err)
	}
	if created {
		env.Log.Info().Msg("header row written")
	}
	return &HeaderOutput{Created: created, Header: sheet.Header()}, nil
}
