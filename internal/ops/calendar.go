package ops

import (
	"strings"

	"github.com/hpungsan/tweetsched/internal/calendar"
	"github.com/hpungsan/tweetsched/internal/errors"
)

// NextDayOutput contains the result of the NextDay operation.
type NextDayOutput struct {
	From calendar.Cursor `json:"from"`
	Next calendar.Cursor `json:"next"`
}

// NextDay advances a (date, weekday) cursor by one day.
// An empty weekday is derived from the date; a given one is rotated as-is.
func NextDay(date, weekday string) (*NextDayOutput, error) {
	date = strings.TrimSpace(date)
	weekday = strings.TrimSpace(weekday)
	if date == "" {
		return nil, errors.NewInvalidRequest("date is required")
	}

	from := calendar.Cursor{Date: date, Weekday: weekday}
	if weekday == "" {
		d, err := calendar.ParseDate(date)
		if err != nil {
			return nil, err
		}
		from = calendar.FromDate(d)
	}

	next, err := calendar.Advance(from)
	if err != nil {
		return nil, err
	}
	return &NextDayOutput{From: from, Next: next}, nil
}
