// Package calendar advances the (date, weekday) cursor used to label schedule rows.
//
// Dates are DD/MM/YYYY strings and weekdays are full English names. Advance
// rotates the weekday through a Monday-first table and carries the day, month
// and year by hand, so the cursor keeps whatever weekday the sheet already
// holds instead of re-deriving it.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/tweetsched/internal/errors"
)

// DateLayout is the time layout matching the sheet's date column.
const DateLayout = "02/01/2006"

// Weekdays lists weekday names Monday first.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var daysPerMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Date is a day/month/year triple.
type Date struct {
	Day   int
	Month int
	Year  int
}

// Cursor is the date and weekday written into a schedule row.
type Cursor struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

// IsLeap reports whether year has a 29 day February.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in month (1-12) of year.
func DaysIn(month, year int) int {
	if month == 2 && IsLeap(year) {
		return 29
	}
	return daysPerMonth[month-1]
}

// ParseDate parses DD/MM/YYYY. Day and month may omit the leading zero.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Date{}, errors.NewInvalidRequest(fmt.Sprintf("date %q must be DD/MM/YYYY", s))
	}

	var nums [3]int
	for i, p := range parts {
		if p == "" || len(p) > 4 || (i < 2 && len(p) > 2) {
			return Date{}, errors.NewInvalidRequest(fmt.Sprintf("date %q must be DD/MM/YYYY", s))
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, errors.NewInvalidRequest(fmt.Sprintf("date %q must be DD/MM/YYYY", s))
		}
		nums[i] = n
	}

	d := Date{Day: nums[0], Month: nums[1], Year: nums[2]}
	if d.Year < 1 || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > DaysIn(d.Month, d.Year) {
		return Date{}, errors.NewInvalidRequest(fmt.Sprintf("date %q is not a calendar date", s))
	}
	return d, nil
}

// FormatDate renders d as zero padded DD/MM/YYYY.
func FormatDate(d Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// NextDate returns the day after d.
func NextDate(d Date) Date {
	d.Day++
	if d.Day > DaysIn(d.Month, d.Year) {
		d.Day = 1
		d.Month++
		if d.Month > 12 {
			d.Month = 1
			d.Year++
		}
	}
	return d
}

// WeekdayIndex returns the Monday-first index of name, matching case-insensitively.
func WeekdayIndex(name string) (int, error) {
	n := strings.TrimSpace(name)
	for i, w := range Weekdays {
		if strings.EqualFold(w, n) {
			return i, nil
		}
	}
	return 0, errors.NewInvalidRequest(fmt.Sprintf("unknown weekday %q", name))
}

// NextWeekday returns the weekday after name.
func NextWeekday(name string) (string, error) {
	idx, err := WeekdayIndex(name)
	if err != nil {
		return "", err
	}
	return Weekdays[(idx+1)%7], nil
}

// Advance moves c one day forward.
func Advance(c Cursor) (Cursor, error) {
	d, err := ParseDate(c.Date)
	if err != nil {
		return Cursor{}, err
	}
	wd, err := NextWeekday(c.Weekday)
	if err != nil {
		return Cursor{}, err
	}
	return Cursor{Date: FormatDate(NextDate(d)), Weekday: wd}, nil
}

// WeekdayName returns the weekday name of d.
func WeekdayName(d Date) string {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	// time.Weekday is Sunday first.
	return Weekdays[(int(t.Weekday())+6)%7]
}

// FromDate builds the cursor for d with its calendar weekday.
func FromDate(d Date) Cursor {
	return Cursor{Date: FormatDate(d), Weekday: WeekdayName(d)}
}

// Today returns the cursor for now as seen in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) Cursor {
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	return FromDate(Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()})
}

// Resolve turns an optional (date, weekday) pair into a cursor.
// A date alone derives its weekday. A weekday that disagrees with the date is
// rejected. Neither returns ok=false so the caller can fall back to Today.
func Resolve(date, weekday string) (c Cursor, ok bool, err error) {
	date = strings.TrimSpace(date)
	weekday = strings.TrimSpace(weekday)
	if date == "" {
		if weekday != "" {
			return Cursor{}, false, errors.NewInvalidRequest("start weekday given without a start date")
		}
		return Cursor{}, false, nil
	}

	d, err := ParseDate(date)
	if err != nil {
		return Cursor{}, false, err
	}
	c = FromDate(d)
	if weekday == "" {
		return c, true, nil
	}
	if _, err := WeekdayIndex(weekday); err != nil {
		return Cursor{}, false, err
	}
	if !strings.EqualFold(weekday, c.Weekday) {
		return Cursor{}, false, errors.NewInvalidRequest(
			fmt.Sprintf("%s is a %s, not a %s", c.Date, c.Weekday, weekday))
	}
	return c, true, nil
}
