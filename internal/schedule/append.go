package schedule

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/calendar"
	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/sheet"
)

// CharCount selects what goes into a slot's character count cell.
type CharCount string

const (
	// CharCountAuto writes a formula when the store evaluates formulas, else a number.
	CharCountAuto CharCount = "auto"
	// CharCountFormula writes =LEN(<content cell>).
	CharCountFormula CharCount = "formula"
	// CharCountLiteral writes the rune count of the post.
	CharCountLiteral CharCount = "literal"
)

// OnUnavailable decides what Append does when the scan cannot read the sheet.
type OnUnavailable string

const (
	// OnUnavailableFresh starts at row 2 slot 0 as if the sheet were empty.
	OnUnavailableFresh OnUnavailable = "fresh"
	// OnUnavailableAbort fails with STORE_UNAVAILABLE before writing anything.
	OnUnavailableAbort OnUnavailable = "abort"
)

// Policy configures an Appender.
type Policy struct {
	CharCount     CharCount
	OnUnavailable OnUnavailable
	// Location is the timezone used for "today" when no start date is known.
	Location *time.Location
}

// ParsePolicy validates the configured policy names. Empty names take defaults.
func ParsePolicy(charCount, onUnavailable, timezone string) (Policy, error) {
	p := Policy{CharCount: CharCountAuto, OnUnavailable: OnUnavailableFresh, Location: time.UTC}

	switch CharCount(strings.ToLower(strings.TrimSpace(charCount))) {
	case "", CharCountAuto:
	case CharCountFormula:
		p.CharCount = CharCountFormula
	case CharCountLiteral:
		p.CharCount = CharCountLiteral
	default:
		return Policy{}, errors.NewInvalidRequest("unknown char_count policy: " + charCount)
	}

	switch OnUnavailable(strings.ToLower(strings.TrimSpace(onUnavailable))) {
	case "", OnUnavailableFresh:
	case OnUnavailableAbort:
		p.OnUnavailable = OnUnavailableAbort
	default:
		return Policy{}, errors.NewInvalidRequest("unknown on_scan_unavailable policy: " + onUnavailable)
	}

	if tz := strings.TrimSpace(timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Policy{}, errors.NewInvalidRequest("unknown timezone: " + tz)
		}
		p.Location = loc
	}
	return p, nil
}

// Fallback is the start cursor used when the sheet has no last date.
// Both fields empty means today.
type Fallback struct {
	Date    string
	Weekday string
}

// RowWrite records one row written by Append.
type RowWrite struct {
	Row     int    `json:"row"`
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	// Slots lists the slot indices (0-4) filled in this write.
	Slots []int `json:"slots"`
}

// AppendResult reports what Append did.
type AppendResult struct {
	Scan         ScanResult `json:"scan"`
	Rows         []RowWrite `json:"rows"`
	PostsWritten int        `json:"posts_written"`
}

// Appender writes posts into the sheet after the last filled slot.
type Appender struct {
	store   sheet.Store
	scanner *Scanner
	policy  Policy
	now     func() time.Time
	log     zerolog.Logger
}

// NewAppender creates an Appender.
func NewAppender(store sheet.Store, policy Policy, log zerolog.Logger) *Appender {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if policy.CharCount == "" {
		policy.CharCount = CharCountAuto
	}
	if policy.OnUnavailable == "" {
		policy.OnUnavailable = OnUnavailableFresh
	}
	return &Appender{
		store:   store,
		scanner: NewScanner(store, log),
		policy:  policy,
		now:     time.Now,
		log:     log,
	}
}

// WithClock replaces the clock used for "today". Tests use it.
func (a *Appender) WithClock(now func() time.Time) *Appender {
	a.now = now
	return a
}

// rowPlan is one row write computed before touching the store.
type rowPlan struct {
	row    int
	cursor calendar.Cursor
	cells  []string
	slots  []int
}

// Append writes posts in order, one write per row touched.
//
// Every date and weekday is computed before the first write, so a bad cursor
// fails without side effects. A failed write stops immediately; rows already
// written stay, and the returned result lists them alongside the error.
func (a *Appender) Append(ctx context.Context, posts []string, fb Fallback) (*AppendResult, error) {
	if len(posts) == 0 {
		return &AppendResult{}, nil
	}

	start, err := a.fallbackCursor(fb)
	if err != nil {
		return nil, err
	}

	scan := a.scanner.Scan(ctx)
	result := &AppendResult{Scan: scan}
	if scan.Status == StatusUnavailable {
		if a.policy.OnUnavailable == OnUnavailableAbort {
			return result, errors.NewStoreUnavailable("read", scan.Err)
		}
		a.log.Warn().Msg("sheet unreadable; starting from row 2")
	}

	cursor := calendar.Cursor{Date: scan.LastDate, Weekday: scan.LastWeekday}
	if cursor.Date == "" {
		cursor.Date = start.Date
	}
	if cursor.Weekday == "" {
		cursor.Weekday = start.Weekday
	}

	plans, err := a.plan(posts, scan, cursor)
	if err != nil {
		return result, err
	}

	for _, p := range plans {
		if err := a.store.WriteRow(ctx, p.row, p.cells); err != nil {
			a.log.Error().Err(err).Int("row", p.row).Msg("row write failed")
			return result, errors.NewStoreUnavailable("write", err).WithDetail("row", p.row)
		}
		a.log.Info().
			Int("row", p.row).
			Str("date", p.cursor.Date).
			Str("weekday", p.cursor.Weekday).
			Ints("slots", p.slots).
			Msg("row written")
		result.Rows = append(result.Rows, RowWrite{
			Row:     p.row,
			Date:    p.cursor.Date,
			Weekday: p.cursor.Weekday,
			Slots:   p.slots,
		})
		result.PostsWritten += len(p.slots)
	}
	return result, nil
}

// plan lays posts out into rows starting at the scan's resume point.
func (a *Appender) plan(posts []string, scan ScanResult, cursor calendar.Cursor) ([]rowPlan, error) {
	row, slot := scan.NextRow, scan.NextSlot
	useFormula := a.useFormula()

	var plans []rowPlan
	next := 0
	for next < len(posts) {
		cells := make([]string, sheet.RowWidth)
		if len(plans) == 0 && scan.Status == StatusResumed && row == scan.NextRow {
			// Rewrite the partly filled row in full so earlier slots survive.
			copy(cells, scan.Existing)
			for i := 0; i < slot; i++ {
				if content := sheet.Cell(cells, sheet.ContentIndex(i)); content != "" {
					cells[sheet.SlotBase(i)+2] = charCount(content, i, row, useFormula)
				}
			}
		}
		cells[0], cells[1] = cursor.Date, cursor.Weekday

		p := rowPlan{row: row, cursor: cursor}
		for ; slot < sheet.SlotsPerRow && next < len(posts); slot++ {
			post := posts[next]
			base := sheet.SlotBase(slot)
			cells[base] = sheet.KindText
			cells[base+1] = post
			cells[base+2] = charCount(post, slot, row, useFormula)
			p.slots = append(p.slots, slot)
			next++
		}
		p.cells = cells
		plans = append(plans, p)

		if slot == sheet.SlotsPerRow && next < len(posts) {
			nc, err := calendar.Advance(cursor)
			if err != nil {
				return nil, err
			}
			cursor = nc
			row++
			slot = 0
		}
	}
	return plans, nil
}

func (a *Appender) useFormula() bool {
	switch a.policy.CharCount {
	case CharCountFormula:
		return true
	case CharCountLiteral:
		return false
	default:
		return a.store.EvaluatesFormulas()
	}
}

func charCount(content string, slot, row int, formula bool) string {
	if formula {
		return sheet.LenFormula(slot, row)
	}
	return strconv.Itoa(utf8.RuneCountInString(content))
}

// fallbackCursor validates fb and fills in today when it is empty.
func (a *Appender) fallbackCursor(fb Fallback) (calendar.Cursor, error) {
	c, ok, err := calendar.Resolve(fb.Date, fb.Weekday)
	if err != nil {
		return calendar.Cursor{}, err
	}
	if !ok {
		c = calendar.Today(a.now(), a.policy.Location)
	}
	return c, nil
}
