package ops

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/schedule"
	"github.com/hpungsan/tweetsched/internal/sheet"
)

func TestSchedule_TextThroughModel(t *testing.T) {
	model := &stubCompleter{reply: "One\n\nTwo\n\nThree"}
	env := newTestEnv(t, model)

	out, err := Schedule(context.Background(), env, ScheduleInput{Text: "1. One\n2. Two\n3. Three"})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
	if out.RunID == "" {
		t.Error("RunID is empty")
	}
	if !out.HeaderCreated {
		t.Error("HeaderCreated = false on an empty sheet")
	}
	if out.PostsScheduled != 3 {
		t.Errorf("PostsScheduled = %d, want 3", out.PostsScheduled)
	}
	if out.ScanStatus != schedule.StatusFresh {
		t.Errorf("ScanStatus = %q, want fresh", out.ScanStatus)
	}
	want := []schedule.RowWrite{{Row: 2, Date: "15/02/2025", Weekday: "Saturday", Slots: []int{0, 1, 2}}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", out.Rows, want)
	}

	rows := readRows(t, env)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	row := rows[1]
	if sheet.Cell(row, 3) != "One" || sheet.Cell(row, 8) != "Two" || sheet.Cell(row, 13) != "Three" {
		t.Errorf("contents = %q/%q/%q", sheet.Cell(row, 3), sheet.Cell(row, 8), sheet.Cell(row, 13))
	}
	// SQLite does not evaluate formulas, so auto writes literal counts.
	if sheet.Cell(row, 4) != "3" || sheet.Cell(row, 14) != "5" {
		t.Errorf("counts = %q/%q, want 3/5", sheet.Cell(row, 4), sheet.Cell(row, 14))
	}
}

func TestSchedule_ResumesAndAdvances(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := Schedule(ctx, env, ScheduleInput{Posts: []string{"a", "b", "c"}}); err != nil {
		t.Fatalf("first Schedule() error = %v", err)
	}
	out, err := Schedule(ctx, env, ScheduleInput{Posts: []string{"d", "e", "f"}})
	if err != nil {
		t.Fatalf("second Schedule() error = %v", err)
	}

	if out.HeaderCreated {
		t.Error("HeaderCreated = true on second run")
	}
	if out.ScanStatus != schedule.StatusResumed {
		t.Errorf("ScanStatus = %q, want resumed", out.ScanStatus)
	}
	want := []schedule.RowWrite{
		{Row: 2, Date: "15/02/2025", Weekday: "Saturday", Slots: []int{3, 4}},
		{Row: 3, Date: "16/02/2025", Weekday: "Sunday", Slots: []int{0}},
	}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", out.Rows, want)
	}

	rows := readRows(t, env)
	if sheet.Cell(rows[1], 3) != "a" {
		t.Errorf("row 2 slot 0 = %q, want a (kept on rewrite)", sheet.Cell(rows[1], 3))
	}
	if sheet.Cell(rows[1], 23) != "e" || sheet.Cell(rows[2], 3) != "f" {
		t.Errorf("row 2 slot 4 = %q, row 3 slot 0 = %q", sheet.Cell(rows[1], 23), sheet.Cell(rows[2], 3))
	}
}

func TestSchedule_NoPosts(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := Schedule(context.Background(), env, ScheduleInput{Text: "   ", Posts: []string{"", " "}})
	if !errors.Is(err, errors.ErrNoPosts) {
		t.Fatalf("Schedule() error = %v, want NO_POSTS", err)
	}
	if rows := readRows(t, env); len(rows) != 0 {
		t.Errorf("store touched: %d rows", len(rows))
	}
}

func TestSchedule_ImagesBeforeText(t *testing.T) {
	model := &stubCompleter{reply: "from image\n\nfrom text"}
	env := newTestEnv(t, model)
	vision := &stubVision{text: "from image"}
	env.LLM.Vision = vision

	out, err := Schedule(context.Background(), env, ScheduleInput{
		Text:   "from text",
		Images: []llm.Image{{Data: []byte("\x89PNG\r\n\x1a\nxxxx")}, {Data: nil}},
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if vision.images != 1 {
		t.Errorf("vision saw %d images, want 1 (empty skipped)", vision.images)
	}
	if !strings.Contains(model.last.User, "from image\n\nfrom text") {
		t.Errorf("model prompt = %q, want image text then text", model.last.User)
	}
	if !reflect.DeepEqual(out.Posts, []string{"from image", "from text"}) {
		t.Errorf("Posts = %q", out.Posts)
	}
}

func TestSchedule_NoLLM(t *testing.T) {
	env := newTestEnv(t, nil)

	out, err := Schedule(context.Background(), env, ScheduleInput{
		Text:  "1. first post #go\n\n2. second post",
		Posts: []string{"ready “post”"},
		NoLLM: true,
	})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	want := []string{"first post", "second post", `ready "post"`}
	if !reflect.DeepEqual(out.Posts, want) {
		t.Errorf("Posts = %q, want %q", out.Posts, want)
	}
}

func TestSchedule_StartOverride(t *testing.T) {
	env := newTestEnv(t, nil)

	out, err := Schedule(context.Background(), env, ScheduleInput{Posts: []string{"x"}, StartDate: "28/02/2024"})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if out.Rows[0].Date != "28/02/2024" || out.Rows[0].Weekday != "Wednesday" {
		t.Errorf("Rows[0] = %+v, want 28/02/2024 Wednesday", out.Rows[0])
	}

	_, err = Schedule(context.Background(), newTestEnv(t, nil), ScheduleInput{
		Posts: []string{"x"}, StartDate: "28/02/2024", StartWeekday: "Friday",
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("inconsistent start error = %v, want INVALID_REQUEST", err)
	}
}

func TestSchedule_TodayWhenNoStart(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Config.Schedule.StartDate = ""

	out, err := Schedule(context.Background(), env, ScheduleInput{Posts: []string{"x"}})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if out.Rows[0].Date != "10/03/2025" || out.Rows[0].Weekday != "Monday" {
		t.Errorf("Rows[0] = %+v, want 10/03/2025 Monday", out.Rows[0])
	}
}

func TestSchedule_ModelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"not configured", errors.NewNotConfigured("OPENAI_API_KEY"), errors.ErrNotConfigured},
		{"plain failure", fmt.Errorf("connection reset"), errors.ErrUpstreamFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubCompleter{err: tt.err})
			_, err := Schedule(context.Background(), env, ScheduleInput{Text: "hello"})
			if !errors.Is(err, tt.want) {
				t.Errorf("Schedule() error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestSchedule_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Store = brokenStore{}

	_, err := Schedule(context.Background(), env, ScheduleInput{Posts: []string{"x"}})
	if !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Fatalf("Schedule() error = %v, want STORE_UNAVAILABLE", err)
	}
}

func TestSchedule_UnreadableSheetStartsFresh(t *testing.T) {
	env := newTestEnv(t, nil)
	store := newReadFailStore()
	env.Store = store

	out, err := Schedule(context.Background(), env, ScheduleInput{Posts: []string{"first", "second"}})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if out.ScanStatus != schedule.StatusUnavailable {
		t.Errorf("ScanStatus = %q, want unavailable", out.ScanStatus)
	}
	if !out.HeaderCreated || !reflect.DeepEqual(store.header, sheet.Header()) {
		t.Errorf("header = %v, want the column titles written", store.header)
	}

	row, ok := store.rows[sheet.FirstDataRow]
	if !ok || len(store.rows) != 1 {
		t.Fatalf("rows written = %v, want only row 2", store.rows)
	}
	if row[0] != "15/02/2025" || row[1] != "Saturday" {
		t.Errorf("row 2 date = %q %q, want 15/02/2025 Saturday", row[0], row[1])
	}
	if sheet.Cell(row, sheet.ContentIndex(0)) != "first" || sheet.Cell(row, sheet.ContentIndex(1)) != "second" {
		t.Errorf("row 2 = %v, want first and second in slots 1 and 2", row)
	}
}

func TestSchedule_UnreadableSheetAbort(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Policy.OnUnavailable = schedule.OnUnavailableAbort
	store := newReadFailStore()
	env.Store = store

	_, err := Schedule(context.Background(), env, ScheduleInput{Posts: []string{"x"}})
	if !errors.Is(err, errors.ErrStoreUnavailable) {
		t.Fatalf("Schedule() error = %v, want STORE_UNAVAILABLE", err)
	}
	if store.header != nil || len(store.rows) != 0 {
		t.Errorf("header = %v rows = %v, want nothing written", store.header, store.rows)
	}
}
