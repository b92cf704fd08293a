package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/config"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/metrics"
	"github.com/hpungsan/tweetsched/internal/schedule"
	"github.com/hpungsan/tweetsched/internal/sheet"
	"github.com/hpungsan/tweetsched/internal/social"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
	last  llm.Prompt
}

func (s *stubCompleter) Complete(_ context.Context, p llm.Prompt) (string, error) {
	s.calls++
	s.last = p
	return s.reply, s.err
}

type stubVision struct {
	text   string
	err    error
	images int
}

func (s *stubVision) ReadImages(_ context.Context, _ string, images []llm.Image) (string, error) {
	s.images = len(images)
	return s.text, s.err
}

type stubTranscriber struct{ text string }

func (s stubTranscriber) Transcribe(context.Context, string) (string, error) { return s.text, nil }

type stubFetcher struct {
	markdown string
	err      error
}

func (s stubFetcher) Fetch(context.Context, string) (string, error) { return s.markdown, s.err }

type stubDownloader struct{ video *social.Video }

func (s stubDownloader) Download(context.Context, string) (*social.Video, error) { return s.video, nil }

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) ReadRows(context.Context) ([][]string, error) {
	return nil, fmt.Errorf("quota exceeded")
}
func (brokenStore) WriteRow(context.Context, int, []string) error {
	return fmt.Errorf("quota exceeded")
}
func (brokenStore) WriteHeader(context.Context, []string) error { return fmt.Errorf("quota exceeded") }
func (brokenStore) EvaluatesFormulas() bool                     { return false }
func (brokenStore) Close() error                                { return nil }

// readFailStore fails every read and records the writes it accepts.
type readFailStore struct {
	rows   map[int][]string
	header []string
}

func newReadFailStore() *readFailStore { return &readFailStore{rows: map[int][]string{}} }

func (s *readFailStore) ReadRows(context.Context) ([][]string, error) {
	return nil, fmt.Errorf("malformed range")
}
func (s *readFailStore) WriteRow(_ context.Context, row int, cells []string) error {
	s.rows[row] = append([]string(nil), cells...)
	return nil
}
func (s *readFailStore) WriteHeader(_ context.Context, cells []string) error {
	s.header = append([]string(nil), cells...)
	return nil
}
func (s *readFailStore) EvaluatesFormulas() bool { return false }
func (s *readFailStore) Close() error            { return nil }

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// newTestEnv returns an Env over a fresh SQLite sheet with stubbed models.
// The configured start is 15/02/2025 (a Saturday).
func newTestEnv(t *testing.T, completer *stubCompleter) *Env {
	t.Helper()

	store, err := sheet.OpenSQLite(filepath.Join(t.TempDir(), "schedule.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	cfg.Schedule.StartDate = "15/02/2025"
	cfg.Social.TranscriptsDir = filepath.Join(t.TempDir(), "transcripts")

	policy, err := schedule.ParsePolicy(cfg.Schedule.CharCount, cfg.Schedule.OnScanUnavailable, "")
	if err != nil {
		t.Fatalf("ParsePolicy() error = %v", err)
	}

	if completer == nil {
		completer = &stubCompleter{err: fmt.Errorf("model should not be called")}
	}
	return &Env{
		Config:  cfg,
		Log:     zerolog.Nop(),
		Store:   store,
		LLM:     &llm.Clients{Completer: completer, Vision: &stubVision{}, Transcriber: stubTranscriber{}},
		Fetcher: stubFetcher{},
		Policy:  policy,
		Metrics: metrics.New(),
		Now:     func() time.Time { return testNow },
	}
}

func readRows(t *testing.T, env *Env) [][]string {
	t.Helper()
	rows, err := env.Store.ReadRows(context.Background())
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	return rows
}

func llmPrompt() llm.Prompt {
	return llm.Prompt{User: "hello"}
}
