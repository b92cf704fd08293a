package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/article"
	"github.com/hpungsan/tweetsched/internal/config"
	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/social"
)

func TestNewFetcher(t *testing.T) {
	f, err := NewFetcher(config.CrawlerConfig{Mode: "http", UserAgent: "ua", MaxBytes: 10})
	if err != nil {
		t.Fatalf("NewFetcher(http) error = %v", err)
	}
	if hf, ok := f.(*article.HTTPFetcher); !ok || hf.UserAgent != "ua" || hf.MaxBytes != 10 {
		t.Errorf("NewFetcher(http) = %#v", f)
	}

	f, err = NewFetcher(config.CrawlerConfig{Mode: "Browser", TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("NewFetcher(browser) error = %v", err)
	}
	if _, ok := f.(*article.BrowserFetcher); !ok {
		t.Errorf("NewFetcher(browser) = %T, want *article.BrowserFetcher", f)
	}

	if _, err := NewFetcher(config.CrawlerConfig{Mode: "curl"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("NewFetcher(curl) error = %v, want INVALID_REQUEST", err)
	}
}

func TestNewEnv_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Store.SQLitePath = filepath.Join(dir, "schedule.db")
	cfg.Social.WorkDir = filepath.Join(dir, "work")

	env, err := NewEnv(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEnv() error = %v", err)
	}
	defer env.Close()

	if env.Store.EvaluatesFormulas() {
		t.Error("SQLite store should not evaluate formulas")
	}
	if y, ok := env.Downloader.(*social.YTDLP); !ok || y.WorkDir != cfg.Social.WorkDir || y.Bin != "yt-dlp" {
		t.Errorf("Downloader = %#v", env.Downloader)
	}

	// No API key: the model is only an error once it is used.
	_, err = env.LLM.Completer.Complete(context.Background(), llmPrompt())
	if !errors.Is(err, errors.ErrNotConfigured) {
		t.Errorf("Complete() error = %v, want NOT_CONFIGURED", err)
	}
}

func TestNewEnv_GoogleNeedsCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Store.Driver = "google"

	_, err := NewEnv(context.Background(), cfg, zerolog.Nop())
	if !errors.Is(err, errors.ErrNotConfigured) {
		t.Errorf("NewEnv() error = %v, want NOT_CONFIGURED", err)
	}
}

func TestNewEnv_BadPolicy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Schedule.CharCount = "words"

	_, err := NewEnv(context.Background(), cfg, zerolog.Nop())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("NewEnv() error = %v, want INVALID_REQUEST", err)
	}
}
