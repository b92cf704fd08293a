package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/article"
	"github.com/hpungsan/tweetsched/internal/config"
	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/metrics"
	"github.com/hpungsan/tweetsched/internal/schedule"
	"github.com/hpungsan/tweetsched/internal/sheet"
	"github.com/hpungsan/tweetsched/internal/social"
)

// Env carries the collaborators every operation needs.
type Env struct {
	Config     *config.Config
	Log        zerolog.Logger
	Store      sheet.Store
	LLM        *llm.Clients
	Fetcher    article.Fetcher
	Downloader social.Downloader
	Policy     schedule.Policy
	Metrics    *metrics.Metrics
	Now        func() time.Time

	// mu serializes scan-then-append within this process.
	mu sync.Mutex
}

// NewEnv opens the store and builds the model clients from cfg.
func NewEnv(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Env, error) {
	policy, err := schedule.ParsePolicy(cfg.Schedule.CharCount, cfg.Schedule.OnScanUnavailable, cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}
	fetcher, err := NewFetcher(cfg.Crawler)
	if err != nil {
		return nil, err
	}

	clients, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	store, err := sheet.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}

	workDir := cfg.Social.WorkDir
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "tweetsched")
	}

	return &Env{
		Config:     cfg,
		Log:        log,
		Store:      store,
		LLM:        clients,
		Fetcher:    fetcher,
		Downloader: &social.YTDLP{Bin: cfg.Social.YTDLPPath, WorkDir: workDir},
		Policy:     policy,
		Metrics:    metrics.New(),
		Now:        time.Now,
	}, nil
}

// Close releases the store.
func (e *Env) Close() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.Close()
}

// NewFetcher builds the article fetcher for the configured crawler mode.
func NewFetcher(cfg config.CrawlerConfig) (article.Fetcher, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "http":
		return &article.HTTPFetcher{
			UserAgent: cfg.UserAgent,
			MaxBytes:  cfg.MaxBytes,
			Timeout:   timeout,
		}, nil
	case "browser":
		return &article.BrowserFetcher{Timeout: timeout}, nil
	default:
		return nil, errors.NewInvalidRequest("crawler.mode must be one of: http, browser")
	}
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// upstream maps a collaborator error to a SchedError, keeping codes already set.
func upstream(service string, err error) error {
	if sErr, ok := err.(*errors.SchedError); ok {
		return sErr
	}
	return errors.NewUpstreamFailed(service, err)
}
