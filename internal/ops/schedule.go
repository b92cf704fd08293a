package ops

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/posts"
	"github.com/hpungsan/tweetsched/internal/schedule"
	"github.com/hpungsan/tweetsched/internal/sheet"
	"github.com/hpungsan/tweetsched/internal/vision"
)

// ScheduleInput contains parameters for the Schedule operation.
type ScheduleInput struct {
	Text              string      // free text, split into posts by the model
	Images            []llm.Image // screenshots whose text becomes posts
	ImageInstructions string      // default: vision.DefaultInstructions
	Posts             []string    // ready posts, scheduled as-is after generated ones
	StartDate         string      // DD/MM/YYYY, used only for an empty sheet
	StartWeekday      string      // derived from StartDate when empty
	NoLLM             bool        // split Text locally instead of asking the model
}

// ScheduleOutput contains the result of the Schedule operation.
type ScheduleOutput struct {
	RunID          string              `json:"run_id"`
	PostsScheduled int                 `json:"posts_scheduled"`
	Posts          []string            `json:"posts"`
	Rows           []schedule.RowWrite `json:"rows"`
	ScanStatus     schedule.Status     `json:"scan_status"`
	HeaderCreated  bool                `json:"header_created"`
}

// Schedule turns text, images and ready posts into rows of the sheet.
func Schedule(ctx context.Context, env *Env, input ScheduleInput) (*ScheduleOutput, error) {
	all, err := collectPosts(ctx, env, input)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.NewNoPosts()
	}

	runID, err := generateULID(env.now())
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	log := env.Log.With().Str("run_id", runID).Logger()

	env.mu.Lock()
	defer env.mu.Unlock()

	created, err := ensureHeader(ctx, env, log)
	if err != nil {
		return nil, err
	}

	startDate, startWeekday := input.StartDate, input.StartWeekday
	if startDate == "" && startWeekday == "" {
		startDate, startWeekday = env.Config.Schedule.StartDate, env.Config.Schedule.StartWeekday
	}

	appender := schedule.NewAppender(env.Store, env.Policy, log).WithClock(env.now)
	res, appendErr := appender.Append(ctx, all, schedule.Fallback{Date: startDate, Weekday: startWeekday})

	out := &ScheduleOutput{
		RunID:         runID,
		Posts:         all,
		HeaderCreated: created,
		Rows:          []schedule.RowWrite{},
	}
	if res != nil {
		env.Metrics.ObserveScan(string(res.Scan.Status))
		env.Metrics.ObserveAppend(res.PostsWritten, len(res.Rows))
		out.ScanStatus = res.Scan.Status
		out.PostsScheduled = res.PostsWritten
		if res.Rows != nil {
			out.Rows = res.Rows
		}
	}
	if appendErr != nil {
		log.Error().Err(appendErr).Int("posts_written", out.PostsScheduled).Msg("schedule failed")
		return nil, appendErr
	}

	log.Info().
		Int("posts", out.PostsScheduled).
		Int("rows", len(out.Rows)).
		Str("scan", string(out.ScanStatus)).
		Msg("posts scheduled")
	return out, nil
}

// ensureHeader checks row 1 before appending. When the sheet cannot be read
// and the policy is fresh, the header is written unread and the scan decides
// where the posts go.
func ensureHeader(ctx context.Context, env *Env, log zerolog.Logger) (bool, error) {
	created, err := sheet.EnsureHeader(ctx, env.Store)
	if err == nil {
		return created, nil
	}
	if !stderrors.Is(err, sheet.ErrUnreadable) || env.Policy.OnUnavailable == schedule.OnUnavailableAbort {
		return false, errors.NewStoreUnavailable("header", err)
	}

	log.Warn().Err(err).Msg("sheet unreadable; writing header without checking")
	if err := env.Store.WriteHeader(ctx, sheet.Header()); err != nil {
		return false, errors.NewStoreUnavailable("header", err)
	}
	return true, nil
}

// collectPosts gathers posts from images, text and ready posts, in that order.
func collectPosts(ctx context.Context, env *Env, input ScheduleInput) ([]string, error) {
	var raw []string
	if len(input.Images) > 0 {
		blocks, err := vision.Extract(ctx, env.LLM.Vision, input.Images, input.ImageInstructions)
		if err != nil {
			return nil, upstream("vision model", err)
		}
		raw = append(raw, blocks...)
	}
	if strings.TrimSpace(input.Text) != "" {
		raw = append(raw, input.Text)
	}

	var all []string
	if len(raw) > 0 {
		var model llm.Completer
		if !input.NoLLM {
			model = env.LLM.Completer
		}
		generated, err := posts.NewGenerator(model).Generate(ctx, strings.Join(raw, "\n\n"))
		if err != nil {
			return nil, upstream("language model", err)
		}
		all = append(all, generated...)
	}

	for _, p := range input.Posts {
		if p = strings.TrimSpace(posts.Normalize(p)); p != "" {
			all = append(all, p)
		}
	}
	return all, nil
}

func generateULID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
