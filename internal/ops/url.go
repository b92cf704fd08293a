package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/tweetsched/internal/article"
	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/social"
)

// ProcessURLInput contains parameters for the ProcessURL operation.
type ProcessURLInput struct {
	URL      string // required
	Schedule bool   // append the post to the sheet
}

// ProcessURLOutput contains the result of the ProcessURL operation.
type ProcessURLOutput struct {
	URL            string          `json:"url"`
	Platform       social.Platform `json:"platform"`
	Post           string          `json:"post"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	Schedule       *ScheduleOutput `json:"schedule,omitempty"`
}

// ProcessURL writes a post about a video or article link.
func ProcessURL(ctx context.Context, env *Env, input ProcessURLInput) (*ProcessURLOutput, error) {
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, errors.NewInvalidRequest("url is required")
	}

	var articleModel llm.Completer
	if env.Config.Crawler.UseLLM {
		articleModel = env.LLM.Completer
	}
	p := social.NewProcessor(social.Options{
		Downloader:     env.Downloader,
		Transcriber:    env.LLM.Transcriber,
		Model:          env.LLM.Completer,
		Articles:       article.NewProcessor(env.Fetcher, articleModel, env.Log),
		TranscriptsDir: env.Config.Social.TranscriptsDir,
		Log:            env.Log,
	})

	res, err := p.Process(ctx, url)
	if err != nil {
		return nil, upstream("url processing", err)
	}
	env.Log.Info().Str("url", url).Str("platform", string(res.Platform)).Msg("url processed")

	out := &ProcessURLOutput{
		URL:            res.URL,
		Platform:       res.Platform,
		Post:           res.Post,
		TranscriptPath: res.TranscriptPath,
	}
	if !input.Schedule {
		return out, nil
	}

	sched, err := Schedule(ctx, env, ScheduleInput{Posts: []string{res.Post}})
	if err != nil {
		return nil, err
	}
	out.Schedule = sched
	return out, nil
}
