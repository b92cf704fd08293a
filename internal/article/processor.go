package article

import (
	"context"
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
)

const maxPost = 280

const tweetSystemPrompt = `Write one short, engaging post from the article summary.
- Stay under 280 characters.
- Keep the key information.
- No hashtags or emojis.
- Keep a professional tone.
- End with the article URL.`

// Processor turns an article URL into a post.
type Processor struct {
	fetcher Fetcher
	model   llm.Completer
	log     zerolog.Logger
}

// NewProcessor creates a Processor. A nil model always uses the summary template.
func NewProcessor(fetcher Fetcher, model llm.Completer, log zerolog.Logger) *Processor {
	return &Processor{fetcher: fetcher, model: model, log: log}
}

// Tweet fetches url and writes a post about it.
func (p *Processor) Tweet(ctx context.Context, url string) (string, error) {
	md, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", errors.NewUpstreamFailed("article crawl", err)
	}
	summary := Summarize(md, SummaryLength)
	if summary == "" {
		return "", errors.NewUpstreamFailed("article crawl", stderrors.New("no content extracted from URL"))
	}

	if p.model != nil {
		post, err := p.model.Complete(ctx, llm.Prompt{
			System:      tweetSystemPrompt,
			User:        "Summary:\n" + summary + "\n\nURL: " + url,
			MaxTokens:   100,
			Temperature: 0.7,
		})
		if err == nil && strings.TrimSpace(post) != "" && utf8.RuneCountInString(post) <= maxPost {
			return strings.TrimSpace(post), nil
		}
		p.log.Warn().Err(err).Str("url", url).Msg("model post unusable; using summary template")
	}

	return Template(summary, url), nil
}

// Template formats "<summary>... <url>", capped at 280 runes.
func Template(summary, url string) string {
	r := []rune(summary)
	if len(r) > SummaryLength {
		r = r[:SummaryLength]
	}
	post := string(r) + "... " + url
	if utf8.RuneCountInString(post) > maxPost {
		post = string([]rune(post)[:maxPost-3]) + "..."
	}
	return post
}
