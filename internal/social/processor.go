package social

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/posts"
)

// TranscriptionFailed stands in for the transcript when transcription errors.
const TranscriptionFailed = "Transcription failed"

const tweetSystemPrompt = `You are sharing something interesting you just found on social media. Write one post that sounds natural, like telling friends about it.
- Say what surprised or excited you.
- Use everyday language and mention the details that stood out.
- Add your own take and invite others to weigh in.
- Do not name the creator.
- Skip jargon, promotional language and buzzwords.
- No hashtags or emojis.`

// ArticleTweeter writes a post for an article link.
type ArticleTweeter interface {
	Tweet(ctx context.Context, url string) (string, error)
}

// Result is the post produced for a link.
type Result struct {
	URL            string   `json:"url"`
	Platform       Platform `json:"platform"`
	Post           string   `json:"post"`
	TranscriptPath string   `json:"transcript_path,omitempty"`
}

// Processor routes links to the article or video pipeline.
type Processor struct {
	downloader     Downloader
	transcriber    llm.Transcriber
	model          llm.Completer
	articles       ArticleTweeter
	transcriptsDir string
	log            zerolog.Logger
}

// Options configures NewProcessor.
type Options struct {
	Downloader     Downloader
	Transcriber    llm.Transcriber
	Model          llm.Completer
	Articles       ArticleTweeter
	TranscriptsDir string
	Log            zerolog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(opts Options) *Processor {
	return &Processor{
		downloader:     opts.Downloader,
		transcriber:    opts.Transcriber,
		model:          opts.Model,
		articles:       opts.Articles,
		transcriptsDir: opts.TranscriptsDir,
		log:            opts.Log,
	}
}

// Process writes one post about url.
func (p *Processor) Process(ctx context.Context, url string) (*Result, error) {
	platform, err := Detect(url)
	if err != nil {
		return nil, err
	}

	if platform == Article {
		post, err := p.articles.Tweet(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Result{URL: url, Platform: platform, Post: post}, nil
	}

	content, err := p.videoContent(ctx, url, platform)
	if err != nil {
		return nil, err
	}

	res := &Result{URL: url, Platform: platform}
	if path, err := SaveTranscript(p.transcriptsDir, url, platform, content); err != nil {
		p.log.Warn().Err(err).Str("url", url).Msg("transcript not saved")
	} else {
		res.TranscriptPath = path
		p.log.Info().Str("path", path).Msg("transcript saved")
	}

	post, err := p.model.Complete(ctx, llm.Prompt{
		System: tweetSystemPrompt,
		User: fmt.Sprintf("I just watched this %s post:\n%s\n\n"+
			"Share what you found interesting about it. Stay under 280 characters.", platform, content),
		MaxTokens:   100,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, err
	}
	res.Post = posts.TruncateSentences(posts.Normalize(post), posts.MaxLength)
	return res, nil
}

// videoContent downloads and transcribes the clip, then lays out what the model sees.
func (p *Processor) videoContent(ctx context.Context, url string, platform Platform) (string, error) {
	video, err := p.downloader.Download(ctx, url)
	if err != nil {
		return "", errors.NewUpstreamFailed("video download", err)
	}

	transcript, err := p.transcriber.Transcribe(ctx, video.Path)
	if err != nil {
		p.log.Warn().Err(err).Str("url", url).Msg("transcription failed")
		if errors.Is(err, errors.ErrNotConfigured) {
			_ = os.Remove(video.Path)
			return "", err
		}
		transcript = TranscriptionFailed
	}
	if err := os.Remove(video.Path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		p.log.Debug().Err(err).Str("path", video.Path).Msg("video cleanup failed")
	}

	var b strings.Builder
	if platform == Instagram {
		fmt.Fprintf(&b, "Caption: %s\n", video.Description)
	} else {
		fmt.Fprintf(&b, "Title: %s\nCreator: %s\nDescription: %s\n", video.Title, video.Uploader, video.Description)
	}
	fmt.Fprintf(&b, "\nTranscript:\n%s", transcript)
	return strings.TrimSpace(b.String()), nil
}

var unsafeChars = regexp.MustCompile(`[^\w\-]`)

// TranscriptName returns "<platform>_<sanitized url, first 50 chars>.txt".
func TranscriptName(url string, platform Platform) string {
	safe := unsafeChars.ReplaceAllString(url, "_")
	if len(safe) > 50 {
		safe = safe[:50]
	}
	return string(platform) + "_" + safe + ".txt"
}

// SaveTranscript writes content to dir and returns the file path.
func SaveTranscript(dir, url string, platform Platform, content string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("transcripts directory is not set")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create transcripts dir: %w", err)
	}

	rule := strings.Repeat("=", 50)
	data := "URL: " + url + "\n" + rule + "\n\n" + content + "\n" + rule + "\n"

	path := filepath.Join(dir, TranscriptName(url, platform))
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
