// Package llm wraps the language model providers used to write posts, read
// images, and transcribe audio.
package llm

import (
	"context"
	"time"

	"github.com/hpungsan/tweetsched/internal/errors"
)

// Prompt is a single-turn chat request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Image is an encoded image passed to a vision model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Completer answers a chat prompt with text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// ImageReader extracts text from images following instructions.
type ImageReader interface {
	ReadImages(ctx context.Context, instructions string, images []Image) (string, error)
}

// Transcriber turns an audio or video file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Clients bundles one implementation of each capability.
type Clients struct {
	Completer   Completer
	Vision      ImageReader
	Transcriber Transcriber
}

// unconfigured reports NOT_CONFIGURED whenever it is used, so commands that
// never touch the model still run without a key.
type unconfigured struct {
	setting string
}

func (u unconfigured) Complete(context.Context, Prompt) (string, error) {
	return "", errors.NewNotConfigured(u.setting)
}

func (u unconfigured) ReadImages(context.Context, string, []Image) (string, error) {
	return "", errors.NewNotConfigured(u.setting)
}

func (u unconfigured) Transcribe(context.Context, string) (string, error) {
	return "", errors.NewNotConfigured(u.setting)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
