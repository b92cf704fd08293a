package llm

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hpungsan/tweetsched/internal/errors"
)

// OpenAI talks to the OpenAI API (or any server speaking its wire format).
type OpenAI struct {
	client             *openai.Client
	model              string
	visionModel        string
	transcriptionModel string
	timeout            time.Duration
}

// OpenAIOptions configures NewOpenAI.
type OpenAIOptions struct {
	APIKey             string
	BaseURL            string
	Model              string
	VisionModel        string
	TranscriptionModel string
	Timeout            time.Duration
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(opts OpenAIOptions) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	o := &OpenAI{
		client:             openai.NewClientWithConfig(cfg),
		model:              opts.Model,
		visionModel:        opts.VisionModel,
		transcriptionModel: opts.TranscriptionModel,
		timeout:            opts.Timeout,
	}
	if o.model == "" {
		o.model = openai.GPT4
	}
	if o.visionModel == "" {
		o.visionModel = openai.GPT4oMini
	}
	if o.transcriptionModel == "" {
		o.transcriptionModel = openai.Whisper1
	}
	return o
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	var msgs []openai.ChatCompletionMessage
	if p.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.User})

	return o.chat(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	})
}

// ReadImages implements ImageReader. Images travel as base64 data URLs.
func (o *OpenAI) ReadImages(ctx context.Context, instructions string, images []Image) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: instructions}}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    DataURL(img),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}

	return o.chat(ctx, openai.ChatCompletionRequest{
		Model:     o.visionModel,
		MaxTokens: 1000,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
}

// Transcribe implements Transcriber.
func (o *OpenAI) Transcribe(ctx context.Context, path string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.transcriptionModel,
		FilePath: path,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", errors.NewUpstreamFailed("transcription", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (o *OpenAI) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.NewUpstreamFailed("language model", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewUpstreamFailed("language model", errEmptyResponse)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// DataURL encodes img as a data: URL.
func DataURL(img Image) string {
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
