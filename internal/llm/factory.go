package llm

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/tweetsched/internal/config"
	"github.com/hpungsan/tweetsched/internal/errors"
)

// New builds the clients for the configured provider.
//
// Gemini has no transcription endpoint here, so a gemini setup transcribes
// through OpenAI when TranscriptionAPIKey is set. Missing keys yield clients
// that fail with NOT_CONFIGURED when called.
func New(ctx context.Context, cfg config.LLMConfig) (*Clients, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		if cfg.APIKey == "" {
			u := unconfigured{setting: "OPENAI_API_KEY"}
			return &Clients{Completer: u, Vision: u, Transcriber: u}, nil
		}
		o := NewOpenAI(OpenAIOptions{
			APIKey:             cfg.APIKey,
			BaseURL:            cfg.BaseURL,
			Model:              cfg.Model,
			VisionModel:        cfg.VisionModel,
			TranscriptionModel: cfg.TranscriptionModel,
			Timeout:            timeout,
		})
		return &Clients{Completer: o, Vision: o, Transcriber: o}, nil

	case "gemini":
		c := &Clients{}
		if cfg.APIKey == "" {
			u := unconfigured{setting: "GEMINI_API_KEY"}
			c.Completer, c.Vision = u, u
		} else {
			g, err := NewGemini(ctx, GeminiOptions{
				APIKey:      cfg.APIKey,
				BaseURL:     cfg.BaseURL,
				Model:       geminiModel(cfg.Model),
				VisionModel: geminiModel(cfg.VisionModel),
				Timeout:     timeout,
			})
			if err != nil {
				return nil, errors.NewUpstreamFailed("gemini client", err)
			}
			c.Completer, c.Vision = g, g
		}
		if cfg.TranscriptionAPIKey == "" {
			c.Transcriber = unconfigured{setting: "OPENAI_API_KEY"}
		} else {
			c.Transcriber = NewOpenAI(OpenAIOptions{
				APIKey:             cfg.TranscriptionAPIKey,
				TranscriptionModel: cfg.TranscriptionModel,
				Timeout:            timeout,
			})
		}
		return c, nil

	default:
		return nil, errors.NewInvalidRequest("unknown llm provider: " + cfg.Provider)
	}
}

// geminiModel drops OpenAI model names that leak in from the defaults.
func geminiModel(name string) string {
	if strings.HasPrefix(name, "gpt-") {
		return ""
	}
	return name
}
