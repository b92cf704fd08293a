package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hpungsan/tweetsched/internal/errors"
)

var errEmptyResponse = stderrors.New("empty response")

// Gemini talks to Google's Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	visionModel string
	timeout     time.Duration
}

// GeminiOptions configures NewGemini.
type GeminiOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	g := &Gemini{client: client, model: opts.Model, visionModel: opts.VisionModel, timeout: opts.Timeout}
	if g.model == "" {
		g.model = "gemini-2.0-flash"
	}
	if g.visionModel == "" {
		g.visionModel = g.model
	}
	return g, nil
}

// Complete implements Completer.
func (g *Gemini) Complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.Temperature > 0 {
		cfg.Temperature = genai.Ptr(p.Temperature)
	}

	return g.generate(ctx, g.model, genai.Text(p.User), cfg)
}

// ReadImages implements ImageReader. Images travel as inline parts.
func (g *Gemini) ReadImages(ctx context.Context, instructions string, images []Image) (string, error) {
	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(instructions)}
	for _, img := range images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	return g.generate(ctx, g.visionModel, contents, nil)
}

func (g *Gemini) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", errors.NewUpstreamFailed("language model", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.NewUpstreamFailed("language model", errEmptyResponse)
	}
	return text, nil
}
