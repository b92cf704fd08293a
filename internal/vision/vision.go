// Package vision pulls post text out of screenshots.
package vision

import (
	"context"
	"net/http"
	"strings"

	"github.com/hpungsan/tweetsched/internal/llm"
)

// DefaultInstructions asks the model for the visible text only.
const DefaultInstructions = `Extract all text content from these images.
1. Copy the text exactly as it appears.
2. Keep the original formatting and line breaks.
3. Leave out UI elements and metadata such as names, handles, counts and timestamps.
4. Do not add labels or numbering such as "Tweet 1:".
5. Separate distinct text blocks with a blank line.

Reply with the extracted text only, no explanations.

Example: for an image showing
Tweet 2: "Scare a programmer with only one word. Go!"
reply with
"Scare a programmer with only one word. Go!"`

// Extract reads the text from images and returns one string per text block.
// Empty instructions fall back to DefaultInstructions.
func Extract(ctx context.Context, reader llm.ImageReader, images []llm.Image, instructions string) ([]string, error) {
	var usable []llm.Image
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		if img.MIMEType == "" {
			img.MIMEType = DetectMIME(img.Data)
		}
		usable = append(usable, img)
	}
	if len(usable) == 0 {
		return nil, nil
	}

	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}

	text, err := reader.ReadImages(ctx, instructions, usable)
	if err != nil {
		return nil, err
	}
	return Blocks(text), nil
}

// Blocks splits text on blank lines and drops empty blocks.
func Blocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, b := range strings.Split(text, "\n\n") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// DetectMIME sniffs an image type, defaulting to JPEG.
func DetectMIME(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/jpeg"
}
