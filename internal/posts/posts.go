// Package posts turns free text into individual, cleaned posts.
package posts

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hpungsan/tweetsched/internal/llm"
)

// MaxLength is the longest post the platform accepts.
const MaxLength = 280

const cleanSystemPrompt = `You prepare posts for a social media schedule. For every post:
1. Drop numbering at the start.
2. Drop quotes wrapped around the whole post.
3. Drop hashtags such as #Motivation.
4. Drop emojis.
5. Keep the message itself unchanged.
6. Keep line breaks inside a post when the text is laid out over several lines.
7. Trim whitespace at the start and end of each line.
8. Use plain ASCII quotes and apostrophes.
9. Decide where one post ends and the next begins.`

const cleanUserPrompt = "Split the text below into individual posts and clean each one. " +
	"Keep line breaks inside a post.\n\n%s\n\n" +
	"Reply with the cleaned posts only, separated by one blank line."

var replacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'",
	"–", "-",
)

// Normalize swaps typographic quotes and en dashes for ASCII.
func Normalize(s string) string {
	return replacer.Replace(s)
}

// Split breaks text on blank lines, trimming and normalizing every block.
func Split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range blankLine.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, Normalize(block))
	}
	return out
}

var (
	blankLine = regexp.MustCompile(`\n[ \t]*\n`)
	numbering = regexp.MustCompile(`^\s*(?:\d+[.)]|\d+/\d*|[-*\x{2022}])\s+`)
	hashtag   = regexp.MustCompile(`(^|\s)#[\p{L}\p{N}_]+`)
	spaces    = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean applies the cleaning rules without a model: numbering, wrapping
// quotes, hashtags and emojis go; line breaks stay.
func Clean(post string) string {
	post = Normalize(strings.TrimSpace(post))
	post = numbering.ReplaceAllString(post, "")
	post = hashtag.ReplaceAllString(post, "$1")
	post = stripEmoji(post)

	lines := strings.Split(post, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(spaces.ReplaceAllString(l, " "))
	}
	post = strings.TrimSpace(strings.Join(lines, "\n"))

	if len(post) >= 2 && post[0] == '"' && post[len(post)-1] == '"' {
		post = strings.TrimSpace(post[1 : len(post)-1])
	}
	return post
}

func stripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.So, r),
			unicode.Is(unicode.Sk, r) && r >= 0x1F3FB && r <= 0x1F3FF,
			r == 0xFE0F, r == 0x200D:
			return -1
		}
		return r
	}, s)
}

// Generator splits text into posts, asking a model when one is available.
type Generator struct {
	model llm.Completer
}

// NewGenerator creates a Generator. A nil model cleans posts locally.
func NewGenerator(model llm.Completer) *Generator {
	return &Generator{model: model}
}

// Generate returns the cleaned posts found in text.
func (g *Generator) Generate(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if g.model == nil {
		return cleanAll(Split(text)), nil
	}

	reply, err := g.model.Complete(ctx, llm.Prompt{
		System: cleanSystemPrompt,
		User:   fmt.Sprintf(cleanUserPrompt, Normalize(text)),
	})
	if err != nil {
		return nil, err
	}
	return Split(reply), nil
}

func cleanAll(in []string) []string {
	out := in[:0]
	for _, p := range in {
		if c := Clean(p); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Truncate cuts s to max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// TruncateSentences keeps whole sentences while they fit in max runes.
// When even the first sentence is too long it falls back to Truncate.
func TruncateSentences(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}

	var b strings.Builder
	for _, sentence := range strings.SplitAfter(s, ". ") {
		candidate := b.String() + sentence
		if utf8.RuneCountInString(strings.TrimSpace(candidate)) > max {
			break
		}
		b.WriteString(sentence)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return Truncate(s, max)
	}
	return out
}
