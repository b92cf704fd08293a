package article

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SummaryLength is the default summary cap in runes.
const SummaryLength = 200

// minSentence is the length a sentence needs before it counts as substantial.
const minSentence = 50

var whitespace = regexp.MustCompile(`\s+`)

// PlainText strips markdown syntax and returns the text on one line.
func PlainText(markdown string) string {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(node.Value)
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := node.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.Write(seg.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		default:
			if !entering && n.Type() == ast.TypeBlock {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(whitespace.ReplaceAllString(sb.String(), " "))
}

// Summarize picks the first substantial sentence of markdown, capped at max runes.
func Summarize(markdown string, max int) string {
	if max <= 0 {
		max = SummaryLength
	}
	clean := PlainText(markdown)
	if clean == "" {
		return ""
	}

	sentences := strings.Split(clean, ".")
	summary := ""
	for _, s := range sentences {
		if s = strings.TrimSpace(s); utf8.RuneCountInString(s) > minSentence {
			summary = s
			break
		}
	}
	if summary == "" {
		summary = strings.TrimSpace(sentences[0])
	}

	if utf8.RuneCountInString(summary) > max {
		return string([]rune(summary)[:max]) + "..."
	}
	return summary
}
