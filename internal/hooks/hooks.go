// Package hooks holds the catalogue of opening-line templates offered to writers.
package hooks

import (
	"sort"
	"strings"
)

// Category is a named group of hook templates. Placeholders are written as {name}.
type Category struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Examples []string `json:"examples"`
}

var order = []string{"question", "challenge", "story", "authority", "stats"}

var catalogue = map[string]Category{
	"question": {
		Key:   "question",
		Title: "Question Hooks",
		Examples: []string{
			"So I asked, 'What's the best way to {outcome}?'",
			"Want to {outcome}? Here's how...",
			"How do you {action} that {outcome}?",
			"You don't {outcome} based on {common activity}?",
			"If you want to {outcome}, this thread shares {number} ways to do it:",
			"If you suffer from {pain_point}... I eventually overcame it. {number} things happened:",
			"Want to {outcome}? {action}. This is a small change that can make a huge difference.",
		},
	},
	"challenge": {
		Key:   "challenge",
		Title: "Challenge Common Beliefs",
		Examples: []string{
			"{common_belief} Wrong. {topic} can totally change your life.",
			"Most people are trying to {outcome} the hard way. Here's the easy way...",
			"You don't {outcome} based on {common activity}...",
			"{niche} is super competitive. But with the proper system, you can stand out.",
			"{skill} is a superpower. It's the key to {outcome}",
			"{skill} gives you competitive advantage. But most things you've been told are lies.",
			"These are the {number} lies you were told about {topic}",
		},
	},
	"story": {
		Key:   "story",
		Title: "Story Hooks",
		Examples: []string{
			"I failed to {action} 3 times. Then I tried this...",
			"In {time_period}, I went from {past} to {present}...",
			"Here's how I {outcome} with ZERO experience...",
			"I spent {amount} on {tools} in the past {time_period}",
			"I've been {doing_what} for {time_period}. This is the advice I'd give myself.",
			"The single best thing I've done in my life: {achievement}",
			"{platform} allowed me to 10x my {outcome}",
		},
	},
	"authority": {
		Key:   "authority",
		Title: "Authority Hooks",
		Examples: []string{
			"I studied the top {number} {experts} in {field}...",
			"In a rare {expert} interview, they revealed...",
			"{expert} turned {small} into {big}...",
			"Leading experts reveal the truth about {topic}...",
			"New research shows surprising facts about {topic}...",
			"Industry insiders share game-changing insights on {topic}...",
			"The KING of {platform}: {expert_name}. Over the {time_period}, they've {achievement}",
		},
	},
	"stats": {
		Key:   "stats",
		Title: "Statistics & Numbers",
		Examples: []string{
			"{number} things {authority} didn't teach me about {topic}",
			"I read {number} {content_type} and discovered why they went viral",
			"These are the {number} strategies that give you the highest ROI in {niche}",
			"If you use it right, {platform} is worth more than your degree. Here are {number} ways to {outcome}",
			"{percentage} of people get this wrong about {topic}. Here's the truth...",
		},
	},
}

// Keys returns the category keys in display order.
func Keys() []string {
	return append([]string(nil), order...)
}

// Get returns a copy of one category.
func Get(key string) (Category, bool) {
	c, ok := catalogue[key]
	if !ok {
		return Category{}, false
	}
	c.Examples = append([]string(nil), c.Examples...)
	return c, true
}

// All returns every category in display order.
func All() []Category {
	out := make([]Category, 0, len(order))
	for _, k := range order {
		c, _ := Get(k)
		out = append(out, c)
	}
	return out
}

// ByKey returns the catalogue keyed by category, the shape served to the web form.
func ByKey() map[string]Category {
	out := make(map[string]Category, len(catalogue))
	for _, k := range order {
		out[k], _ = Get(k)
	}
	return out
}

// Placeholders lists the distinct {name} placeholders used by a category, sorted.
func Placeholders(c Category) []string {
	seen := make(map[string]bool)
	for _, ex := range c.Examples {
		for {
			start := strings.IndexByte(ex, '{')
			if start < 0 {
				break
			}
			end := strings.IndexByte(ex[start:], '}')
			if end < 0 {
				break
			}
			seen[ex[start+1:start+end]] = true
			ex = ex[start+end+1:]
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
