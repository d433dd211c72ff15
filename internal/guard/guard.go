// Package guard screens visitor questions before they reach the retrieval
// pipeline: strips markup, normalises whitespace, and rejects prompt
// extraction attempts and unsafe content.
package guard

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	allowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,?!'-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// StrictHTMLPolicy returns a cached bluemonday policy that strips every
// HTML element and attribute, leaving plain text.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Sanitize strips HTML, removes characters outside letters, digits and
// basic punctuation, and collapses whitespace. An empty result means the
// question carried no usable content.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = StrictHTMLPolicy().Sanitize(s)
	// bluemonday escapes &, quotes and angle brackets; fold the entities
	// back to characters before filtering so they do not leak as words.
	s = html.UnescapeString(s)
	s = allowedChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var injectionPatterns = compileAll([]string{
	`system\s*(prompt|message|instruction)`,
	`ignore .*previous.*instruction`,
	`(echo|repeat|print|output|reveal) .*(instruction|prompt)`,
	`what was your instruction`,
	`what.*\s?prompts?.*given`,
	`your prompt`,
	`show me your (prompt|instruction|configuration)`,
	`(do not|don'?t) omit`,
	`without omitting`,
	`show (everything|all|complete)`,
	`display (all|the entire|full|complete)`,
	`print (all|everything|without omission)`,
	`word for word`,
	`verbatim`,
	`copy and paste`,
	`output the (exact|precise|literal)`,
	`(do not|don'?t) (filter|withhold|exclude)`,
	`include everything`,
	`disregard (previous|your|above|safety)`,
	`bypass`,
	`override`,
	`return full content`,
	`give me the full`,
	`ignore previous instructions`,
	`disregard`,
	`forget`,
	`you are not`,
	`new role`,
	`instead of`,
	`(do not|don'?t) (be|act)`,
	`stop being`,
})

var unsafePatterns = compileAll([]string{
	`hack`,
	`exploit`,
	`(credit|debit)\s?card`,
	`password`,
	`credentials`,
	`social security`,
	`confidential`,
	`jailbreak`,
	`ddos`,
	`attack`,
	`(^|\s)(sex|porn|nude|naked)`,
	`(^|\s)(illegal|crime)`,
	`(^|\s)(drug|cocaine|heroin)`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// DetectInjection reports whether the question looks like an attempt to
// extract or override the system prompt. Matching is case-insensitive.
func DetectInjection(question string) bool {
	lower := strings.ToLower(question)
	for _, re := range injectionPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Safe reports whether the question passes the content-safety screen.
func Safe(question string) bool {
	lower := strings.ToLower(question)
	for _, re := range unsafePatterns {
		if re.MatchString(lower) {
			return false
		}
	}
	return true
}
