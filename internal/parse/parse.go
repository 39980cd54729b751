// Package parse is the single defense boundary against malformed model
// output. Every consumer of completion text routes extraction through these
// functions; they return documented fallbacks and never an error.
package parse

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"lead-insights-go/internal/types"
)

// Number parses raw as a float. Fallback on empty or non-numeric input.
func Number(raw string, fallback float64) float64 {
	s := strings.TrimSpace(StripFences(raw))
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Integer parses raw as an int, tolerating a decimal answer ("3.0") since
// models return those for count questions. Fallback otherwise.
func Integer(raw string, fallback int) int {
	s := strings.TrimSpace(StripFences(raw))
	if s == "" {
		return fallback
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return fallback
}

// StripFences removes a leading/trailing Markdown code fence. Grammar: an
// opening ``` with an optional language tag up to the first newline, and a
// closing ``` on or after the last line. Inline single backticks are left
// alone; content without fences passes through unchanged.
func StripFences(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = s[3:]
	// drop the language tag line (e.g. "json")
	if i := strings.Index(s, "\n"); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || isLanguageTag(first) {
			s = s[i+1:]
		}
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return len(s) <= 10
}

// StringList extracts a named array-of-strings field from a (possibly
// fenced) JSON object. Empty slice on any parse or shape failure.
func StringList(raw, field string) []string {
	s := StripFences(raw)
	if s == "" {
		return []string{}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return []string{}
	}
	inner, ok := obj[field]
	if !ok {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(inner, &out); err != nil {
		return []string{}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

var decimalRe = regexp.MustCompile(`(?:0|1)?\.\d+|[01]\b`)

// RelevanceScore extracts a [0,1] relevance score from model output: a JSON
// "relevanceScore" field first, then the first decimal found by regex, then
// 0.5.
func RelevanceScore(raw string) float64 {
	s := StripFences(raw)
	var obj struct {
		RelevanceScore *float64 `json:"relevanceScore"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil && obj.RelevanceScore != nil {
		if v := *obj.RelevanceScore; v >= 0 && v <= 1 {
			return v
		}
	}
	if m := decimalRe.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil && v >= 0 && v <= 1 {
			return v
		}
	}
	return 0.5
}

// FilterActions keeps only entries from the fixed action vocabulary,
// preserving order. Untrusted values outside the vocabulary are dropped.
func FilterActions(actions []string) []string {
	allowed := make(map[string]struct{}, len(types.ActionVocabulary))
	for _, a := range types.ActionVocabulary {
		allowed[a] = struct{}{}
	}
	out := []string{}
	for _, a := range actions {
		if _, ok := allowed[strings.TrimSpace(a)]; ok {
			out = append(out, strings.TrimSpace(a))
		}
	}
	return out
}

// ClampInt bounds v to [lo,hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
