// Package structured decodes JSON objects out of model output and reflects
// response schemas from Go types.
//
// Model output is often wrapped in a markdown code fence, surrounded by prose,
// or written with thousands separators inside numbers. Decode tolerates all
// three before giving up with ErrMalformed.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformed is returned when no JSON object can be recovered from text.
var ErrMalformed = errors.New("malformed structured output")

var (
	fencePattern     = regexp.MustCompile("(?s)(?:```|~~~)[A-Za-z0-9_-]*[ \t]*\\n?(.*?)(?:```|~~~)")
	thousandsPattern = regexp.MustCompile(`(\d),(\d{3})\b`)
)

// Decode extracts the JSON object in text into v.
func Decode(text string, v any) error {
	var lastErr error
	for _, candidate := range candidates(text) {
		err := json.Unmarshal([]byte(candidate), v)
		if err == nil {
			return nil
		}
		lastErr = err

		cleaned := stripThousands(candidate)
		if cleaned == candidate {
			continue
		}
		if err := json.Unmarshal([]byte(cleaned), v); err == nil {
			return nil
		}
	}
	if lastErr == nil {
		lastErr = errors.New("empty output")
	}
	return fmt.Errorf("%w: %v", ErrMalformed, lastErr)
}

// Object extracts a JSON object from text as a generic map.
func Object(text string) (map[string]any, error) {
	var m map[string]any
	if err := Decode(text, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformed)
	}
	return m, nil
}

// candidates returns the substrings of text worth trying, most specific first.
func candidates(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		for _, seen := range out {
			if seen == s {
				return
			}
		}
		out = append(out, s)
	}

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		add(m[1])
	}
	add(text)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		add(text[start : end+1])
	}

	return out
}

func stripThousands(s string) string {
	for {
		next := thousandsPattern.ReplaceAllString(s, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}
