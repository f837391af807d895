package profile

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var hedgeWords = []string{"around", "about", "approximately", "approx", "roughly", "estimate", "~"}

// Hedged reports whether v is a string qualified with a hedge word such as
// "around" or "~".
func Hedged(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	for _, w := range hedgeWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// toInt coerces a count-like value. Strings use their first run of digits.
func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case string:
		start := strings.IndexFunc(t, isDigit)
		if start < 0 {
			return wordNumber(t)
		}
		end := start
		for end < len(t) && isDigit(rune(t[end])) {
			end++
		}
		n, err := strconv.Atoi(t[start:end])
		return n, err == nil
	}
	return 0, false
}

func wordNumber(s string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "no", "zero":
		return 0, true
	case "one":
		return 1, true
	case "two":
		return 2, true
	case "three":
		return 3, true
	case "four":
		return 4, true
	case "five":
		return 5, true
	}
	return 0, false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// toBool coerces a yes/no value. ok is false when v says nothing either way.
func toBool(v any) (value, ok bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

// toInts coerces a list of ages or similar counts.
func toInts(v any) []int {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []int:
		return append([]int(nil), t...)
	case string:
		for _, part := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
			items = append(items, part)
		}
	default:
		return nil
	}

	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := toInt(item); ok && n >= 0 {
			out = append(out, n)
		}
	}
	return out
}

// present reports whether a field holds a non-null value.
func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

func section(data map[string]any, name string) map[string]any {
	m, _ := data[name].(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}
