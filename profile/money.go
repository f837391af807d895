package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a non-negative amount in cents.
type Money int64

// MaxMoney is the largest representable amount. Larger inputs clamp to it.
const MaxMoney = Money(math.MaxInt64)

// Add returns m+o, saturating at MaxMoney.
func (m Money) Add(o Money) Money {
	m, o = clampMoney(m), clampMoney(o)
	if m > MaxMoney-o {
		return MaxMoney
	}
	return m + o
}

// Dollars returns the amount in whole currency units.
func (m Money) Dollars() float64 {
	return float64(m) / 100
}

// String formats the amount as "$1,234.56".
func (m Money) String() string {
	cents := int64(m)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}

// UnmarshalJSON accepts a bare integer or the legacy {"cents": n} object.
// Negative amounts load as zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*m = clampMoney(Money(n))
		return nil
	}

	var obj struct {
		Cents int64 `json:"cents"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid money value %s: %w", data, err)
	}
	*m = clampMoney(Money(obj.Cents))
	return nil
}

// ParseMoney coerces a loosely-typed value to Money. Numbers are whole
// currency: 2000 and 2000.0 are both $2,000.00. Strings keep only digits and
// the decimal point, so "around $2,000" parses the same way. Anything
// unparseable, nil, or negative yields zero; amounts beyond MaxMoney clamp.
func ParseMoney(v any) Money {
	switch t := v.(type) {
	case nil:
		return 0
	case Money:
		return clampMoney(t)
	case int:
		return fromWhole(float64(t))
	case int32:
		return fromWhole(float64(t))
	case int64:
		return fromWhole(float64(t))
	case float32:
		return fromWhole(float64(t))
	case float64:
		return fromWhole(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return fromWhole(f)
	case string:
		return parseMoneyString(t)
	default:
		return 0
	}
}

func parseMoneyString(s string) Money {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return fromWhole(f)
}

func fromWhole(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	cents := math.Round(f * 100)
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if cents >= float64(MaxMoney) {
		return MaxMoney
	}
	return Money(cents)
}

func clampMoney(m Money) Money {
	if m < 0 {
		return 0
	}
	return m
}
