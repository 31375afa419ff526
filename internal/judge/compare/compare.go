// Package compare decides whether a submission's answer is equivalent to the
// expected answer. Values are JSON-like: nil, bool, numbers (json.Number or Go
// numeric kinds), string, []any and map[string]any.
//
// The generated harnesses re-express the same rules in their own language, so
// any change here must be mirrored in the harness templates.
package compare

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Options tunes comparison for a problem.
type Options struct {
	// OrderSensitive compares arrays element by element in the given order.
	// The default sorts both sides first.
	OrderSensitive bool
}

// Equal reports whether actual matches expected using the default options.
func Equal(expected, actual any) bool {
	return Options{}.Equal(expected, actual)
}

// Equal reports whether actual matches expected.
func (o Options) Equal(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case bool:
		return equalBool(exp, actual)
	case string:
		act, ok := actual.(string)
		if !ok {
			return false
		}
		return strings.TrimSpace(exp) == strings.TrimSpace(act)
	case []any:
		act, ok := actual.([]any)
		if !ok || len(exp) != len(act) {
			return false
		}
		return o.equalArray(exp, act)
	}

	if num, ok := toDecimal(expected); ok {
		return equalNumber(expected, num, actual)
	}
	return structuralEqual(expected, actual)
}

func equalBool(expected bool, actual any) bool {
	switch act := actual.(type) {
	case bool:
		return act == expected
	case string:
		return strings.EqualFold(strings.TrimSpace(act), strconv.FormatBool(expected))
	}
	return false
}

func equalNumber(raw any, expected decimal.Decimal, actual any) bool {
	if act, ok := actual.(string); ok {
		text := strings.TrimSpace(act)
		if text == numberText(raw) {
			return true
		}
		parsed, err := decimal.NewFromString(text)
		if err != nil {
			return false
		}
		return parsed.Equal(expected)
	}
	if _, isBool := actual.(bool); isBool {
		return false
	}
	act, ok := toDecimal(actual)
	return ok && act.Equal(expected)
}

func (o Options) equalArray(expected, actual []any) bool {
	if o.OrderSensitive {
		for i := range expected {
			if !o.Equal(expected[i], actual[i]) {
				return false
			}
		}
		return true
	}

	left, okLeft := sortedCopy(expected)
	right, okRight := sortedCopy(actual)
	if !okLeft || !okRight {
		return structuralEqual(expected, actual)
	}
	for i := range left {
		if !o.Equal(left[i], right[i]) {
			return false
		}
	}
	return true
}

// sortedCopy sorts a copy of values with the default ordering. It reports
// false when two elements cannot be ordered against each other.
func sortedCopy(values []any) ([]any, bool) {
	out := make([]any, len(values))
	copy(out, values)
	orderable := true
	sort.SliceStable(out, func(i, j int) bool {
		cmp, ok := order(out[i], out[j])
		if !ok {
			orderable = false
			return false
		}
		return cmp < 0
	})
	if len(out) == 1 {
		_, orderable = order(out[0], out[0])
	}
	return out, orderable
}

// order is the default ordering: numbers numerically, strings
// lexicographically, false before true, arrays lexicographically by element.
// Anything else, including mixed kinds, is not orderable.
func order(a, b any) (int, bool) {
	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case []any:
		y, ok := b.([]any)
		if !ok {
			return 0, false
		}
		for i := 0; i < len(x) && i < len(y); i++ {
			cmp, ok := order(x[i], y[i])
			if !ok {
				return 0, false
			}
			if cmp != 0 {
				return cmp, true
			}
		}
		switch {
		case len(x) < len(y):
			return -1, true
		case len(x) > len(y):
			return 1, true
		}
		return 0, true
	}

	if _, isBool := b.(bool); isBool {
		return 0, false
	}
	x, okX := toDecimal(a)
	y, okY := toDecimal(b)
	if !okX || !okY {
		return 0, false
	}
	return x.Cmp(y), true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromInt(int64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	}
	return decimal.Decimal{}, false
}

func numberText(v any) string {
	switch n := v.(type) {
	case json.Number:
		return n.String()
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	}
	d, _ := toDecimal(v)
	return d.String()
}

func structuralEqual(expected, actual any) bool {
	left, err := Canonical(expected)
	if err != nil {
		return false
	}
	right, err := Canonical(actual)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// Canonical returns the canonical JSON encoding used for structural equality.
// Object keys are sorted and numbers are normalized, so 1 and 1.0 encode alike.
func Canonical(v any) ([]byte, error) {
	return json.Marshal(normalize(v))
}

func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = normalize(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case bool, string, nil:
		return x
	}
	if d, ok := toDecimal(v); ok {
		return json.Number(d.String())
	}
	return v
}

// Decode parses a serialized value the way the engine reads test data:
// numbers keep their exact text. Text that is not valid JSON decodes to
// itself as a plain string.
func Decode(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if dec.More() {
		return raw
	}
	return v
}
