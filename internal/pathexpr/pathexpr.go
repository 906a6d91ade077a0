// Package pathexpr evaluates small path expressions against decoded JSON
// values. An expression addresses a value inside nested maps and slices via
// dotted keys and bracketed indices, e.g. "awards[0].value.amount". The
// wrapper form "len(expr)" returns the length of the addressed sequence.
//
// Resolution is total: any missing key, out-of-range index, or type mismatch
// yields nil. It never panics.
package pathexpr

import (
	"strconv"
	"strings"
)

// Resolve evaluates expr against record and returns the addressed value, or
// nil when the path does not exist. An empty expression resolves to the whole
// record.
func Resolve(record any, expr string) any {
	if inner, ok := lenArg(expr); ok {
		seq, isSeq := Resolve(record, inner).([]any)
		if !isSeq {
			return 0
		}
		return len(seq)
	}

	value := record
	for _, part := range splitPath(expr) {
		switch v := value.(type) {
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			value = v[idx]
		case map[string]any:
			inner, ok := v[part]
			if !ok {
				return nil
			}
			value = inner
		default:
			return nil
		}
	}
	return value
}

// lenArg reports whether expr is a len(...) wrapper and returns the inner
// expression.
func lenArg(expr string) (string, bool) {
	if !strings.HasPrefix(expr, "len(") || !strings.HasSuffix(expr, ")") {
		return "", false
	}
	inner := expr[len("len(") : len(expr)-1]
	if inner == "" {
		return "", false
	}
	return inner, true
}

// splitPath breaks an expression into segments on '.', '[' and ']'. Adjacent
// separators collapse: no empty segments are produced.
func splitPath(expr string) []string {
	raw := strings.FieldsFunc(expr, func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})
	return raw
}
