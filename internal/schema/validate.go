package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"topogen/internal/diag"
)

// Structural issue kinds.
const (
	KindMissingField     diag.Kind = "MissingField"
	KindWrongType        diag.Kind = "WrongType"
	KindInvalidEnum      diag.Kind = "InvalidEnum"
	KindInvalidNumber    diag.Kind = "InvalidNumber"
	KindOutOfRange       diag.Kind = "OutOfRange"
	KindNonPositiveValue diag.Kind = "NonPositiveValue"
)

// Options tunes the structural check.
type Options struct {
	// CheckPositive rejects non-positive values of Positive fields here
	// instead of leaving them to the semantic validator.
	CheckPositive bool
}

// Validate checks raw against the Topology descriptor and returns every
// violation it finds in one pass.
func Validate(raw map[string]any, opts Options) []diag.Issue {
	v := &validator{opts: opts}
	v.object("", raw, Topology)
	return v.issues
}

type validator struct {
	opts   Options
	issues []diag.Issue
}

func (v *validator) add(i diag.Issue) { v.issues = append(v.issues, i) }

func (v *validator) object(path string, obj map[string]any, fields []Field) {
	for _, f := range fields {
		p := joinPath(path, f.Key)
		val, present := obj[f.Key]
		if !present || val == nil {
			if f.Required {
				v.add(diag.Errorf(KindMissingField, p, nil, "required field %q is missing", f.Key).WithHint(f.Hint))
			}
			continue
		}
		v.field(p, f, val)
	}
}

func (v *validator) field(p string, f Field, val any) {
	switch f.Type {
	case String:
		s, ok := val.(string)
		if !ok {
			v.wrongType(p, f, val)
			return
		}
		if f.Required && strings.TrimSpace(s) == "" {
			v.add(diag.Errorf(KindMissingField, p, nil, "required field %q is empty", f.Key).WithHint(f.Hint))
			return
		}
		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			v.add(diag.Errorf(KindInvalidEnum, p, []string{s}, "%q is not a permitted value", s).
				WithHint("use one of: " + strings.Join(f.Enum, ", ")))
		}

	case Int:
		n, ok := asInt(val)
		if !ok {
			v.add(diag.Errorf(KindInvalidNumber, p, []string{fmt.Sprint(val)}, "%v is not an integer", val).WithHint(f.Hint))
			return
		}
		if f.Max > 0 && (n < f.Min || n > f.Max) {
			v.add(diag.Errorf(KindOutOfRange, p, []string{strconv.Itoa(n)}, "%d is outside [%d, %d]", n, f.Min, f.Max).WithHint(f.Hint))
		}

	case Float:
		x, ok := asFloat(val)
		if !ok {
			v.add(diag.Errorf(KindInvalidNumber, p, []string{fmt.Sprint(val)}, "%v is not a number", val).
				WithHint("write a decimal or scientific literal, e.g. 0.01 or 1e-2"))
			return
		}
		if f.Positive && v.opts.CheckPositive && x <= 0 {
			v.add(diag.Errorf(KindNonPositiveValue, p, []string{fmt.Sprint(val)}, "%v must be greater than zero", val))
		}

	case StringList:
		l, ok := val.([]any)
		if !ok {
			v.wrongType(p, f, val)
			return
		}
		for i, e := range l {
			if s, ok := e.(string); !ok || strings.TrimSpace(s) == "" {
				v.add(diag.Errorf(KindWrongType, fmt.Sprintf("%s[%d]", p, i), nil, "expected a non-empty string, got %s", describe(e)))
			}
		}

	case Object:
		m, ok := val.(map[string]any)
		if !ok {
			v.wrongType(p, f, val)
			return
		}
		v.object(p, m, f.Fields)

	case ObjectList:
		l, ok := val.([]any)
		if !ok {
			v.wrongType(p, f, val)
			return
		}
		for i, e := range l {
			ep := fmt.Sprintf("%s[%d]", p, i)
			m, ok := e.(map[string]any)
			if !ok {
				v.add(diag.Errorf(KindWrongType, ep, nil, "expected a mapping, got %s", describe(e)))
				continue
			}
			v.object(ep, m, f.Fields)
		}
	}
}

func (v *validator) wrongType(p string, f Field, val any) {
	v.add(diag.Errorf(KindWrongType, p, nil, "expected %s, got %s", f.Type, describe(val)).WithHint(f.Hint))
}

// ---------------------------------------------------------------------------
// Value helpers
// ---------------------------------------------------------------------------

// asInt accepts integer types, integral floats and integer strings.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// asFloat accepts numbers and strings in decimal or scientific notation.
func asFloat(v any) (float64, bool) {
	var x float64
	switch n := v.(type) {
	case int:
		x = float64(n)
	case int64:
		x = float64(n)
	case uint64:
		x = float64(n)
	case float64:
		x = n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
