// Package normalize maps legacy encodings in a raw topology tree onto the
// canonical enum literals before the tree is lifted into a model.
//
// Tables:
//
//	mapping_type   0 rbf, 1 nearest-projection, 2 consistent, 3 conservative
//	coupling.type  0 serial-explicit, 1 serial-implicit, 2 parallel-explicit, 3 parallel-implicit
//	data type      "scalar" | "vector" | "tensor", anything else -> "vector"
//
// Unrecognized integer codes fall back to the first variant. Unrecognized
// mapping or coupling strings are left in place for the schema validator to
// reject. Normalize never mutates its input.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"topogen/internal/topology"
)

// Normalize returns a normalized deep copy of raw.
func Normalize(raw map[string]any) map[string]any {
	out, _ := clone(raw).(map[string]any)
	if out == nil {
		return map[string]any{}
	}

	for _, item := range listOf(out["data"]) {
		if d, ok := item.(map[string]any); ok {
			if v, present := d["type"]; present {
				d["type"] = string(DataKind(v))
			}
		}
	}
	for _, item := range listOf(out["participants"]) {
		if p, ok := item.(map[string]any); ok {
			if v, present := p["mapping_type"]; present {
				p["mapping_type"] = mappingLiteral(v)
			}
		}
	}
	if c, ok := out["coupling"].(map[string]any); ok {
		if v, present := c["type"]; present {
			c["type"] = couplingLiteral(v)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Enum tables
// ---------------------------------------------------------------------------

var mappingAliases = map[string]topology.MappingKind{
	"rbf":                 topology.MappingRBF,
	"radialbasisfunction": topology.MappingRBF,
	"nearestprojection":   topology.MappingNearestProjection,
	"consistent":          topology.MappingConsistent,
	"conservative":        topology.MappingConservative,
}

var couplingAliases = map[string]topology.CouplingKind{
	"serialexplicit":   topology.SerialExplicit,
	"serialimplicit":   topology.SerialImplicit,
	"parallelexplicit": topology.ParallelExplicit,
	"parallelimplicit": topology.ParallelImplicit,
}

// DataKind maps a raw data type value onto a DataKind. Anything that is not
// one of the three literals (case-insensitive) becomes Vector.
func DataKind(v any) topology.DataKind {
	s, ok := v.(string)
	if !ok {
		return topology.DefaultDataKind
	}
	if k, ok := topology.ParseDataKind(strings.ToLower(strings.TrimSpace(s))); ok {
		return k
	}
	return topology.DefaultDataKind
}

// MappingKind resolves a legacy mapping code or alternate spelling. The
// second result is false when v is a string outside the alias table.
func MappingKind(v any) (topology.MappingKind, bool) {
	if code, ok := intCode(v); ok {
		if code >= 0 && code < len(topology.MappingKinds) {
			return topology.MappingKinds[code], true
		}
		return topology.MappingKinds[0], true
	}
	if s, ok := v.(string); ok {
		k, found := mappingAliases[squash(s)]
		return k, found
	}
	return "", false
}

// CouplingKind resolves a legacy coupling code or alternate spelling. The
// second result is false when v is a string outside the alias table.
func CouplingKind(v any) (topology.CouplingKind, bool) {
	if code, ok := intCode(v); ok {
		if code >= 0 && code < len(topology.CouplingKinds) {
			return topology.CouplingKinds[code], true
		}
		return topology.CouplingKinds[0], true
	}
	if s, ok := v.(string); ok {
		k, found := couplingAliases[squash(s)]
		return k, found
	}
	return "", false
}

func mappingLiteral(v any) any {
	if k, ok := MappingKind(v); ok {
		return string(k)
	}
	return v
}

func couplingLiteral(v any) any {
	if k, ok := CouplingKind(v); ok {
		return string(k)
	}
	return v
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// intCode extracts a legacy integer code from ints, integral floats and
// digit-only strings.
func intCode(v any) (int, bool) {
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

// squash lowercases s and drops separators so "Serial_Explicit",
// "serial-explicit" and "SerialExplicit" compare equal.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case '-', '_', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func listOf(v any) []any {
	l, _ := v.([]any)
	return l
}

// clone deep-copies maps and slices of the raw tree. Scalars are immutable
// and shared.
func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}
