// Package verify implements the plan-and-envelope verification core: selectors,
// predicates, rulespecs, the datalog-style executor, and the keyed verification
// stamp minted when every predicate passes.
package verify

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSeq
	KindMap
)

// Value is the tagged sum type every YAML document is decoded into before a
// selector walks it. Selectors, the fact extractor, and the program formatter
// all operate by switching on Kind rather than on Go's native interface{}
// shape, so YAML's looser typing (e.g. "true" vs true) is normalized once.
type Value struct {
	Kind Kind
	Bool bool
	Num  float64
	Str  string
	Seq  []Value
	Map  map[string]Value
	// MapOrder preserves insertion order for deterministic map iteration
	// (string rendering, .dl emission).
	MapOrder []string
}

// FromYAML converts a value decoded by gopkg.in/yaml.v3 (via yaml.Unmarshal into
// an interface{}, or map[string]interface{}/[]interface{}) into a Value tree.
func FromYAML(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Value{Kind: KindNull}
	case bool:
		return Value{Kind: KindBool, Bool: t}
	case int:
		return Value{Kind: KindNumber, Num: float64(t)}
	case int64:
		return Value{Kind: KindNumber, Num: float64(t)}
	case float64:
		return Value{Kind: KindNumber, Num: t}
	case string:
		return Value{Kind: KindString, Str: t}
	case []interface{}:
		seq := make([]Value, len(t))
		for i, e := range t {
			seq[i] = FromYAML(e)
		}
		return Value{Kind: KindSeq, Seq: seq}
	case []Value:
		return Value{Kind: KindSeq, Seq: t}
	case map[string]interface{}:
		return mapFromStringKeyed(t)
	case map[interface{}]interface{}:
		ordered := make(map[string]interface{}, len(t))
		keys := make([]string, 0, len(t))
		for k, val := range t {
			ks := fmt.Sprintf("%v", k)
			ordered[ks] = val
			keys = append(keys, ks)
		}
		sort.Strings(keys)
		m := Value{Kind: KindMap, Map: make(map[string]Value, len(ordered)), MapOrder: keys}
		for _, k := range keys {
			m.Map[k] = FromYAML(ordered[k])
		}
		return m
	default:
		return Value{Kind: KindString, Str: fmt.Sprintf("%v", t)}
	}
}

func mapFromStringKeyed(t map[string]interface{}) Value {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := Value{Kind: KindMap, Map: make(map[string]Value, len(t)), MapOrder: keys}
	for _, k := range keys {
		m.Map[k] = FromYAML(t[k])
	}
	return m
}

// NewMap builds a KindMap Value from a set of key/value pairs, preserving the
// given key order.
func NewMap(keys []string, values map[string]Value) Value {
	return Value{Kind: KindMap, Map: values, MapOrder: keys}
}

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders v the way the compiler flattens every YAML value to a
// string: null -> "null"; bool/number -> textual form; string unchanged;
// sequence -> bracketed comma-joined recursion; mapping -> "{object}".
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.Num)
	case KindString:
		return v.Str
	case KindSeq:
		parts := make([]string, len(v.Seq))
		for i, e := range v.Seq {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		return "{object}"
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Contains implements the membership semantics EvaluateDirect uses for
// `contains`/`not_contains`: array membership for sequences, substring for
// strings, value membership for mappings, equality otherwise.
func (v Value) Contains(needle string) bool {
	switch v.Kind {
	case KindSeq:
		for _, e := range v.Seq {
			if e.String() == needle {
				return true
			}
		}
		return false
	case KindString:
		return strings.Contains(v.Str, needle)
	case KindMap:
		for _, k := range v.MapOrder {
			if v.Map[k].String() == needle {
				return true
			}
		}
		return false
	default:
		return v.String() == needle
	}
}

// ParseSequenceString parses the bracketed "[a, b, c]" rendering a compiled
// sequence value took back into its elements, for any_of/none_of
// membership tests. Returns nil if s is not a bracketed sequence.
func ParseSequenceString(s string) []string {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []string{}
	}
	parts := strings.Split(inner, ", ")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}
