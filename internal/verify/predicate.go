package verify

import (
	"fmt"
	"strconv"

	"github.com/dlclark/regexp2"
)

// EvaluateDirect evaluates a single rule directly against a list of selected
// values. It and the datalog executor dispatch on the same closed rule set,
// one over Values already in hand, the other over a fact-set lookup; they
// are separate implementations and do not agree on every input (for
// example, `equals` here counts every selected value, while the executor
// compares the set of distinct values).
//
// The returned reason is a human-readable diagnostic, not part of any
// invariant.
func EvaluateDirect(rule PredicateRule, operand interface{}, values []Value) (bool, string) {
	nonNull := filterNonNull(values)

	switch rule {
	case RuleExists:
		if len(nonNull) > 0 {
			return true, "value present"
		}
		return false, "no non-null value selected"

	case RuleNotExists:
		if len(nonNull) == 0 {
			return true, "no non-null value selected"
		}
		return false, "value present"

	case RuleEquals:
		expected := operandString(operand)
		if len(values) == 1 && values[0].String() == expected {
			return true, fmt.Sprintf("value equals %q", expected)
		}
		return false, fmt.Sprintf("expected exactly one value equal to %q", expected)

	case RuleContains:
		expected := operandString(operand)
		for _, v := range values {
			if v.Contains(expected) {
				return true, fmt.Sprintf("contains %q", expected)
			}
		}
		return false, fmt.Sprintf("no selected value contains %q", expected)

	case RuleNotContains:
		expected := operandString(operand)
		for _, v := range values {
			if v.Contains(expected) {
				return false, fmt.Sprintf("contains %q", expected)
			}
		}
		return true, fmt.Sprintf("no selected value contains %q", expected)

	case RuleAnyOf:
		set := operandSet(operand)
		for _, v := range values {
			if setContains(set, v.String()) {
				return true, "value is in set"
			}
		}
		return false, "no selected value is in the set"

	case RuleNoneOf:
		set := operandSet(operand)
		for _, v := range values {
			if setContains(set, v.String()) {
				return false, "value is in set"
			}
		}
		return true, "no selected value is in the set"

	case RuleMinLength:
		n := operandInt(operand)
		for _, v := range values {
			if v.Kind == KindSeq && len(v.Seq) >= n {
				return true, fmt.Sprintf("length %d >= %d", len(v.Seq), n)
			}
		}
		return false, fmt.Sprintf("no sequence with length >= %d", n)

	case RuleMaxLength:
		n := operandInt(operand)
		for _, v := range values {
			if v.Kind == KindSeq && len(v.Seq) <= n {
				return true, fmt.Sprintf("length %d <= %d", len(v.Seq), n)
			}
		}
		return false, fmt.Sprintf("no sequence with length <= %d", n)

	case RuleGreaterThan:
		n := operandFloat(operand)
		for _, v := range values {
			if v.Kind == KindNumber {
				if v.Num > n {
					return true, fmt.Sprintf("%v > %v", v.Num, n)
				}
				return false, fmt.Sprintf("%v is not > %v", v.Num, n)
			}
		}
		return false, "no numeric value selected"

	case RuleLessThan:
		n := operandFloat(operand)
		for _, v := range values {
			if v.Kind == KindNumber {
				if v.Num < n {
					return true, fmt.Sprintf("%v < %v", v.Num, n)
				}
				return false, fmt.Sprintf("%v is not < %v", v.Num, n)
			}
		}
		return false, "no numeric value selected"

	case RuleMatches:
		pattern := operandString(operand)
		re, err := regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return false, fmt.Sprintf("invalid pattern %q: %v", pattern, err)
		}
		for _, v := range values {
			if v.Kind != KindString {
				continue
			}
			if ok, _ := re.MatchString(v.Str); ok {
				return true, fmt.Sprintf("matches %q", pattern)
			}
		}
		return false, fmt.Sprintf("no string value matches %q", pattern)

	default:
		return false, fmt.Sprintf("unknown rule %q", rule)
	}
}

func filterNonNull(values []Value) []Value {
	out := make([]Value, 0, len(values))
	for _, v := range values {
		if !v.IsNull() {
			out = append(out, v)
		}
	}
	return out
}

func operandString(operand interface{}) string {
	return FromYAML(operand).String()
}

func operandSet(operand interface{}) []string {
	v := FromYAML(operand)
	if v.Kind != KindSeq {
		return []string{v.String()}
	}
	out := make([]string, len(v.Seq))
	for i, e := range v.Seq {
		out[i] = e.String()
	}
	return out
}

func setContains(set []string, s string) bool {
	for _, e := range set {
		if e == s {
			return true
		}
	}
	return false
}

func operandInt(operand interface{}) int {
	switch t := operand.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		n, _ := strconv.Atoi(operandString(operand))
		return n
	}
}

func operandFloat(operand interface{}) float64 {
	switch t := operand.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	default:
		f, _ := strconv.ParseFloat(operandString(operand), 64)
		return f
	}
}
