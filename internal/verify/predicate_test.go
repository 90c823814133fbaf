package verify

import "testing"

func TestEvaluateDirectExistsAndNotExists(t *testing.T) {
	vals := []Value{{Kind: KindString, Str: "x"}}
	nullOnly := []Value{{Kind: KindNull}}

	if ok, _ := EvaluateDirect(RuleExists, nil, vals); !ok {
		t.Error("exists: expected pass for a non-null value")
	}
	if ok, _ := EvaluateDirect(RuleExists, nil, nullOnly); ok {
		t.Error("exists: expected fail when every value is null")
	}
	if ok, _ := EvaluateDirect(RuleNotExists, nil, nullOnly); !ok {
		t.Error("not_exists: expected pass when every value is null")
	}
}

func TestEvaluateDirectEquals(t *testing.T) {
	vals := []Value{{Kind: KindString, Str: "ready"}}
	if ok, _ := EvaluateDirect(RuleEquals, "ready", vals); !ok {
		t.Error("equals: expected pass")
	}
	if ok, _ := EvaluateDirect(RuleEquals, "busy", vals); ok {
		t.Error("equals: expected fail")
	}
}

func TestEvaluateDirectContainsAndNotContains(t *testing.T) {
	vals := []Value{{Kind: KindString, Str: "hello world"}}
	if ok, _ := EvaluateDirect(RuleContains, "wor", vals); !ok {
		t.Error("contains: expected pass")
	}
	if ok, _ := EvaluateDirect(RuleNotContains, "zzz", vals); !ok {
		t.Error("not_contains: expected pass")
	}
	if ok, _ := EvaluateDirect(RuleNotContains, "wor", vals); ok {
		t.Error("not_contains: expected fail")
	}
}

func TestEvaluateDirectAnyOfNoneOf(t *testing.T) {
	vals := []Value{{Kind: KindString, Str: "blue"}}
	if ok, _ := EvaluateDirect(RuleAnyOf, []interface{}{"red", "blue"}, vals); !ok {
		t.Error("any_of: expected pass")
	}
	if ok, _ := EvaluateDirect(RuleNoneOf, []interface{}{"red", "blue"}, vals); ok {
		t.Error("none_of: expected fail")
	}
}

func TestEvaluateDirectMinMaxLength(t *testing.T) {
	seq := []Value{{Kind: KindSeq, Seq: []Value{{Kind: KindString, Str: "a"}, {Kind: KindString, Str: "b"}}}}
	if ok, _ := EvaluateDirect(RuleMinLength, 2, seq); !ok {
		t.Error("min_length: expected pass for length 2 >= 2")
	}
	if ok, _ := EvaluateDirect(RuleMinLength, 3, seq); ok {
		t.Error("min_length: expected fail for length 2 >= 3")
	}
	if ok, _ := EvaluateDirect(RuleMaxLength, 2, seq); !ok {
		t.Error("max_length: expected pass for length 2 <= 2")
	}
	if ok, _ := EvaluateDirect(RuleMaxLength, 1, seq); ok {
		t.Error("max_length: expected fail for length 2 <= 1")
	}
}

func TestEvaluateDirectGreaterThanLessThan(t *testing.T) {
	vals := []Value{{Kind: KindNumber, Num: 5}}
	if ok, _ := EvaluateDirect(RuleGreaterThan, 3, vals); !ok {
		t.Error("greater_than: expected pass, 5 > 3")
	}
	if ok, _ := EvaluateDirect(RuleLessThan, 3, vals); ok {
		t.Error("less_than: expected fail, 5 is not < 3")
	}
}

func TestEvaluateDirectMatches(t *testing.T) {
	vals := []Value{{Kind: KindString, Str: "feature/foo-123"}}
	if ok, _ := EvaluateDirect(RuleMatches, "^feature/", vals); !ok {
		t.Error("matches: expected pass")
	}
	if ok, _ := EvaluateDirect(RuleMatches, "^bugfix/", vals); ok {
		t.Error("matches: expected fail")
	}
}

func TestOperandHelpers(t *testing.T) {
	if got := operandInt(3); got != 3 {
		t.Errorf("operandInt(3) = %d, want 3", got)
	}
	if got := operandInt(int64(3)); got != 3 {
		t.Errorf("operandInt(int64(3)) = %d, want 3", got)
	}
	if got := operandInt(3.0); got != 3 {
		t.Errorf("operandInt(3.0) = %d, want 3", got)
	}
	if got := operandInt("3"); got != 3 {
		t.Errorf("operandInt(\"3\") = %d, want 3", got)
	}
	if got := operandFloat(3.5); got != 3.5 {
		t.Errorf("operandFloat(3.5) = %v, want 3.5", got)
	}
	if got := operandSet([]interface{}{"a", "b"}); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("operandSet([a,b]) = %v", got)
	}
	if got := operandSet("a"); len(got) != 1 || got[0] != "a" {
		t.Errorf("operandSet(\"a\") = %v, want a single-element set", got)
	}
}
