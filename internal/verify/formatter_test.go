package verify

import (
	"strings"
	"testing"
)

func TestFormatDatalogProgramIsByteForByteDeterministic(t *testing.T) {
	r := &Rulespec{
		Claims: []Claim{
			{Name: "feature_done", Selector: "facts.feature.done"},
			{Name: "tags", Selector: "facts.tags"},
		},
		Predicates: []Predicate{
			{Claim: "feature_done", Rule: RuleEquals, Value: true},
			{Claim: "tags", Rule: RuleMinLength, Value: 2},
		},
	}
	compiled, err := CompileRulespec(r, "plan-1", 1)
	if err != nil {
		t.Fatalf("CompileRulespec() error = %v", err)
	}

	envelope := &ActionEnvelope{Facts: map[string]interface{}{
		"feature": map[string]interface{}{"done": true},
		"tags":    []interface{}{"a", "b", "c"},
	}}
	facts, err := ExtractFacts(envelope, compiled.Claims)
	if err != nil {
		t.Fatalf("ExtractFacts() error = %v", err)
	}

	first := FormatDatalogProgram(compiled, facts)
	for i := 0; i < 20; i++ {
		again := FormatDatalogProgram(compiled, facts)
		if again != first {
			t.Fatalf("run %d: FormatDatalogProgram() is not deterministic:\n%s\nvs\n%s", i, first, again)
		}
	}

	if !strings.Contains(first, `claim_value("feature_done", "true")`) {
		t.Errorf("program missing expected claim_value fact:\n%s", first)
	}
	if !strings.Contains(first, `claim_length("tags", 3)`) {
		t.Errorf("program missing expected claim_length fact:\n%s", first)
	}
}

func TestFormatDatalogProgramEscapesSpecialCharacters(t *testing.T) {
	got := escapeSymbol("a\"b\\c\nd")
	want := `a\"b\\c\nd`
	if got != want {
		t.Errorf("escapeSymbol() = %q, want %q", got, want)
	}
}

func TestQuotedWrapsAndEscapes(t *testing.T) {
	if got := quoted(`say "hi"`); got != `"say \"hi\""` {
		t.Errorf("quoted() = %q", got)
	}
}
