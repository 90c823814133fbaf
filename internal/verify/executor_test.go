package verify

import "testing"

func strPtr(s string) *string { return &s }

func factSetWithOrderedValues(claim string, values ...string) *FactSet {
	fs := newFactSet()
	for _, v := range values {
		fs.add(claim, v)
	}
	return fs
}

func TestEvaluateCompiledExistsAndNotExists(t *testing.T) {
	present := factSetWithOrderedValues("done", "true")
	absent := newFactSet()

	if ok, _ := evaluateCompiled(RuleExists, "done", nil, present); !ok {
		t.Error("exists: expected pass when claim has a value")
	}
	if ok, _ := evaluateCompiled(RuleExists, "done", nil, absent); ok {
		t.Error("exists: expected fail when claim is absent")
	}
	if ok, _ := evaluateCompiled(RuleNotExists, "done", nil, absent); !ok {
		t.Error("not_exists: expected pass when claim is absent")
	}
	if ok, _ := evaluateCompiled(RuleNotExists, "done", nil, present); ok {
		t.Error("not_exists: expected fail when claim has a value")
	}
}

func TestEvaluateCompiledEquals(t *testing.T) {
	fs := factSetWithOrderedValues("status", "ready")
	if ok, _ := evaluateCompiled(RuleEquals, "status", strPtr("ready"), fs); !ok {
		t.Error("equals: expected pass for a matching single value")
	}
	if ok, _ := evaluateCompiled(RuleEquals, "status", strPtr("busy"), fs); ok {
		t.Error("equals: expected fail for a non-matching value")
	}

	fanned := factSetWithOrderedValues("status", "a", "b")
	if ok, _ := evaluateCompiled(RuleEquals, "status", strPtr("a"), fanned); ok {
		t.Error("equals: expected fail when the claim selected more than one value")
	}
}

func TestEvaluateCompiledGreaterThanLessThanPickFirstValueDeterministically(t *testing.T) {
	fs := factSetWithOrderedValues("score", "5", "1", "9")

	for i := 0; i < 20; i++ {
		ok, _ := evaluateCompiled(RuleGreaterThan, "score", strPtr("3"), fs)
		if !ok {
			t.Fatalf("run %d: greater_than(3): expected pass (first value 5 > 3)", i)
		}
	}
	for i := 0; i < 20; i++ {
		ok, _ := evaluateCompiled(RuleLessThan, "score", strPtr("3"), fs)
		if ok {
			t.Fatalf("run %d: less_than(3): expected fail (first value 5 is not < 3)", i)
		}
	}
}

func TestEvaluateCompiledMinMaxLengthPickFirstValueDeterministically(t *testing.T) {
	fs := newFactSet()
	fs.add("tags.__length", "4")
	fs.add("tags.__length", "1")

	for i := 0; i < 20; i++ {
		if ok, _ := evaluateCompiled(RuleMinLength, "tags", strPtr("2"), fs); !ok {
			t.Fatalf("run %d: min_length(2): expected pass (first length fact is 4, 4 >= 2)", i)
		}
		if ok, _ := evaluateCompiled(RuleMaxLength, "tags", strPtr("2"), fs); ok {
			t.Fatalf("run %d: max_length(2): expected fail (first length fact is 4, 4 is not <= 2)", i)
		}
	}
}

func TestEvaluateCompiledAnyOfNoneOf(t *testing.T) {
	fs := factSetWithOrderedValues("tag", "blue", "green")
	if ok, _ := evaluateCompiled(RuleAnyOf, "tag", strPtr("[red, blue]"), fs); !ok {
		t.Error("any_of: expected pass, blue is in the set")
	}
	if ok, _ := evaluateCompiled(RuleAnyOf, "tag", strPtr("[red, yellow]"), fs); ok {
		t.Error("any_of: expected fail, no selected value is in the set")
	}
	if ok, _ := evaluateCompiled(RuleNoneOf, "tag", strPtr("[red, yellow]"), fs); !ok {
		t.Error("none_of: expected pass, no selected value is in the set")
	}
	if ok, _ := evaluateCompiled(RuleNoneOf, "tag", strPtr("[red, blue]"), fs); ok {
		t.Error("none_of: expected fail, blue is in the set")
	}
}

func TestEvaluateCompiledMatches(t *testing.T) {
	fs := factSetWithOrderedValues("branch", "feature/foo-123")
	if ok, _ := evaluateCompiled(RuleMatches, "branch", strPtr(`^feature/`), fs); !ok {
		t.Error("matches: expected pass")
	}
	if ok, _ := evaluateCompiled(RuleMatches, "branch", strPtr(`^bugfix/`), fs); ok {
		t.Error("matches: expected fail")
	}
}

func TestEvaluateVacuousWhenGuardSkipsRule(t *testing.T) {
	facts := newFactSet()
	facts.add("feature_done", "false")

	compiled := &CompiledRulespec{
		Predicates: []CompiledPredicate{
			{
				ID:            0,
				ClaimName:     "review_passed",
				Rule:          RuleEquals,
				ExpectedValue: strPtr("true"),
				When: &CompiledWhen{
					ClaimName:     "feature_done",
					Rule:          RuleEquals,
					ExpectedValue: strPtr("true"),
				},
			},
		},
	}

	report := Evaluate(compiled, facts)
	if report.FailedCount != 0 || report.PassedCount != 1 {
		t.Fatalf("report = %+v, want a vacuous pass (guard not met)", report)
	}
	if !report.Results[0].Passed {
		t.Error("expected the guarded predicate to be vacuously true")
	}
	if report.Results[0].Reason != "Skipped (when condition not met)" {
		t.Errorf("Reason = %q, want the skip reason", report.Results[0].Reason)
	}
}

func TestEvaluateWhenGuardMetRunsTheRule(t *testing.T) {
	facts := newFactSet()
	facts.add("feature_done", "true")
	facts.add("review_passed", "false")

	compiled := &CompiledRulespec{
		Predicates: []CompiledPredicate{
			{
				ID:            0,
				ClaimName:     "review_passed",
				Rule:          RuleEquals,
				ExpectedValue: strPtr("true"),
				When: &CompiledWhen{
					ClaimName:     "feature_done",
					Rule:          RuleEquals,
					ExpectedValue: strPtr("true"),
				},
			},
		},
	}

	report := Evaluate(compiled, facts)
	if report.PassedCount != 0 || report.FailedCount != 1 {
		t.Fatalf("report = %+v, want the guarded predicate to actually run and fail", report)
	}
	if report.Results[0].Reason == "Skipped (when condition not met)" {
		t.Error("predicate should not have been skipped: its guard was satisfied")
	}
}

func TestEvaluateAggregatesPassAndFailCounts(t *testing.T) {
	facts := newFactSet()
	facts.add("a", "1")

	compiled := &CompiledRulespec{
		Predicates: []CompiledPredicate{
			{ID: 0, ClaimName: "a", Rule: RuleExists},
			{ID: 1, ClaimName: "b", Rule: RuleExists},
		},
	}

	report := Evaluate(compiled, facts)
	if report.PassedCount != 1 || report.FailedCount != 1 {
		t.Errorf("report = %+v, want 1 passed, 1 failed", report)
	}
	if len(report.Results) != 2 {
		t.Fatalf("Results = %d entries, want 2", len(report.Results))
	}
}
