package verify

import (
	"strconv"

	"github.com/dlclark/regexp2"
)

// PredicateResult is one compiled predicate's outcome.
type PredicateResult struct {
	ID     int
	Claim  string
	Rule   PredicateRule
	Passed bool
	Reason string
}

// EvaluationReport is the aggregate result of running a compiled rulespec
// against a fact set: a pure function of (compiled, facts).
type EvaluationReport struct {
	Results     []PredicateResult
	FactCount   int
	PassedCount int
	FailedCount int
}

// Evaluate runs every compiled predicate against facts and aggregates the
// result. The whole evaluation is a pure function of (compiled, facts)
//.
func Evaluate(compiled *CompiledRulespec, facts *FactSet) *EvaluationReport {
	report := &EvaluationReport{FactCount: facts.Count()}

	for _, p := range compiled.Predicates {
		var result PredicateResult
		if p.When != nil && !evaluateGuard(p.When, facts) {
			result = PredicateResult{
				ID: p.ID, Claim: p.ClaimName, Rule: p.Rule,
				Passed: true, Reason: "Skipped (when condition not met)",
			}
		} else {
			passed, reason := evaluateCompiled(p.Rule, p.ClaimName, p.ExpectedValue, facts)
			result = PredicateResult{ID: p.ID, Claim: p.ClaimName, Rule: p.Rule, Passed: passed, Reason: reason}
		}
		report.Results = append(report.Results, result)
		if result.Passed {
			report.PassedCount++
		} else {
			report.FailedCount++
		}
	}

	return report
}

// evaluateGuard synthesizes a sentinel predicate from a when condition and
// evaluates it with the same function as a regular predicate: when
// the guard does not hold, the outer predicate is a vacuous pass and its own
// rule is never evaluated.
func evaluateGuard(w *CompiledWhen, facts *FactSet) bool {
	passed, _ := evaluateCompiled(w.Rule, w.ClaimName, w.ExpectedValue, facts)
	return passed
}

func evaluateCompiled(rule PredicateRule, claim string, expected *string, facts *FactSet) (bool, string) {
	values := facts.Values(claim)

	switch rule {
	case RuleExists:
		if facts.Has(claim) {
			return true, "value present"
		}
		return false, "no non-null value selected"

	case RuleNotExists:
		if !facts.Has(claim) {
			return true, "no non-null value selected"
		}
		return false, "value present"

	case RuleEquals:
		if len(values) == 1 && expected != nil && values[0] == *expected {
			return true, "value equals expected"
		}
		return false, "expected exactly one matching value"

	case RuleContains:
		if expected != nil && facts.Contains(claim, *expected) {
			return true, "contains expected value"
		}
		return false, "no selected value contains expected"

	case RuleNotContains:
		if expected == nil || !facts.Contains(claim, *expected) {
			return true, "does not contain expected value (vacuous if claim absent)"
		}
		return false, "contains expected value"

	case RuleAnyOf:
		if expected == nil {
			return false, "no set provided"
		}
		set := ParseSequenceString(*expected)
		for _, v := range values {
			if setContains(set, v) {
				return true, "value is in set"
			}
		}
		return false, "no selected value is in the set"

	case RuleNoneOf:
		if expected == nil {
			return true, "no set provided"
		}
		set := ParseSequenceString(*expected)
		for _, v := range values {
			if setContains(set, v) {
				return false, "value is in set"
			}
		}
		return true, "no selected value is in the set"

	case RuleMinLength:
		n := facts.Values(claim + ".__length")
		return compareLength(n, expected, true)

	case RuleMaxLength:
		n := facts.Values(claim + ".__length")
		return compareLength(n, expected, false)

	case RuleGreaterThan, RuleLessThan:
		if expected == nil || len(values) == 0 {
			return false, "no numeric value selected"
		}
		want, err := strconv.ParseFloat(*expected, 64)
		if err != nil {
			return false, "expected value is not numeric"
		}
		got, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			return false, "no numeric value selected"
		}
		if rule == RuleGreaterThan {
			if got > want {
				return true, "value is greater than expected"
			}
			return false, "value is not greater than expected"
		}
		if got < want {
			return true, "value is less than expected"
		}
		return false, "value is not less than expected"

	case RuleMatches:
		if expected == nil {
			return false, "no pattern provided"
		}
		re, err := regexp2.Compile(*expected, regexp2.None)
		if err != nil {
			return false, "invalid pattern"
		}
		for _, v := range values {
			if ok, _ := re.MatchString(v); ok {
				return true, "matches pattern"
			}
		}
		return false, "no value matches pattern"

	default:
		return false, "unknown rule"
	}
}

func compareLength(lengthFacts []string, expected *string, min bool) (bool, string) {
	if expected == nil || len(lengthFacts) == 0 {
		return false, "no length fact available"
	}
	want, err := strconv.Atoi(*expected)
	if err != nil {
		return false, "expected length is not numeric"
	}
	got, err := strconv.Atoi(lengthFacts[0])
	if err != nil {
		return false, "length fact is not numeric"
	}
	if min {
		if got >= want {
			return true, "length is within minimum"
		}
		return false, "length is below minimum"
	}
	if got <= want {
		return true, "length is within maximum"
	}
	return false, "length exceeds maximum"
}
