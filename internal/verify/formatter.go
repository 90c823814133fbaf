package verify

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatDatalogProgram emits a Soufflé-style datalog program as a textual
// audit artifact. It is informational only: no external solver runs
// here, the executor is authoritative. Facts are written sorted by
// (claim, value) and every predicate emits a deterministic pair of clauses,
// so FormatDatalogProgram(c, f) == FormatDatalogProgram(c, f) byte-for-byte
// for the same inputs.
func FormatDatalogProgram(compiled *CompiledRulespec, facts *FactSet) string {
	var b strings.Builder

	b.WriteString("// generated audit artifact — informational only, not authoritative\n")
	b.WriteString(".decl claim_value(claim: symbol, value: symbol)\n")
	b.WriteString(".decl claim_length(claim: symbol, n: number)\n")
	b.WriteString(".decl predicate_pass(id: number)\n")
	b.WriteString(".decl predicate_fail(id: number)\n")
	b.WriteString(".output predicate_pass\n")
	b.WriteString(".output predicate_fail\n\n")

	for _, f := range facts.All() {
		if strings.HasSuffix(f.Claim, ".__length") {
			claim := strings.TrimSuffix(f.Claim, ".__length")
			b.WriteString(fmt.Sprintf("claim_length(%s, %s).\n", quoted(claim), f.Value))
		} else {
			b.WriteString(fmt.Sprintf("claim_value(%s, %s).\n", quoted(f.Claim), quoted(f.Value)))
		}
	}
	b.WriteString("\n")

	for _, p := range compiled.Predicates {
		b.WriteString(fmt.Sprintf("// predicate %d: %s(%s)", p.ID, p.Rule, p.ClaimName))
		if p.ExpectedValue != nil {
			b.WriteString(fmt.Sprintf(" = %s", quoted(*p.ExpectedValue)))
		}
		if p.When != nil {
			b.WriteString(fmt.Sprintf(" when %s(%s)", p.When.Rule, p.When.ClaimName))
		}
		b.WriteString("\n")
		b.WriteString(ruleClause(p))
		b.WriteString(fmt.Sprintf("predicate_fail(%d) :- !predicate_pass(%d).\n\n", p.ID, p.ID))
	}

	return b.String()
}

func ruleClause(p CompiledPredicate) string {
	id := strconv.Itoa(p.ID)
	claim := quoted(p.ClaimName)
	expected := quoted(valOr(p.ExpectedValue))

	switch p.Rule {
	case RuleExists:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, _).\n", id, claim)
	case RuleNotExists:
		return fmt.Sprintf("predicate_pass(%s) :- !claim_value(%s, _).\n", id, claim)
	case RuleEquals:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, %s).\n", id, claim, expected)
	case RuleContains:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, %s).\n", id, claim, expected)
	case RuleNotContains:
		return fmt.Sprintf("predicate_pass(%s) :- !claim_value(%s, %s).\n", id, claim, expected)
	case RuleAnyOf:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, v), member(v, %s).\n", id, claim, expected)
	case RuleNoneOf:
		return fmt.Sprintf("predicate_pass(%s) :- !(claim_value(%s, v), member(v, %s)).\n", id, claim, expected)
	case RuleMinLength:
		return fmt.Sprintf("predicate_pass(%s) :- claim_length(%s, n), n >= %s.\n", id, claim, valOr(p.ExpectedValue))
	case RuleMaxLength:
		return fmt.Sprintf("predicate_pass(%s) :- claim_length(%s, n), n <= %s.\n", id, claim, valOr(p.ExpectedValue))
	case RuleGreaterThan:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, v), to_number(v) > %s.\n", id, claim, valOr(p.ExpectedValue))
	case RuleLessThan:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, v), to_number(v) < %s.\n", id, claim, valOr(p.ExpectedValue))
	case RuleMatches:
		return fmt.Sprintf("predicate_pass(%s) :- claim_value(%s, v), match(%s, v).\n", id, claim, expected)
	default:
		return fmt.Sprintf("// unknown rule for predicate %s\n", id)
	}
}

func valOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// quoted wraps s in double quotes after escaping special characters, for
// embedding string literals in the emitted .dl program.
func quoted(s string) string {
	return `"` + escapeSymbol(s) + `"`
}

// escapeSymbol escapes \, ", \n, \r, \t for string values embedded in the
// .dl program.
func escapeSymbol(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}
