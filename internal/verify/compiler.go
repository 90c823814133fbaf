package verify

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// CompiledPredicate carries a Predicate flattened for uniform datalog
// handling: every YAML value becomes a string, sequences render as
// "[a, b, c]".
type CompiledPredicate struct {
	ID            int
	ClaimName     string
	Selector      string
	Rule          PredicateRule
	ExpectedValue *string
	Source        PredicateSource
	Notes         string
	When          *CompiledWhen
}

// CompiledWhen is the compiled form of a WhenCondition.
type CompiledWhen struct {
	ClaimName     string
	Rule          PredicateRule
	ExpectedValue *string
}

// CompiledRulespec is a rulespec compiled for one verification call: claims
// flattened to a name->selector map and predicates flattened to
// CompiledPredicate.
type CompiledRulespec struct {
	PlanID            string
	CompiledAtRevision uint32
	Predicates        []CompiledPredicate
	Claims            map[string]string
}

// CompileRulespec compiles r for a single verification call. Compilation is
// pure and repeatable — compiling the same rulespec twice yields
// structurally identical output — and is never cached; it runs fresh on
// every write_envelope invocation.
func CompileRulespec(r *Rulespec, planID string, revision uint32) (*CompiledRulespec, error) {
	var errs error

	claims := make(map[string]string, len(r.Claims))
	for _, c := range r.Claims {
		if _, err := ParseSelector(c.Selector); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("claim %q: %w", c.Name, err))
			continue
		}
		claims[c.Name] = c.Selector
	}
	if errs != nil {
		return nil, errs
	}

	predicates := make([]CompiledPredicate, 0, len(r.Predicates))
	for i, p := range r.Predicates {
		cp := CompiledPredicate{
			ID:        i,
			ClaimName: p.Claim,
			Selector:  claims[p.Claim],
			Rule:      p.Rule,
			Source:    p.Source,
			Notes:     p.Notes,
		}
		if p.Value != nil {
			s := FromYAML(p.Value).String()
			cp.ExpectedValue = &s
		}
		if p.When != nil {
			cw := &CompiledWhen{ClaimName: p.When.Claim, Rule: p.When.Rule}
			if p.When.Value != nil {
				s := FromYAML(p.When.Value).String()
				cw.ExpectedValue = &s
			}
			cp.When = cw
		}
		predicates = append(predicates, cp)
	}

	id := planID
	if id == "" {
		id = uuid.NewString()
	}

	return &CompiledRulespec{
		PlanID:             id,
		CompiledAtRevision: revision,
		Predicates:         predicates,
		Claims:             claims,
	}, nil
}
