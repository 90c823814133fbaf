package verify

import (
	"fmt"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// PredicateRule is the closed set of rules a Predicate may carry.
type PredicateRule string

const (
	RuleExists      PredicateRule = "exists"
	RuleNotExists   PredicateRule = "not_exists"
	RuleEquals      PredicateRule = "equals"
	RuleContains    PredicateRule = "contains"
	RuleNotContains PredicateRule = "not_contains"
	RuleAnyOf       PredicateRule = "any_of"
	RuleNoneOf      PredicateRule = "none_of"
	RuleGreaterThan PredicateRule = "greater_than"
	RuleLessThan    PredicateRule = "less_than"
	RuleMinLength   PredicateRule = "min_length"
	RuleMaxLength   PredicateRule = "max_length"
	RuleMatches     PredicateRule = "matches"
)

// requiresValue reports whether rule requires a non-nil Value operand.
// exists/not_exists are the only rules that take no operand.
func (r PredicateRule) requiresValue() bool {
	return r != RuleExists && r != RuleNotExists
}

func (r PredicateRule) valid() bool {
	switch r {
	case RuleExists, RuleNotExists, RuleEquals, RuleContains, RuleNotContains,
		RuleAnyOf, RuleNoneOf, RuleGreaterThan, RuleLessThan, RuleMinLength,
		RuleMaxLength, RuleMatches:
		return true
	default:
		return false
	}
}

// PredicateSource names where a predicate's requirement originated, carried
// through for audit purposes only (not part of evaluation semantics).
type PredicateSource string

const (
	SourceTaskPrompt PredicateSource = "task_prompt"
	SourceMemory     PredicateSource = "memory"
)

// Claim is a named selector: a path into the envelope.
type Claim struct {
	Name     string `yaml:"name" json:"name"`
	Selector string `yaml:"selector" json:"selector"`
}

// WhenCondition is an optional guard on a Predicate with identical evaluation
// semantics to a top-level predicate.
type WhenCondition struct {
	Claim string        `yaml:"claim" json:"claim"`
	Rule  PredicateRule `yaml:"rule" json:"rule"`
	Value interface{}   `yaml:"value,omitempty" json:"value,omitempty"`
}

// Predicate is a rule applied to a claim's selected values, with an optional
// when guard.
type Predicate struct {
	Claim  string          `yaml:"claim" json:"claim"`
	Rule   PredicateRule   `yaml:"rule" json:"rule"`
	Value  interface{}     `yaml:"value,omitempty" json:"value,omitempty"`
	Source PredicateSource `yaml:"source" json:"source"`
	Notes  string          `yaml:"notes,omitempty" json:"notes,omitempty"`
	When   *WhenCondition  `yaml:"when,omitempty" json:"when,omitempty"`
}

// Rulespec is the repository-authored claims + predicates document,
// read from <working_dir>/analysis/rulespec.yaml on every verification.
type Rulespec struct {
	Claims     []Claim     `yaml:"claims,omitempty" json:"claims,omitempty"`
	Predicates []Predicate `yaml:"predicates,omitempty" json:"predicates,omitempty"`
}

// Validate rejects duplicate claim names, dangling claim references (in a
// predicate or its when guard), rules requiring a value that lack one, and
// invalid selector syntax. An empty rulespec is legal.
func (r *Rulespec) Validate() error {
	var errs error

	seen := make(map[string]bool, len(r.Claims))
	for _, c := range r.Claims {
		if c.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("claim: name must be non-empty"))
			continue
		}
		if seen[c.Name] {
			errs = multierr.Append(errs, fmt.Errorf("claim %q: duplicate name", c.Name))
			continue
		}
		seen[c.Name] = true
		if _, err := ParseSelector(c.Selector); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("claim %q: %w", c.Name, err))
		}
	}

	for i, p := range r.Predicates {
		if !p.Rule.valid() {
			errs = multierr.Append(errs, fmt.Errorf("predicate[%d]: unknown rule %q", i, p.Rule))
			continue
		}
		if !seen[p.Claim] {
			errs = multierr.Append(errs, fmt.Errorf("predicate[%d]: claim %q is not declared", i, p.Claim))
		}
		if p.Rule.requiresValue() && p.Value == nil {
			errs = multierr.Append(errs, fmt.Errorf("predicate[%d]: rule %q requires a value", i, p.Rule))
		}
		if p.When != nil {
			if !p.When.Rule.valid() {
				errs = multierr.Append(errs, fmt.Errorf("predicate[%d].when: unknown rule %q", i, p.When.Rule))
			} else if !seen[p.When.Claim] {
				errs = multierr.Append(errs, fmt.Errorf("predicate[%d].when: claim %q is not declared", i, p.When.Claim))
			}
			if p.When.Rule.requiresValue() && p.When.Value == nil {
				errs = multierr.Append(errs, fmt.Errorf("predicate[%d].when: rule %q requires a value", i, p.When.Rule))
			}
		}
	}

	return errs
}

// ClaimNames returns the declared claims as a name -> selector map, the form
// the fact extractor takes.
func (r *Rulespec) ClaimNames() map[string]string {
	out := make(map[string]string, len(r.Claims))
	for _, c := range r.Claims {
		out[c.Name] = c.Selector
	}
	return out
}

// ParseRulespec parses a rulespec from YAML. An absent or empty rulespec is
// legal. The embedded schema runs first, so a malformed shape (e.g. a claim
// missing its selector) is reported as an input-shape error rather than as
// whatever zero-value confusion would otherwise surface downstream.
func ParseRulespec(data []byte) (*Rulespec, error) {
	if len(data) > 0 {
		if err := ValidateRulespecShape(data); err != nil {
			return nil, err
		}
	}
	var r Rulespec
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rulespec: invalid YAML: %w", err)
	}
	return &r, nil
}

// IsEmpty reports whether the rulespec declares no claims and no predicates.
func (r *Rulespec) IsEmpty() bool {
	return len(r.Claims) == 0 && len(r.Predicates) == 0
}

// canonicalRulespecYAML renders the full rulespec with the stable yaml.v3
// emitter — the canonical form the token MAC includes.
func canonicalRulespecYAML(r *Rulespec) ([]byte, error) {
	return yaml.Marshal(r)
}
