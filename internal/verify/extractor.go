package verify

import "fmt"

// Fact is a (claim_name, string_value) pair extracted from the envelope
//.
type Fact struct {
	Claim string
	Value string
}

// FactSet is the deduplicated output of extraction: a set of Facts, looked up
// by claim name during execution. Values for each claim are kept in
// extraction order (first-seen order from the selector walk), not map
// iteration order, so that "the first value" is a stable notion across runs.
type FactSet struct {
	byClaim map[string]*factValues
}

// factValues is an insertion-ordered set of distinct values: order holds the
// first-seen sequence, seen dedupes membership tests in O(1).
type factValues struct {
	order []string
	seen  map[string]bool
}

func newFactSet() *FactSet {
	return &FactSet{byClaim: make(map[string]*factValues)}
}

func (fs *FactSet) add(claim, value string) {
	fv, ok := fs.byClaim[claim]
	if !ok {
		fv = &factValues{seen: make(map[string]bool)}
		fs.byClaim[claim] = fv
	}
	if !fv.seen[value] {
		fv.seen[value] = true
		fv.order = append(fv.order, value)
	}
}

// Values returns the distinct values extracted for claim in extraction
// order, or nil if the claim produced no facts (an absent claim). Callers
// that need "the first value" (greater_than, min_length, ...) get a
// deterministic answer: the first value the selector walk produced.
func (fs *FactSet) Values(claim string) []string {
	fv, ok := fs.byClaim[claim]
	if !ok {
		return nil
	}
	out := make([]string, len(fv.order))
	copy(out, fv.order)
	return out
}

// Has reports whether claim has at least one extracted fact.
func (fs *FactSet) Has(claim string) bool {
	fv, ok := fs.byClaim[claim]
	return ok && len(fv.order) > 0
}

// Contains reports whether claim's fact set includes value.
func (fs *FactSet) Contains(claim, value string) bool {
	fv, ok := fs.byClaim[claim]
	return ok && fv.seen[value]
}

// All returns every (claim, value) pair, sorted by (claim, value) — the order
// the program formatter requires for deterministic .dl emission.
func (fs *FactSet) All() []Fact {
	var out []Fact
	for claim, fv := range fs.byClaim {
		for _, v := range fv.order {
			out = append(out, Fact{Claim: claim, Value: v})
		}
	}
	sortFacts(out)
	return out
}

// Count returns the total number of distinct facts across all claims.
func (fs *FactSet) Count() int {
	n := 0
	for _, fv := range fs.byClaim {
		n += len(fv.order)
	}
	return n
}

func sortFacts(facts []Fact) {
	// insertion sort is fine: fact sets are small (one rulespec's claims)
	for i := 1; i < len(facts); i++ {
		j := i
		for j > 0 && factLess(facts[j], facts[j-1]) {
			facts[j], facts[j-1] = facts[j-1], facts[j]
			j--
		}
	}
}

func factLess(a, b Fact) bool {
	if a.Claim != b.Claim {
		return a.Claim < b.Claim
	}
	return a.Value < b.Value
}

// ExtractFacts runs every claim's selector against the envelope, producing
// the fact set the executor evaluates against.
//
// For each claim: run the selector against the envelope value (the
// facts: ... shape); if empty, retry against the bare facts value with the
// enclosing key stripped (dual-pass prefix tolerance) so facts.feature.done
// and feature.done behave identically.
// Then recurse into each selected value: a sequence of length n emits one
// fact per element plus (claim.__length, n); a mapping emits (claim,
// "{object}") and recurses into each (k, v) as claim.k; null emits nothing
// (null suppression); a scalar emits (claim, scalar_string).
func ExtractFacts(envelope *ActionEnvelope, claims map[string]string) (*FactSet, error) {
	fs := newFactSet()
	root := envelope.Value()
	wrapped := envelope.WrappedValue()

	for name, selExpr := range claims {
		sel, err := ParseSelector(selExpr)
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", name, err)
		}

		values := sel.Select(root)
		if len(values) == 0 {
			values = sel.Select(wrapped)
		}

		for _, v := range values {
			emitFacts(fs, name, v)
		}
	}

	return fs, nil
}

func emitFacts(fs *FactSet, claim string, v Value) {
	switch v.Kind {
	case KindNull:
		return
	case KindSeq:
		for _, e := range v.Seq {
			emitFacts(fs, claim, e)
		}
		fs.add(claim+".__length", formatNumber(float64(len(v.Seq))))
	case KindMap:
		fs.add(claim, v.String())
		for _, k := range v.MapOrder {
			emitFacts(fs, claim+"."+k, v.Map[k])
		}
	default:
		fs.add(claim, v.String())
	}
}
