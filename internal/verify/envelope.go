package verify

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ActionEnvelope is the agent's YAML statement of facts about completed
// work. Facts is the only user-supplied payload; Verified is set
// exclusively by the verifier.
type ActionEnvelope struct {
	Facts    map[string]interface{} `yaml:"facts"`
	Verified string                 `yaml:"verified,omitempty"`
}

// ParseEnvelope parses an envelope from YAML. All unknown top-level keys are
// ignored except facts and verified. The embedded schema runs first, so a
// misshapen document (facts that isn't a mapping, say) is reported as an
// input-shape error before the structural parse has a chance to silently
// zero-value it away.
func ParseEnvelope(data []byte) (*ActionEnvelope, error) {
	if len(data) > 0 {
		if err := ValidateEnvelopeShape(data); err != nil {
			return nil, err
		}
	}
	var raw struct {
		Facts    map[string]interface{} `yaml:"facts"`
		Verified string                 `yaml:"verified"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("envelope: invalid YAML: %w", err)
	}
	return &ActionEnvelope{Facts: raw.Facts, Verified: raw.Verified}, nil
}

// IsEmpty reports whether Facts is empty — the envelope tool rejects a write
// in this state to catch the common mistake of submitting a bare fact map
// without the facts: wrapper.
func (e *ActionEnvelope) IsEmpty() bool {
	return len(e.Facts) == 0
}

// Value renders the envelope as a verify.Value tree, the shape selectors walk.
func (e *ActionEnvelope) Value() Value {
	return mapFromStringKeyed(map[string]interface{}{"facts": e.Facts})
}

// WrappedValue synthesizes the bare-facts fallback value the fact extractor
// retries a selector against when the first pass (against Value, which
// carries the facts: envelope shape selectors normally expect) selects
// nothing — it strips the enclosing facts key, so a selector written
// without the prefix, e.g. feature.done, matches the same data a
// facts.feature.done selector reaches on the first pass.
func (e *ActionEnvelope) WrappedValue() Value {
	return mapFromStringKeyed(e.Facts)
}

// Canonical returns the envelope YAML with verified cleared and facts keys
// sorted lexicographically, serialized by the stable yaml.v3 emitter — the
// canonical form the token MAC is computed over. verified is never part of
// this derivation.
func (e *ActionEnvelope) Canonical() ([]byte, error) {
	clone := &ActionEnvelope{Facts: e.Facts}
	node, err := canonicalFactsNode(clone.Facts)
	if err != nil {
		return nil, err
	}
	doc := yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "facts"},
		node,
	}}
	root := yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{&doc}}
	return yaml.Marshal(&root)
}

// canonicalFactsNode builds a yaml.Node for facts with map keys sorted at
// every level, so Canonical is deterministic regardless of Go map iteration
// order or the original document's key order.
func canonicalFactsNode(facts map[string]interface{}) (*yaml.Node, error) {
	v := mapFromStringKeyed(facts)
	return valueToSortedNode(v), nil
}

func valueToSortedNode(v Value) *yaml.Node {
	switch v.Kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.String()}
	case KindNumber:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	case KindSeq:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v.Seq {
			n.Content = append(n.Content, valueToSortedNode(e))
		}
		return n
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range v.MapOrder {
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, valueToSortedNode(v.Map[k]))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// Marshal serializes the envelope for writing to <session_logs>/envelope.yaml,
// including verified when present.
func (e *ActionEnvelope) Marshal() ([]byte, error) {
	out := struct {
		Facts    map[string]interface{} `yaml:"facts"`
		Verified string                 `yaml:"verified,omitempty"`
	}{Facts: e.Facts, Verified: e.Verified}
	return yaml.Marshal(out)
}
