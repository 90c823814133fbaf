package verify

import (
	"strings"
	"testing"
)

func TestParseEnvelopeRoundTrip(t *testing.T) {
	data := []byte("facts:\n  feature:\n    done: true\nverified: g3v1:abcd\n")
	e, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}
	if e.Verified != "g3v1:abcd" {
		t.Errorf("Verified = %q", e.Verified)
	}
	if e.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}
}

func TestParseEnvelopeEmptyFacts(t *testing.T) {
	e, err := ParseEnvelope([]byte("facts: {}\n"))
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}
	if !e.IsEmpty() {
		t.Error("IsEmpty() = false, want true for an empty facts mapping")
	}
}

func TestParseEnvelopeRejectsNonObjectFacts(t *testing.T) {
	if _, err := ParseEnvelope([]byte("facts: \"not a mapping\"\n")); err == nil {
		t.Error("expected a schema error when facts is not a mapping")
	}
}

func TestEnvelopeValueAndWrappedValueBothResolve(t *testing.T) {
	e := &ActionEnvelope{Facts: map[string]interface{}{"feature": map[string]interface{}{"done": true}}}

	prefixed, err := ParseSelector("facts.feature.done")
	if err != nil {
		t.Fatalf("ParseSelector() error = %v", err)
	}
	if _, ok := prefixed.SelectOne(e.Value()); !ok {
		t.Error("facts.feature.done should resolve against Value()")
	}

	bare, err := ParseSelector("feature.done")
	if err != nil {
		t.Fatalf("ParseSelector() error = %v", err)
	}
	if _, ok := bare.SelectOne(e.Value()); ok {
		t.Error("feature.done should NOT resolve directly against Value() (it needs the prefix)")
	}
	if _, ok := bare.SelectOne(e.WrappedValue()); !ok {
		t.Error("feature.done should resolve against WrappedValue()")
	}
}

func TestEnvelopeCanonicalIsStableAndIgnoresVerified(t *testing.T) {
	a := &ActionEnvelope{Facts: map[string]interface{}{"z": 1, "a": 2}, Verified: "g3v1:one"}
	b := &ActionEnvelope{Facts: map[string]interface{}{"z": 1, "a": 2}, Verified: "g3v1:two"}

	canonA, err := a.Canonical()
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}
	canonB, err := b.Canonical()
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}
	if string(canonA) != string(canonB) {
		t.Errorf("Canonical() differs solely due to verified:\n%s\nvs\n%s", canonA, canonB)
	}
}

func TestEnvelopeMarshalIncludesVerifiedWhenPresent(t *testing.T) {
	e := &ActionEnvelope{Facts: map[string]interface{}{"a": 1}, Verified: "g3v1:abcd"}
	data, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "verified: g3v1:abcd") {
		t.Errorf("Marshal() = %s, want it to include verified", data)
	}
}
