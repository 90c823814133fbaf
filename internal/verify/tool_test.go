package verify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// newTestSession creates an isolated working directory (with analysis/rulespec.yaml
// written from rulespecYAML) and session log directory, and points the
// verification keystore at a tempdir HOME so tests never touch the real
// ~/.g3/verification.key.
func newTestSession(t *testing.T, rulespecYAML string) SessionPaths {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)

	analysisDir := filepath.Join(root, "analysis")
	if err := os.MkdirAll(analysisDir, 0755); err != nil {
		t.Fatalf("create analysis dir: %v", err)
	}
	if rulespecYAML != "" {
		if err := os.WriteFile(filepath.Join(analysisDir, "rulespec.yaml"), []byte(rulespecYAML), 0644); err != nil {
			t.Fatalf("write rulespec: %v", err)
		}
	}

	return SessionPaths{WorkingDir: root, SessionLogsDir: filepath.Join(root, "logs")}
}

const happyPathRulespec = `
claims:
  - name: feature_done
    selector: facts.feature.done
predicates:
  - claim: feature_done
    rule: equals
    value: true
    source: task_prompt
`

// S1: facts satisfying every predicate mint and stamp a token.
func TestWriteEnvelopeHappyPathStamps(t *testing.T) {
	paths := newTestSession(t, happyPathRulespec)
	facts := "facts:\n  feature:\n    done: true\n"

	result, err := WriteEnvelope(paths, facts, zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if !result.Stamped {
		t.Fatalf("Stamped = false, Summary = %q, want a stamped envelope", result.Summary)
	}
	if !strings.Contains(result.Summary, "1 passed, 0 failed") {
		t.Errorf("Summary = %q, want 1 passed, 0 failed", result.Summary)
	}

	data, err := os.ReadFile(paths.EnvelopePath())
	if err != nil {
		t.Fatalf("read written envelope: %v", err)
	}
	envelope, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("ParseEnvelope() error = %v", err)
	}
	if envelope.Verified == "" {
		t.Error("written envelope has no verified token")
	}

	rulespec, err := loadRulespec(paths.RulespecPath())
	if err != nil {
		t.Fatalf("loadRulespec() error = %v", err)
	}
	key, err := LoadOrCreateKey()
	if err != nil {
		t.Fatalf("LoadOrCreateKey() error = %v", err)
	}
	ok, err := VerifyToken(key, envelope, rulespec)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if !ok {
		t.Error("VerifyToken() = false, want the minted token to verify")
	}
}

// S2: empty facts returns the wrapper-reminder guidance and writes nothing.
func TestWriteEnvelopeEmptyFactsIsGuidanceNotWrite(t *testing.T) {
	paths := newTestSession(t, happyPathRulespec)

	result, err := WriteEnvelope(paths, "facts: {}\n", zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if result.Stamped {
		t.Error("Stamped = true, want false for empty facts")
	}
	if result.Summary != emptyFactsGuidance {
		t.Errorf("Summary = %q, want the empty-facts guidance", result.Summary)
	}
	if _, err := os.Stat(paths.EnvelopePath()); !os.IsNotExist(err) {
		t.Error("envelope.yaml should not be written when facts is empty")
	}
}

// S3: a selector without the facts. prefix resolves the same way as its
// prefixed form.
func TestWriteEnvelopePrefixTolerantSelectorStamps(t *testing.T) {
	rulespec := `
claims:
  - name: feature_done
    selector: feature.done
predicates:
  - claim: feature_done
    rule: equals
    value: true
    source: task_prompt
`
	paths := newTestSession(t, rulespec)
	facts := "facts:\n  feature:\n    done: true\n"

	result, err := WriteEnvelope(paths, facts, zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if !result.Stamped {
		t.Fatalf("Stamped = false, Summary = %q, want the bare selector to still match", result.Summary)
	}
}

// S4: a fact whose value is explicitly null behaves as absent.
func TestWriteEnvelopeNullFactTreatedAsAbsent(t *testing.T) {
	rulespec := `
claims:
  - name: feature_done
    selector: facts.feature.done
predicates:
  - claim: feature_done
    rule: not_exists
    source: task_prompt
`
	paths := newTestSession(t, rulespec)
	facts := "facts:\n  feature:\n    done: null\n"

	result, err := WriteEnvelope(paths, facts, zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if !strings.Contains(result.Summary, "1 passed, 0 failed") {
		t.Errorf("Summary = %q, want not_exists to pass against a null fact", result.Summary)
	}
	if !result.Stamped {
		t.Error("Stamped = false, want the envelope to stamp: null is treated as absent")
	}
}

const guardChainRulespec = `
claims:
  - name: feature_done
    selector: facts.feature.done
  - name: review_passed
    selector: facts.review.passed
predicates:
  - claim: review_passed
    rule: equals
    value: true
    source: task_prompt
    when:
      claim: feature_done
      rule: equals
      value: true
`

// S5: a predicate's when guard gates whether its own rule is evaluated.
func TestWriteEnvelopeConditionalGuardChain(t *testing.T) {
	t.Run("guard satisfied: rule runs and passes", func(t *testing.T) {
		paths := newTestSession(t, guardChainRulespec)
		facts := "facts:\n  feature:\n    done: true\n  review:\n    passed: true\n"

		result, err := WriteEnvelope(paths, facts, zap.NewNop())
		if err != nil {
			t.Fatalf("WriteEnvelope() error = %v", err)
		}
		if !result.Stamped || !strings.Contains(result.Summary, "1 passed, 0 failed") {
			t.Errorf("result = %+v, want a single passing predicate", result)
		}
	})

	t.Run("guard unmet: rule is vacuously skipped, not failed", func(t *testing.T) {
		paths := newTestSession(t, guardChainRulespec)
		facts := "facts:\n  feature:\n    done: false\n  review:\n    passed: false\n"

		result, err := WriteEnvelope(paths, facts, zap.NewNop())
		if err != nil {
			t.Fatalf("WriteEnvelope() error = %v", err)
		}
		if !result.Stamped || !strings.Contains(result.Summary, "1 passed, 0 failed") {
			t.Errorf("result = %+v, want the guarded predicate to count as a vacuous pass, not a failure", result)
		}
	})
}

func TestWriteEnvelopeNoActiveSession(t *testing.T) {
	result, err := WriteEnvelope(SessionPaths{}, "facts:\n  a: 1\n", zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if result.Summary != "no active session" {
		t.Errorf("Summary = %q, want \"no active session\"", result.Summary)
	}
}

func TestWriteEnvelopeInvalidYAMLIsDiagnostic(t *testing.T) {
	paths := newTestSession(t, happyPathRulespec)
	result, err := WriteEnvelope(paths, "facts: [this is not a mapping\n", zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if result.Stamped {
		t.Error("Stamped = true, want false for invalid YAML")
	}
	if !strings.Contains(result.Summary, "invalid facts YAML") {
		t.Errorf("Summary = %q, want an invalid-YAML diagnostic", result.Summary)
	}
}

func TestWriteEnvelopeNoRulespecSkipsVerification(t *testing.T) {
	paths := newTestSession(t, "")
	result, err := WriteEnvelope(paths, "facts:\n  a: 1\n", zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if result.Stamped {
		t.Error("Stamped = true, want false with no rulespec")
	}
	if result.Summary != "no rulespec; verification skipped" {
		t.Errorf("Summary = %q", result.Summary)
	}
}

func TestWriteEnvelopeRejectsEmbeddedSecret(t *testing.T) {
	paths := newTestSession(t, happyPathRulespec)
	facts := "facts:\n  feature:\n    done: true\n  notes: \"api_key: sk_live_abcdef1234567890\"\n"

	result, err := WriteEnvelope(paths, facts, zap.NewNop())
	if err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}
	if result.Stamped {
		t.Error("Stamped = true, want the write to be rejected for an embedded secret")
	}
	if !strings.Contains(result.Summary, "potential embedded secret") {
		t.Errorf("Summary = %q, want the secret-rejection guidance", result.Summary)
	}
	if _, err := os.Stat(paths.EnvelopePath()); !os.IsNotExist(err) {
		t.Error("envelope.yaml should not be written when a secret is detected")
	}
}
