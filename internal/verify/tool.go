package verify

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kyledavis/g3/internal/security"
	"go.uber.org/zap"
)

// WriteEnvelopeResult is the one-line summary returned to the agent:
// the detailed predicate-by-predicate results never cross this boundary.
type WriteEnvelopeResult struct {
	Summary string
	// Stamped reports whether the envelope was rewritten with a token.
	Stamped bool
}

// SessionPaths resolves the on-disk layout write_envelope touches:
// the rulespec lives under the working directory's analysis/ tree, the
// envelope and its audit artifacts live under the session's log directory.
type SessionPaths struct {
	WorkingDir string
	SessionLogsDir string
}

func (p SessionPaths) RulespecPath() string {
	return filepath.Join(p.WorkingDir, "analysis", "rulespec.yaml")
}

func (p SessionPaths) EnvelopePath() string {
	return filepath.Join(p.SessionLogsDir, "envelope.yaml")
}

func (p SessionPaths) CompiledProgramPath() string {
	return filepath.Join(p.SessionLogsDir, "rulespec.compiled.dl")
}

func (p SessionPaths) EvaluationReportPath() string {
	return filepath.Join(p.SessionLogsDir, "datalog_evaluation.txt")
}

// WriteEnvelope implements the agent-facing write_envelope operation:
//
//  1. Require an active session (paths.SessionLogsDir non-empty); otherwise
//     report "no active session".
//  2. Parse factsYAML. On parse failure, return a diagnostic.
//  3. If envelope.facts is empty, return the guidance message.
//  3a. Scan the facts YAML for embedded secrets; a CRITICAL finding is
//     reported the same way as an empty-facts rejection and the envelope
//     is not written.
//  4. Write the envelope to <session_logs>/envelope.yaml.
//  5. Run the verification pipeline in shadow mode: detailed results go to
//     rulespec.compiled.dl and datalog_evaluation.txt and are logged, only a
//     one-line summary is returned.
//  6. If failed_count == 0 && passed_count > 0, mint the token and rewrite
//     the envelope with verified set.
//
// The token value is never included in the returned summary.
func WriteEnvelope(paths SessionPaths, factsYAML string, logger *zap.Logger) (*WriteEnvelopeResult, error) {
	if paths.SessionLogsDir == "" {
		return &WriteEnvelopeResult{Summary: "no active session"}, nil
	}

	envelope, err := ParseEnvelope([]byte(factsYAML))
	if err != nil {
		return &WriteEnvelopeResult{Summary: fmt.Sprintf("invalid facts YAML: %v", err)}, nil
	}

	if envelope.IsEmpty() {
		return &WriteEnvelopeResult{Summary: emptyFactsGuidance}, nil
	}

	if findings := security.ScanContent(factsYAML); hasCritical(findings) {
		return &WriteEnvelopeResult{Summary: secretFindingGuidance(findings)}, nil
	}

	envelopeData, err := envelope.Marshal()
	if err != nil {
		return nil, fmt.Errorf("write_envelope: marshal envelope: %w", err)
	}
	if err := os.MkdirAll(paths.SessionLogsDir, 0755); err != nil {
		return nil, fmt.Errorf("write_envelope: create session log directory: %w", err)
	}
	if err := os.WriteFile(paths.EnvelopePath(), envelopeData, 0644); err != nil {
		return nil, fmt.Errorf("write_envelope: write envelope: %w", err)
	}

	rulespec, err := loadRulespec(paths.RulespecPath())
	if err != nil {
		logger.Error("write_envelope: failed to read rulespec", zap.Error(err))
		return &WriteEnvelopeResult{Summary: fmt.Sprintf("failed to compile: %v", err)}, nil
	}
	if rulespec.IsEmpty() {
		return &WriteEnvelopeResult{Summary: "no rulespec; verification skipped"}, nil
	}

	if err := rulespec.Validate(); err != nil {
		logger.Error("write_envelope: rulespec validation failed", zap.Error(err))
		shadowWriteFailure(paths, err, logger)
		return &WriteEnvelopeResult{Summary: "failed to compile: " + err.Error()}, nil
	}

	compiled, err := CompileRulespec(rulespec, "", 0)
	if err != nil {
		logger.Error("write_envelope: compile failed", zap.Error(err))
		shadowWriteFailure(paths, err, logger)
		return &WriteEnvelopeResult{Summary: "failed to compile: " + err.Error()}, nil
	}

	facts, err := ExtractFacts(envelope, rulespec.ClaimNames())
	if err != nil {
		logger.Error("write_envelope: fact extraction failed", zap.Error(err))
		shadowWriteFailure(paths, err, logger)
		return &WriteEnvelopeResult{Summary: "failed to compile: " + err.Error()}, nil
	}

	report := Evaluate(compiled, facts)
	program := FormatDatalogProgram(compiled, facts)

	if err := os.WriteFile(paths.CompiledProgramPath(), []byte(program), 0644); err != nil {
		logger.Warn("write_envelope: failed to write compiled program", zap.Error(err))
	}
	evalText := formatEvaluationReport(report)
	if err := os.WriteFile(paths.EvaluationReportPath(), []byte(evalText), 0644); err != nil {
		logger.Warn("write_envelope: failed to write evaluation report", zap.Error(err))
	}
	logger.Info("write_envelope: verification complete",
		zap.Int("passed", report.PassedCount), zap.Int("failed", report.FailedCount))
	fmt.Fprintln(os.Stderr, evalText)

	summary := fmt.Sprintf("verification: %d passed, %d failed", report.PassedCount, report.FailedCount)
	stamped := false

	if report.FailedCount == 0 && report.PassedCount > 0 {
		key, err := LoadOrCreateKey()
		if err != nil {
			logger.Error("write_envelope: failed to load verification key", zap.Error(err))
			return &WriteEnvelopeResult{Summary: summary + " (stamping failed)"}, nil
		}
		token, err := MintToken(key, envelope, rulespec)
		if err != nil {
			logger.Error("write_envelope: failed to mint token", zap.Error(err))
			return &WriteEnvelopeResult{Summary: summary + " (stamping failed)"}, nil
		}
		envelope.Verified = token
		rewritten, err := envelope.Marshal()
		if err != nil {
			logger.Error("write_envelope: failed to marshal stamped envelope", zap.Error(err))
			return &WriteEnvelopeResult{Summary: summary + " (stamping failed)"}, nil
		}
		if err := os.WriteFile(paths.EnvelopePath(), rewritten, 0644); err != nil {
			logger.Error("write_envelope: failed to rewrite stamped envelope", zap.Error(err))
			return &WriteEnvelopeResult{Summary: summary + " (stamping failed)"}, nil
		}
		stamped = true
	}

	return &WriteEnvelopeResult{Summary: summary, Stamped: stamped}, nil
}

const emptyFactsGuidance = `facts is empty. Wrap your facts in a "facts:" mapping, e.g.:

facts:
  feature:
    done: true
`

func hasCritical(findings []security.SecretFinding) bool {
	for _, f := range findings {
		if f.Severity == "critical" {
			return true
		}
	}
	return false
}

func secretFindingGuidance(findings []security.SecretFinding) string {
	return fmt.Sprintf("facts rejected: %d potential embedded secret(s) detected (e.g. %s). "+
		"Reference secrets via environment variables or a vault, not literal values in facts.",
		len(findings), findings[0].Type)
}

func loadRulespec(path string) (*Rulespec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Rulespec{}, nil
		}
		return nil, fmt.Errorf("read rulespec: %w", err)
	}
	return ParseRulespec(data)
}

func shadowWriteFailure(paths SessionPaths, err error, logger *zap.Logger) {
	msg := fmt.Sprintf("compilation failed: %v\n", err)
	if writeErr := os.WriteFile(paths.EvaluationReportPath(), []byte(msg), 0644); writeErr != nil {
		logger.Warn("write_envelope: failed to write failure shadow report", zap.Error(writeErr))
	}
	fmt.Fprint(os.Stderr, msg)
}

func formatEvaluationReport(report *EvaluationReport) string {
	out := fmt.Sprintf("facts extracted: %d\npassed: %d\nfailed: %d\n\n", report.FactCount, report.PassedCount, report.FailedCount)
	for _, r := range report.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		out += fmt.Sprintf("[%s] predicate %d: %s(%s) — %s\n", status, r.ID, r.Rule, r.Claim, r.Reason)
	}
	return out
}
