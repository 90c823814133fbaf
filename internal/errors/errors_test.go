package errors

import (
	"errors"
	"testing"
)

func TestNewAppError(t *testing.T) {
	err := New(ErrorTypeRulespec, "duplicate claim")

	if err.Type != ErrorTypeRulespec {
		t.Errorf("Type = %v, want %v", err.Type, ErrorTypeRulespec)
	}
	if err.Severity != SeverityError {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityError)
	}
	if err.Retryable {
		t.Error("New() should default Retryable to false")
	}
}

func TestAppErrorChaining(t *testing.T) {
	cause := errors.New("boom")
	err := New(ErrorTypeToken, "mint failed").
		WithSeverity(SeverityWarning).
		WithDetails("key load failed").
		WithRetryable(true).
		Wrap(cause)

	if err.Severity != SeverityWarning {
		t.Errorf("Severity = %v, want %v", err.Severity, SeverityWarning)
	}
	if err.Details != "key load failed" {
		t.Errorf("Details = %q, want %q", err.Details, "key load failed")
	}
	if !err.Retryable {
		t.Error("expected Retryable = true")
	}
	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap() should return the wrapped cause")
	}
}

func TestAppErrorString(t *testing.T) {
	cause := errors.New("selector syntax")
	err := New(ErrorTypeSelector, "bad selector").Wrap(cause)

	got := err.Error()
	want := "selector: bad selector (caused by: selector syntax)"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noCause := New(ErrorTypeSelector, "bad selector")
	if noCause.Error() != "selector: bad selector" {
		t.Errorf("Error() = %q, want %q", noCause.Error(), "selector: bad selector")
	}
}

func TestDomainConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{"selector", SelectorError("x", nil), ErrorTypeSelector},
		{"rulespec", RulespecError("x", nil), ErrorTypeRulespec},
		{"envelope", EnvelopeError("x", nil), ErrorTypeEnvelope},
		{"token", TokenError("x", nil), ErrorTypeToken},
		{"plan", PlanError("x", nil), ErrorTypePlan},
		{"pipeline", PipelineError("x", nil), ErrorTypePipeline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", tt.err.Type, tt.wantType)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := DatabaseError("x", nil)
	if !IsRetryable(retryable) {
		t.Error("DatabaseError should be retryable")
	}

	notRetryable := ValidationError("x")
	if IsRetryable(notRetryable) {
		t.Error("ValidationError should not be retryable")
	}

	if IsRetryable(errors.New("plain")) {
		t.Error("a plain error should never be retryable")
	}
}

func TestGetSeverity(t *testing.T) {
	if GetSeverity(ValidationError("x")) != SeverityWarning {
		t.Error("ValidationError should carry warning severity")
	}
	if GetSeverity(errors.New("plain")) != SeverityError {
		t.Error("a plain error should default to error severity")
	}
}
