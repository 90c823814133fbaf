// Package pipeline implements the orchestrator's seven-stage workflow state
// machine: a shared cursor over ordered stages, persisted as JSON after
// every transition, crash-safe on resume.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Stage names the seven ordered stages of a pipeline run, in order.
type Stage string

const (
	StagePlan      Stage = "plan"
	StageApprove   Stage = "approve"
	StageImplement Stage = "implement"
	StageVerify    Stage = "verify"
	StageReview    Stage = "review"
	StageCommit    Stage = "commit"
	StageReport    Stage = "report"
)

// Stages is the fixed, ordered stage list every PipelineState walks.
var Stages = []Stage{
	StagePlan, StageApprove, StageImplement, StageVerify, StageReview, StageCommit, StageReport,
}

// StatusKind tags the variant of a StageStatus.
type StatusKind string

const (
	StatusPending  StatusKind = "pending"
	StatusRunning  StatusKind = "running"
	StatusComplete StatusKind = "complete"
	StatusFailed   StatusKind = "failed"
	StatusSkipped  StatusKind = "skipped"
)

// StageStatus is one stage's current status: complete carries duration and
// a commit count, failed carries an error and attempt count, skipped
// carries a reason.
type StageStatus struct {
	Kind     StatusKind    `json:"kind"`
	Duration time.Duration `json:"duration,omitempty"`
	Commits  int           `json:"commits,omitempty"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// StageState pairs a Stage with its StageStatus.
type StageState struct {
	Stage  Stage       `json:"stage"`
	Status StageStatus `json:"status"`
}

// PipelineState is the orchestrator's persisted multi-stage workflow state:
// run_id, the seven stages, the current-stage cursor, a commit cursor,
// commits-per-run, and an optional session id.
type PipelineState struct {
	RunID         string       `json:"run_id"`
	Stages        []StageState `json:"stages"`
	CurrentStage  int          `json:"current_stage"`
	CommitCursor  int          `json:"commit_cursor"`
	CommitsPerRun int          `json:"commits_per_run"`
	SessionID     string       `json:"session_id,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`

	path string
}

// New creates a fresh PipelineState with every stage pending.
func New(path string, sessionID string, commitsPerRun int) *PipelineState {
	stages := make([]StageState, len(Stages))
	for i, s := range Stages {
		stages[i] = StageState{Stage: s, Status: StageStatus{Kind: StatusPending}}
	}
	return &PipelineState{
		RunID:         uuid.NewString(),
		Stages:        stages,
		CurrentStage:  0,
		CommitsPerRun: commitsPerRun,
		SessionID:     sessionID,
		path:          path,
	}
}

// Load reads a persisted PipelineState from path. A running stage found on
// load is a crash indicator and is reset to pending. A missing or corrupted
// file is treated as "start fresh": nil, nil is returned rather than an
// error.
func Load(path string) (*PipelineState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil
	}

	var s PipelineState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil
	}
	s.path = path

	for i := range s.Stages {
		if s.Stages[i].Status.Kind == StatusRunning {
			s.Stages[i].Status = StageStatus{Kind: StatusPending}
		}
	}

	return &s, nil
}

// ResumePoint returns the index of the first stage whose status is not
// complete or skipped — the stage a resumed run should start from.
func (s *PipelineState) ResumePoint() int {
	for i, st := range s.Stages {
		if st.Status.Kind != StatusComplete && st.Status.Kind != StatusSkipped {
			return i
		}
	}
	return len(s.Stages)
}

// Begin marks the stage at index i as running and persists the state.
func (s *PipelineState) Begin(i int) error {
	if i < 0 || i >= len(s.Stages) {
		return fmt.Errorf("pipeline: stage index %d out of range", i)
	}
	s.Stages[i].Status = StageStatus{Kind: StatusRunning}
	s.CurrentStage = i
	return s.persist()
}

// Complete marks the stage at index i complete with the given duration and
// commit count, advances the current-stage pointer, and persists. When the
// last stage completes, CompletedAt is set.
func (s *PipelineState) Complete(i int, duration time.Duration, commits int) error {
	if i < 0 || i >= len(s.Stages) {
		return fmt.Errorf("pipeline: stage index %d out of range", i)
	}
	s.Stages[i].Status = StageStatus{Kind: StatusComplete, Duration: duration, Commits: commits}
	s.CommitCursor += commits
	if i == len(s.Stages)-1 {
		now := time.Now().UTC()
		s.CompletedAt = &now
	} else {
		s.CurrentStage = i + 1
	}
	return s.persist()
}

// Fail marks the stage at index i failed, incrementing its attempt counter
// while preserving it across retries.
func (s *PipelineState) Fail(i int, cause error) error {
	if i < 0 || i >= len(s.Stages) {
		return fmt.Errorf("pipeline: stage index %d out of range", i)
	}
	attempts := s.Stages[i].Status.Attempts + 1
	s.Stages[i].Status = StageStatus{Kind: StatusFailed, Error: cause.Error(), Attempts: attempts}
	return s.persist()
}

// Retry resets a failed stage to pending, keeping its attempt count.
func (s *PipelineState) Retry(i int) error {
	if i < 0 || i >= len(s.Stages) {
		return fmt.Errorf("pipeline: stage index %d out of range", i)
	}
	attempts := s.Stages[i].Status.Attempts
	s.Stages[i].Status = StageStatus{Kind: StatusPending, Attempts: attempts}
	return s.persist()
}

// Skip marks a stage skipped with reason.
func (s *PipelineState) Skip(i int, reason string) error {
	if i < 0 || i >= len(s.Stages) {
		return fmt.Errorf("pipeline: stage index %d out of range", i)
	}
	s.Stages[i].Status = StageStatus{Kind: StatusSkipped, Reason: reason}
	return s.persist()
}

// persist writes the state as JSON via a temp-file-then-rename, so a crash
// mid-write never leaves a half-written state file on disk — grounded on
// the same-pack pattern in Aureuma-si's agents/manager/internal/state/store.go
// (write to path+".tmp", then os.Rename).
func (s *PipelineState) persist() error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("pipeline: create state directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("pipeline: write temp state: %w", err)
	}
	return os.Rename(tmp, s.path)
}
