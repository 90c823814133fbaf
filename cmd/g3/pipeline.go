package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kyledavis/g3/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	pipelineStatePath  string
	pipelineSessionID  string
	pipelineCommitsRun int
	pipelineSkipReason string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect and drive the seven-stage workflow state machine",
	Long:  `pipeline tracks a run's progress through plan, approve, implement, verify, review, commit, and report, persisting state so a crash can resume.`,
}

func loadOrCreatePipeline() (*pipeline.PipelineState, error) {
	s, err := pipeline.Load(pipelineStatePath)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = pipeline.New(pipelineStatePath, pipelineSessionID, pipelineCommitsRun)
	}
	return s, nil
}

var pipelineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show each stage's current status and the resume point",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadOrCreatePipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline status: %v\n", err)
			osExit(1)
			return
		}

		fmt.Printf("run %s\n", s.RunID)
		for _, st := range s.Stages {
			switch st.Status.Kind {
			case pipeline.StatusComplete:
				fmt.Printf("  %-10s %s (took %s, %d commit(s))\n", st.Stage, st.Status.Kind, st.Status.Duration, st.Status.Commits)
			case pipeline.StatusFailed:
				fmt.Printf("  %-10s %s (%s attempt)\n", st.Stage, st.Status.Kind, humanize.Ordinal(st.Status.Attempts))
			default:
				fmt.Printf("  %-10s %s\n", st.Stage, st.Status.Kind)
			}
		}
		fmt.Printf("resume point: stage %d of %d\n", s.ResumePoint(), len(s.Stages))
		if s.CompletedAt != nil {
			fmt.Printf("completed %s (%s)\n", humanize.Time(*s.CompletedAt), s.CompletedAt.Format(time.RFC3339))
		}
	},
}

var pipelineAdvanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Begin the next pending stage and mark it running",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadOrCreatePipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline advance: %v\n", err)
			osExit(1)
			return
		}

		i := s.ResumePoint()
		if i >= len(s.Stages) {
			fmt.Println("pipeline already complete")
			return
		}
		if err := s.Begin(i); err != nil {
			fmt.Fprintf(os.Stderr, "pipeline advance: %v\n", err)
			osExit(1)
			return
		}
		fmt.Printf("stage %s now running\n", s.Stages[i].Stage)
	},
}

var pipelineCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark the currently running stage complete",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadOrCreatePipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline complete: %v\n", err)
			osExit(1)
			return
		}

		i := s.CurrentStage
		started := time.Now()
		if err := s.Complete(i, time.Since(started), 0); err != nil {
			fmt.Fprintf(os.Stderr, "pipeline complete: %v\n", err)
			osExit(1)
			return
		}
		fmt.Printf("stage %s complete\n", s.Stages[i].Stage)
	},
}

var pipelineFailCmd = &cobra.Command{
	Use:   "fail <reason>",
	Short: "Mark the currently running stage failed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadOrCreatePipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline fail: %v\n", err)
			osExit(1)
			return
		}

		i := s.CurrentStage
		if err := s.Fail(i, fmt.Errorf("%s", args[0])); err != nil {
			fmt.Fprintf(os.Stderr, "pipeline fail: %v\n", err)
			osExit(1)
			return
		}
		fmt.Printf("stage %s marked failed (attempt %d)\n", s.Stages[i].Stage, s.Stages[i].Status.Attempts)
	},
}

var pipelineRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Reset the currently failed stage to pending",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadOrCreatePipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline retry: %v\n", err)
			osExit(1)
			return
		}

		i := s.CurrentStage
		if err := s.Retry(i); err != nil {
			fmt.Fprintf(os.Stderr, "pipeline retry: %v\n", err)
			osExit(1)
			return
		}
		fmt.Printf("stage %s reset to pending\n", s.Stages[i].Stage)
	},
}

var pipelineSkipCmd = &cobra.Command{
	Use:   "skip",
	Short: "Skip the currently pending stage",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := loadOrCreatePipeline()
		if err != nil {
			fmt.Fprintf(os.Stderr, "pipeline skip: %v\n", err)
			osExit(1)
			return
		}

		i := s.ResumePoint()
		if i >= len(s.Stages) {
			fmt.Println("pipeline already complete")
			return
		}
		if err := s.Skip(i, pipelineSkipReason); err != nil {
			fmt.Fprintf(os.Stderr, "pipeline skip: %v\n", err)
			osExit(1)
			return
		}
		fmt.Printf("stage %s skipped: %s\n", s.Stages[i].Stage, pipelineSkipReason)
	},
}

func init() {
	pipelineCmd.PersistentFlags().StringVar(&pipelineStatePath, "state-file", filepath.Join(".g3", "pipeline.json"), "Path to the pipeline's persisted state file")
	pipelineCmd.PersistentFlags().StringVar(&pipelineSessionID, "session-id", "", "Session id for a freshly created run")
	pipelineCmd.PersistentFlags().IntVar(&pipelineCommitsRun, "commits-per-run", 0, "Expected commits for a freshly created run")

	pipelineSkipCmd.Flags().StringVar(&pipelineSkipReason, "reason", "", "Reason the stage is being skipped")

	pipelineCmd.AddCommand(pipelineStatusCmd, pipelineAdvanceCmd, pipelineCompleteCmd, pipelineFailCmd, pipelineRetryCmd, pipelineSkipCmd)
	rootCmd.AddCommand(pipelineCmd)
}
