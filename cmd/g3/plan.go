package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kyledavis/g3/internal/plan"
	"github.com/kyledavis/g3/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	planFile       string
	planWriteInput string
	planLedgerPath string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Read, write, and approve the structured work-item plan",
	Long:  `plan manages the structured Plan maintained across agent turns: items, states, revisions, and the approval gate.`,
}

var planReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Render the current plan as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		rendered, err := plan.ReadPlan(planFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan read: %v\n", err)
			osExit(1)
			return
		}
		fmt.Print(rendered)
	},
}

var planWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Apply a new item list to the plan",
	Long:  `write reads a YAML document of the form {items: [...]} from --plan, or from stdin when --plan is omitted, and applies it as a plan_write.`,
	Run: func(cmd *cobra.Command, args []string) {
		body := planWriteInput
		if body == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				fmt.Fprintf(os.Stderr, "plan write: read stdin: %v\n", err)
				osExit(1)
				return
			}
			body = string(data)
		}

		updated, err := plan.WritePlan(planFile, body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan write: %v\n", err)
			osExit(1)
			return
		}

		recordPlanTransition(updated)
		fmt.Printf("plan %s: revision %d (%d item(s))\n", updated.PlanID, updated.Revision, len(updated.Items))
	},
}

var planApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the plan at its current revision",
	Long:  `approve locks in the current revision: items present at approval may only be transitioned to blocked afterward, never removed.`,
	Run: func(cmd *cobra.Command, args []string) {
		approved, err := plan.ApprovePlan(planFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan approve: %v\n", err)
			osExit(1)
			return
		}

		recordPlanTransition(approved)
		fmt.Printf("plan %s approved at revision %d\n", approved.PlanID, *approved.ApprovedRevision)
	},
}

var planStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the plan's progress and terminal state",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := plan.Load(planFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan status: %v\n", err)
			osExit(1)
			return
		}

		counts := map[plan.ItemState]int{}
		for _, it := range p.Items {
			counts[it.State]++
		}
		fmt.Printf("plan %s, revision %d\n", p.PlanID, p.Revision)
		fmt.Printf("  todo: %d  doing: %d  done: %d  blocked: %d\n",
			counts[plan.StateTodo], counts[plan.StateDoing], counts[plan.StateDone], counts[plan.StateBlocked])
		if p.ApprovedRevision != nil {
			fmt.Printf("  approved at revision %d\n", *p.ApprovedRevision)
		} else {
			fmt.Println("  not yet approved")
		}
		if p.Terminal() {
			fmt.Println("  terminal: yes")
		} else {
			fmt.Println("  terminal: no")
		}
	},
}

var planCheckSizingCmd = &cobra.Command{
	Use:   "check-sizing",
	Short: "Validate every sized item against the sizing policy",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := plan.Load(planFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan check-sizing: %v\n", err)
			osExit(1)
			return
		}

		report := plan.CheckSizing(p, plan.DefaultSizingPolicy)
		fmt.Println(report.Summary())
		for _, v := range report.Violations {
			fmt.Printf("  [%s] item %s: %d (bound %d/%d)\n", v.Issue, v.ItemID, v.ActualValue, v.MinValue, v.MaxValue)
		}
		if !report.Valid {
			osExit(1)
		}
	},
}

var planHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded plan-revision transitions from the audit ledger",
	Run: func(cmd *cobra.Command, args []string) {
		p, err := plan.Load(planFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan history: %v\n", err)
			osExit(1)
			return
		}

		logger := zap.NewNop()
		s, err := store.Open(planLedgerPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan history: %v\n", err)
			osExit(1)
			return
		}
		defer s.Close()

		transitions, err := s.PlanHistory(p.PlanID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan history: %v\n", err)
			osExit(1)
			return
		}
		if len(transitions) == 0 {
			fmt.Println("no recorded transitions")
			return
		}
		for _, t := range transitions {
			fmt.Printf("%s  revision %d  approved=%t  terminal=%t\n", t.CreatedAt.Format("2006-01-02T15:04:05Z"), t.Revision, t.Approved, t.Terminal)
		}
	},
}

// recordPlanTransition best-effort appends p's current state to the audit
// ledger. A ledger failure is logged to stderr but never fails the command:
// the plan file itself is the source of truth, the ledger is a queryable
// history on top of it.
func recordPlanTransition(p *plan.Plan) {
	logger := zap.NewNop()
	s, err := store.Open(planLedgerPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open audit ledger: %v\n", err)
		return
	}
	defer s.Close()

	approved := p.ApprovedRevision != nil && *p.ApprovedRevision == p.Revision
	if err := s.RecordPlanTransition(p.PlanID, p.Revision, approved, p.Terminal()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record plan transition: %v\n", err)
	}
}

func init() {
	planCmd.PersistentFlags().StringVar(&planFile, "plan-file", filepath.Join(".g3", "plan.yaml"), "Path to the plan's YAML state file")
	planCmd.PersistentFlags().StringVar(&planLedgerPath, "ledger", filepath.Join(".g3", "audit.db"), "Path to the audit ledger database")

	planWriteCmd.Flags().StringVar(&planWriteInput, "plan", "", "YAML items document; read from stdin if omitted")

	planCmd.AddCommand(planReadCmd, planWriteCmd, planApproveCmd, planStatusCmd, planCheckSizingCmd, planHistoryCmd)
	rootCmd.AddCommand(planCmd)
}
