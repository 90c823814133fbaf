package plan

import "fmt"

// SizingPolicy bounds how large a single PlanItem may be, adapted from the
// min/max-minutes + max-files guidelines enforced elsewhere in this
// codebase's task-sizing tooling: tasks too large risk context overflow,
// tasks too small carry inefficient overhead.
type SizingPolicy struct {
	MinMinutes int
	MaxMinutes int
	MaxFiles   int
}

// DefaultSizingPolicy mirrors the same default guidance in use elsewhere
// in this codebase's task-sizing tooling (30-150 minutes per task).
var DefaultSizingPolicy = SizingPolicy{MinMinutes: 30, MaxMinutes: 150, MaxFiles: 10}

// SizingViolation is one item's sizing problem.
type SizingViolation struct {
	ItemID      string
	Issue       string
	ActualValue int
	MinValue    int
	MaxValue    int
}

// SizingReport summarizes a plan's compliance with a SizingPolicy.
type SizingReport struct {
	Valid      bool
	TotalItems int
	Violations []SizingViolation
}

// CheckSizing validates every item with an EstimatedMinutes set against
// policy. Items that omit EstimatedMinutes are skipped — sizing is opt-in
// per item, not a universal requirement of the Plan model.
func CheckSizing(p *Plan, policy SizingPolicy) SizingReport {
	report := SizingReport{Valid: true, TotalItems: len(p.Items)}

	for _, item := range p.Items {
		if item.EstimatedMinutes == nil {
			continue
		}
		minutes := *item.EstimatedMinutes

		if minutes < policy.MinMinutes {
			report.Valid = false
			report.Violations = append(report.Violations, SizingViolation{
				ItemID: item.ID, Issue: "duration_below_minimum",
				ActualValue: minutes, MinValue: policy.MinMinutes,
			})
		} else if minutes > policy.MaxMinutes {
			report.Valid = false
			report.Violations = append(report.Violations, SizingViolation{
				ItemID: item.ID, Issue: "duration_above_maximum",
				ActualValue: minutes, MaxValue: policy.MaxMinutes,
			})
		}

		if len(item.Touches) > policy.MaxFiles {
			report.Valid = false
			report.Violations = append(report.Violations, SizingViolation{
				ItemID: item.ID, Issue: "too_many_files",
				ActualValue: len(item.Touches), MaxValue: policy.MaxFiles,
			})
		}
	}

	return report
}

// Summary renders a one-line human-readable verdict.
func (r SizingReport) Summary() string {
	if r.Valid {
		return fmt.Sprintf("sizing: %d items, all within policy", r.TotalItems)
	}
	return fmt.Sprintf("sizing: %d items, %d violation(s)", r.TotalItems, len(r.Violations))
}
