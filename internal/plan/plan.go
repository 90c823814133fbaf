// Package plan implements the structured Plan maintained across agent turns:
// items, states, revisions, the approval gate, and terminal-state detection.
package plan

import (
	"fmt"

	"github.com/google/uuid"
)

// ItemState is one of the four states a PlanItem can occupy:
//
//	todo ──▶ doing ──▶ done
//	  │         │
//	  └──▶ blocked ◀────┘
//
// blocked and done are absorbing: once entered, an item never transitions
// again (enforced by validTransition, below).
type ItemState string

const (
	StateTodo    ItemState = "todo"
	StateDoing   ItemState = "doing"
	StateDone    ItemState = "done"
	StateBlocked ItemState = "blocked"
)

func (s ItemState) absorbing() bool {
	return s == StateDone || s == StateBlocked
}

// Check is a single named assertion a PlanItem expects to hold, e.g. a happy
// path or a negative/boundary case.
type Check struct {
	Desc   string `yaml:"desc" json:"desc"`
	Target string `yaml:"target" json:"target"`
}

// Checks groups the happy-path check with its negative and boundary
// counterparts.
type Checks struct {
	Happy    Check   `yaml:"happy" json:"happy"`
	Negative []Check `yaml:"negative,omitempty" json:"negative,omitempty"`
	Boundary []Check `yaml:"boundary,omitempty" json:"boundary,omitempty"`
}

// PlanItem is one unit of work in a Plan. EstimatedMinutes is the
// supplemented task-sizing field; it is optional and has no bearing on
// state-machine invariants.
type PlanItem struct {
	ID               string    `yaml:"id" json:"id"`
	Description      string    `yaml:"description" json:"description"`
	State            ItemState `yaml:"state" json:"state"`
	Touches          []string  `yaml:"touches,omitempty" json:"touches,omitempty"`
	Checks           *Checks   `yaml:"checks,omitempty" json:"checks,omitempty"`
	Evidence         []string  `yaml:"evidence,omitempty" json:"evidence,omitempty"`
	Notes            string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	EstimatedMinutes *int      `yaml:"estimated_minutes,omitempty" json:"estimated_minutes,omitempty"`
}

// Plan is the structured work-item list maintained across agent turns.
type Plan struct {
	PlanID            string     `yaml:"plan_id" json:"plan_id"`
	Revision          uint32     `yaml:"revision" json:"revision"`
	ApprovedRevision  *uint32    `yaml:"approved_revision,omitempty" json:"approved_revision,omitempty"`
	Items             []PlanItem `yaml:"items" json:"items"`
}

// New creates an empty plan at revision 0 with a fresh ID.
func New() *Plan {
	return &Plan{PlanID: uuid.NewString(), Revision: 0}
}

// validTransition reports whether an item may move from `from` to `to` via a
// single plan write. Absorbing states never transition further.
func validTransition(from, to ItemState) bool {
	if from == to {
		return true
	}
	if from.absorbing() {
		return false
	}
	switch from {
	case StateTodo:
		return to == StateDoing || to == StateBlocked
	case StateDoing:
		return to == StateDone || to == StateBlocked
	default:
		return false
	}
}

// Write applies a new item list as the result of a plan_write operation:
// revision increments unconditionally; every item transition is validated
// against validTransition; once approved, items present at the approved
// revision may not be removed — only transitioned to blocked — in revisions
// after the approval.
func (p *Plan) Write(newItems []PlanItem) error {
	byID := make(map[string]PlanItem, len(p.Items))
	for _, it := range p.Items {
		byID[it.ID] = it
	}

	newByID := make(map[string]bool, len(newItems))
	for _, it := range newItems {
		newByID[it.ID] = true
	}

	if p.ApprovedRevision != nil {
		for _, old := range p.Items {
			if !newByID[old.ID] {
				return fmt.Errorf("plan: item %q was removed after approval at revision %d", old.ID, *p.ApprovedRevision)
			}
		}
	}

	for _, it := range newItems {
		old, existed := byID[it.ID]
		if !existed {
			continue
		}
		if !validTransition(old.State, it.State) {
			return fmt.Errorf("plan: item %q: invalid transition %s -> %s", it.ID, old.State, it.State)
		}
	}

	p.Items = newItems
	p.Revision++
	return nil
}

// Approve sets ApprovedRevision to the plan's current revision.
func (p *Plan) Approve() {
	r := p.Revision
	p.ApprovedRevision = &r
}

// Terminal reports whether the plan has reached a terminal state: every item
// is done, or every non-done item is blocked.
func (p *Plan) Terminal() bool {
	for _, it := range p.Items {
		if it.State != StateDone && it.State != StateBlocked {
			return false
		}
	}
	return true
}
