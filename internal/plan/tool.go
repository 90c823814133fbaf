package plan

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// planItemsDocument is the shape plan_write's YAML argument takes: a bare
// list of items, not a full Plan (plan_id/revision/approved_revision are
// owned by the stored Plan, not the caller).
type planItemsDocument struct {
	Items []PlanItem `yaml:"items"`
}

// ReadPlan implements the agent-facing plan_read operation: load the plan
// at path and render it back as YAML for the agent to inspect.
func ReadPlan(path string) (string, error) {
	p, err := Load(path)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("plan: render: %w", err)
	}
	return string(data), nil
}

// WritePlan implements the agent-facing plan_write({plan: string})
// operation: parse planYAML as a list of items, apply it to the plan
// stored at path, and persist the result. Returns the updated plan.
func WritePlan(path string, planYAML string) (*Plan, error) {
	var doc planItemsDocument
	if err := yaml.Unmarshal([]byte(planYAML), &doc); err != nil {
		return nil, fmt.Errorf("plan: invalid YAML: %w", err)
	}

	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := p.Write(doc.Items); err != nil {
		return nil, err
	}

	if err := p.Save(path); err != nil {
		return nil, fmt.Errorf("plan: save: %w", err)
	}

	return p, nil
}

// ApprovePlan implements the agent-facing plan_approve({}) operation.
func ApprovePlan(path string) (*Plan, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}

	p.Approve()

	if err := p.Save(path); err != nil {
		return nil, fmt.Errorf("plan: save: %w", err)
	}

	return p, nil
}
