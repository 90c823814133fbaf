package plan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a Plan from path. A missing file yields a fresh empty plan
// rather than an error: plan_read on a session with no prior plan_write is
// legal and simply reports nothing in progress yet.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("plan: read %s: %w", path, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan: parse %s: %w", path, err)
	}
	return &p, nil
}

// Save writes p to path via a temp-file-then-rename, the same atomic
// pattern the pipeline state machine persists with.
func (p *Plan) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("plan: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("plan: create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("plan: write temp file: %w", err)
	}
	return os.Rename(tmp, path)
}
