package workbench

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rahul/chainsmith/internal/model"
)

// Plan is the on-disk form of a draft.
type Plan struct {
	Steps  []model.Step      `yaml:"steps"`
	Values map[string]string `yaml:"values,omitempty"`
}

// LoadPlan reads a YAML plan file into a draft.
func LoadPlan(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to read plan: %w", err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Draft{}, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}
	return DraftOf(p.Steps, p.Values), nil
}

// SavePlan writes the draft as YAML, keeping every stored value.
func SavePlan(path string, d Draft) error {
	data, err := yaml.Marshal(Plan{Steps: d.Steps(), Values: model.CloneValues(d.values)})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseAssignments turns KEY=VALUE pairs into a map.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q, want KEY=VALUE", p)
		}
		out[k] = v
	}
	return out, nil
}
