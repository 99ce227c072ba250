package data

import (
	"fmt"
	"os"

	"github.com/darklegend/server/internal/effect"
	"gopkg.in/yaml.v3"
)

// LoadEffectTable loads effect_list.yaml into a validated registry.
func LoadEffectTable(path string) (*effect.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effect list: %w", err)
	}
	var defs []effect.Def
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse effect list: %w", err)
	}
	reg, err := effect.NewRegistry(defs)
	if err != nil {
		return nil, fmt.Errorf("effect list: %w", err)
	}
	return reg, nil
}
