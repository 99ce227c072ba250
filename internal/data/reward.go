package data

import (
	"fmt"
	"os"

	"github.com/darklegend/server/internal/reset"
	"gopkg.in/yaml.v3"
)

// ResetRewardFile is reset_reward_list.yaml: normal-reset brackets plus
// the items each tier consumes.
type ResetRewardFile struct {
	Brackets []reset.Bracket        `yaml:"brackets"`
	Items    map[string]map[int]int `yaml:"items"` // tier name -> item id -> count
}

// ResetRewards is the loaded reward data.
type ResetRewards struct {
	Table *reset.RewardTable
	items map[reset.Kind]map[int]int
}

// LoadResetRewards loads reset_reward_list.yaml.
func LoadResetRewards(path string) (*ResetRewards, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reset rewards: %w", err)
	}
	return parseResetRewards(raw)
}

func parseResetRewards(raw []byte) (*ResetRewards, error) {
	var f ResetRewardFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse reset rewards: %w", err)
	}
	brackets := f.Brackets
	if len(brackets) == 0 {
		brackets = reset.DefaultBrackets()
	}
	tbl, err := reset.NewRewardTable(brackets)
	if err != nil {
		return nil, fmt.Errorf("reset rewards: %w", err)
	}
	r := &ResetRewards{Table: tbl, items: make(map[reset.Kind]map[int]int)}
	for name, items := range f.Items {
		var k reset.Kind
		if err := k.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("reset rewards items: %w", err)
		}
		r.items[k] = items
	}
	return r, nil
}

// Items returns the item requirement for a tier (nil = none).
func (r *ResetRewards) Items(k reset.Kind) map[int]int {
	return r.items[k]
}
