package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/darklegend/server/internal/battleground"
	"gopkg.in/yaml.v3"
)

// ArenaEntry 戰場地圖定義。
type ArenaEntry struct {
	Name        string              `yaml:"name"`
	Modes       []string            `yaml:"modes"` // empty = every mode
	Center      battleground.Vec2   `yaml:"center"`
	Team1Spawns []battleground.Vec2 `yaml:"team1_spawns"`
	Team2Spawns []battleground.Vec2 `yaml:"team2_spawns"`
	Flag1Base   battleground.Vec2   `yaml:"flag1_base"`
	Flag2Base   battleground.Vec2   `yaml:"flag2_base"`
	Hills       []battleground.Vec2 `yaml:"hills"`
}

func (e *ArenaEntry) Arena() battleground.Arena {
	return battleground.Arena{
		Name:        e.Name,
		Center:      e.Center,
		Team1Spawns: e.Team1Spawns,
		Team2Spawns: e.Team2Spawns,
		Flag1Base:   e.Flag1Base,
		Flag2Base:   e.Flag2Base,
		Hills:       e.Hills,
	}
}

func (e *ArenaEntry) supports(mode string) bool {
	if len(e.Modes) == 0 {
		return true
	}
	for _, m := range e.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ArenaTable holds arenas by name.
type ArenaTable struct {
	arenas map[string]*ArenaEntry
}

// LoadArenaTable loads arena_list.yaml.
func LoadArenaTable(path string) (*ArenaTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arena list: %w", err)
	}
	return parseArenaTable(raw)
}

func parseArenaTable(raw []byte) (*ArenaTable, error) {
	var entries []ArenaEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse arena list: %w", err)
	}
	t := &ArenaTable{arenas: make(map[string]*ArenaEntry, len(entries))}
	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("arena #%d: missing name", i)
		}
		if _, dup := t.arenas[e.Name]; dup {
			return nil, fmt.Errorf("arena %s: duplicate", e.Name)
		}
		t.arenas[e.Name] = e
	}
	return t, nil
}

// Get returns an arena by name, or nil.
func (t *ArenaTable) Get(name string) *ArenaEntry {
	return t.arenas[name]
}

// ForMode returns the first arena (by name) usable for mode.
func (t *ArenaTable) ForMode(mode string) (*ArenaEntry, bool) {
	for _, n := range t.Names() {
		if e := t.arenas[n]; e.supports(mode) {
			return e, true
		}
	}
	return nil, false
}

func (t *ArenaTable) Names() []string {
	out := make([]string, 0, len(t.arenas))
	for n := range t.arenas {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (t *ArenaTable) Count() int {
	return len(t.arenas)
}
