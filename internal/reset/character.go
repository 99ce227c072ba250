package reset

import (
	"math"
)

// Stats are the allocatable attributes.
type Stats struct {
	Str int `json:"str"`
	Agi int `json:"agi"`
	Vit int `json:"vit"`
	Ene int `json:"ene"`
}

// Combat is the unmodified combat block a character has at its level.
type Combat struct {
	Damage  int `json:"damage"`
	Defense int `json:"defense"`
	MaxHP   int `json:"max_hp"`
	MaxMP   int `json:"max_mp"`
}

// Progress holds reset counters and the permanent bonuses they grant.
// Multipliers start at 1.0 and only ever grow.
type Progress struct {
	NormalResets int     `json:"normal_resets"`
	GrandResets  int     `json:"grand_resets"`
	MasterResets int     `json:"master_resets"`
	BonusStats   int     `json:"bonus_stats"`
	DamageMul    float64 `json:"damage_mul"`
	DefenseMul   float64 `json:"defense_mul"`
	HPMul        float64 `json:"hp_mul"`
	MPMul        float64 `json:"mp_mul"`
}

func NewProgress() Progress {
	return Progress{DamageMul: 1, DefenseMul: 1, HPMul: 1, MPMul: 1}
}

func (p Progress) HasMaster() bool { return p.MasterResets > 0 }

func (p *Progress) grant(r Reward) {
	p.BonusStats += r.BonusStats
	p.DamageMul += r.Damage
	p.DefenseMul += r.Defense
	p.HPMul += r.HP
	p.MPMul += r.MP
}

// normalize fills multipliers missing from old records.
func (p *Progress) normalize() {
	for _, m := range []*float64{&p.DamageMul, &p.DefenseMul, &p.HPMul, &p.MPMul} {
		if *m <= 0 {
			*m = 1
		}
	}
}

// Character 重置系統操作的角色資料。
type Character struct {
	Handle     string
	Level      int
	Zen        int64
	Stats      Stats
	BaseStats  Stats // class starting stats, restored when stats are not kept
	FreePoints int
	Items      map[int]int
	Skills     []int
	Combat     Combat
	Progress   Progress
	History    History
	Dirty      bool
}

func NewCharacter(handle string, level int, zen int64) *Character {
	return &Character{
		Handle:   handle,
		Level:    level,
		Zen:      zen,
		Items:    make(map[int]int),
		Progress: NewProgress(),
	}
}

// EffectiveCombat applies the reset multipliers to the base block.
func (c *Character) EffectiveCombat() Combat {
	p := c.Progress
	return Combat{
		Damage:  scale(c.Combat.Damage, p.DamageMul),
		Defense: scale(c.Combat.Defense, p.DefenseMul),
		MaxHP:   scale(c.Combat.MaxHP, p.HPMul),
		MaxMP:   scale(c.Combat.MaxMP, p.MPMul),
	}
}

func scale(v int, mul float64) int {
	return int(math.Round(float64(v) * mul))
}

// Record is the persisted form of a character's progression.
type Record struct {
	Handle     string   `json:"handle"`
	Level      int      `json:"level"`
	Zen        int64    `json:"zen"`
	Stats      Stats    `json:"stats"`
	FreePoints int      `json:"free_points"`
	Progress   Progress `json:"progress"`
	History    []Entry  `json:"history"`
}

func (c *Character) Snapshot() Record {
	return Record{
		Handle:     c.Handle,
		Level:      c.Level,
		Zen:        c.Zen,
		Stats:      c.Stats,
		FreePoints: c.FreePoints,
		Progress:   c.Progress,
		History:    c.History.Entries(),
	}
}

// Restore replaces the character's progression with rec. Items, skills and
// the base blocks are owned elsewhere and left alone.
func (c *Character) Restore(rec Record) {
	c.Handle = rec.Handle
	c.Level = rec.Level
	c.Zen = rec.Zen
	c.Stats = rec.Stats
	c.FreePoints = rec.FreePoints
	c.Progress = rec.Progress
	c.Progress.normalize()
	c.History = historyFrom(rec.History)
	c.Dirty = false
}
