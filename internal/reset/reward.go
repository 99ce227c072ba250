package reset

import (
	"errors"
	"fmt"
	"sort"
)

var ErrRewardOutOfRange = errors.New("reset: no reward defined for reset count")

// Reward is what one reset grants. Percentages are fractions (0.02 = +2%)
// added onto the character's multipliers.
type Reward struct {
	BonusStats int     `json:"bonus_stats"`
	Damage     float64 `json:"damage"`
	Defense    float64 `json:"defense"`
	HP         float64 `json:"hp"`
	MP         float64 `json:"mp"`
}

// uniform builds a reward with the same percentage on all four multipliers.
func uniform(points int, pct float64) Reward {
	return Reward{BonusStats: points, Damage: pct, Defense: pct, HP: pct, MP: pct}
}

// RewardCalculator yields the normal-reset reward for the count-th reset.
type RewardCalculator interface {
	CalculateReward(count int) (Reward, error)
}

// Bracket covers reset counts From..To inclusive.
type Bracket struct {
	From    int     `yaml:"from"`
	To      int     `yaml:"to"`
	Points  int     `yaml:"points"`
	Percent float64 `yaml:"percent"` // whole percent, 2 = +2%
}

// RewardTable is a step function over reset counts.
type RewardTable struct {
	brackets []Bracket
}

// Grand and master rewards are fixed.
var (
	GrandReward  = uniform(5000, 0.10)
	MasterReward = uniform(20000, 0.25)
)

// DefaultBrackets 一般重置獎勵區間。
func DefaultBrackets() []Bracket {
	return []Bracket{
		{From: 1, To: 10, Points: 200, Percent: 1},
		{From: 11, To: 30, Points: 300, Percent: 2},
		{From: 31, To: 50, Points: 400, Percent: 3},
		{From: 51, To: 100, Points: 500, Percent: 5},
	}
}

func DefaultRewardTable() *RewardTable {
	t, _ := NewRewardTable(DefaultBrackets())
	return t
}

// NewRewardTable sorts the brackets and rejects empty, inverted or
// overlapping ranges.
func NewRewardTable(brackets []Bracket) (*RewardTable, error) {
	bs := append([]Bracket(nil), brackets...)
	sort.Slice(bs, func(i, j int) bool { return bs[i].From < bs[j].From })
	for i, b := range bs {
		if b.From < 1 || b.To < b.From {
			return nil, fmt.Errorf("reward bracket %d-%d: invalid range", b.From, b.To)
		}
		if i > 0 && b.From <= bs[i-1].To {
			return nil, fmt.Errorf("reward bracket %d-%d overlaps %d-%d", b.From, b.To, bs[i-1].From, bs[i-1].To)
		}
	}
	return &RewardTable{brackets: bs}, nil
}

func (t *RewardTable) CalculateReward(count int) (Reward, error) {
	i := sort.Search(len(t.brackets), func(i int) bool { return t.brackets[i].To >= count })
	if i == len(t.brackets) || count < t.brackets[i].From {
		return Reward{}, fmt.Errorf("%w: %d", ErrRewardOutOfRange, count)
	}
	b := t.brackets[i]
	return uniform(b.Points, b.Percent/100), nil
}

// MaxCount is the highest count with a defined reward.
func (t *RewardTable) MaxCount() int {
	if len(t.brackets) == 0 {
		return 0
	}
	return t.brackets[len(t.brackets)-1].To
}

func (t *RewardTable) Brackets() []Bracket { return append([]Bracket(nil), t.brackets...) }
