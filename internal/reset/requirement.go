package reset

import (
	"fmt"

	"github.com/darklegend/server/internal/config"
)

// Kind 重置階級。
type Kind int

const (
	KindNormal Kind = iota + 1
	KindGrand
	KindMaster
)

func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindGrand:
		return "grand"
	case KindMaster:
		return "master"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText keeps history records readable.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*k = KindNormal
	case "grand":
		*k = KindGrand
	case "master":
		*k = KindMaster
	default:
		return fmt.Errorf("unknown reset kind %q", b)
	}
	return nil
}

// Requirement is the gate for one reset tier. Zen cost grows linearly with
// the number of resets of that tier already performed.
type Requirement struct {
	MinLevel       int
	BaseZen        int64
	ZenStep        int64
	MinPriorResets int         // prior-tier resets needed (normal for grand, grand for master)
	MaxCount       int         // 0 = unlimited
	Items          map[int]int // item id -> count, consumed on success
}

// RequirementFromConfig copies a tier section; item requirements are
// attached separately.
func RequirementFromConfig(c config.ResetTierConfig) Requirement {
	return Requirement{
		MinLevel:       c.MinLevel,
		BaseZen:        c.BaseZen,
		ZenStep:        c.ZenStep,
		MinPriorResets: c.MinPriorResets,
		MaxCount:       c.MaxCount,
	}
}

// CalculateZenCost 第 n+1 次重置的費用（n = 已完成次數）。
func (r Requirement) CalculateZenCost(n int) int64 {
	if n < 0 {
		n = 0
	}
	return r.BaseZen + int64(n)*r.ZenStep
}

// missingItem returns the first item (lowest id) the inventory lacks.
func (r Requirement) missingItem(inv map[int]int) (id, need int, ok bool) {
	first := -1
	for item, cnt := range r.Items {
		if inv[item] < cnt && (first < 0 || item < first) {
			first = item
		}
	}
	if first < 0 {
		return 0, 0, false
	}
	return first, r.Items[first], true
}
