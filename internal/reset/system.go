package reset

import (
	"errors"
	"fmt"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/event"
	"go.uber.org/zap"
)

var ErrResetRejected = errors.New("reset rejected")

// plan is a fully validated reset, computed before anything is mutated.
type plan struct {
	kind   Kind
	req    Requirement
	cost   int64
	reward Reward
}

// System 轉生系統：一般 / 大師 / 至尊三階重置的資格檢查與套用。
// Single-goroutine access only (game loop).
type System struct {
	cfg     config.ResetConfig
	reqs    map[Kind]Requirement
	rewards RewardCalculator
	bus     *event.Bus
	log     *zap.Logger
}

// NewSystem builds the reset system. A nil calculator falls back to the
// default reward table.
func NewSystem(cfg config.ResetConfig, rewards RewardCalculator, bus *event.Bus, log *zap.Logger) *System {
	if rewards == nil {
		rewards = DefaultRewardTable()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.LevelFloor < 1 {
		cfg.LevelFloor = 1
	}
	return &System{
		cfg: cfg,
		reqs: map[Kind]Requirement{
			KindNormal: RequirementFromConfig(cfg.Normal),
			KindGrand:  RequirementFromConfig(cfg.Grand),
			KindMaster: RequirementFromConfig(cfg.Master),
		},
		rewards: rewards,
		bus:     bus,
		log:     log,
	}
}

// Requirement returns the active gate for a tier.
func (s *System) Requirement(kind Kind) Requirement { return s.reqs[kind] }

// SetItems attaches item requirements to a tier.
func (s *System) SetItems(kind Kind, items map[int]int) {
	r := s.reqs[kind]
	r.Items = make(map[int]int, len(items))
	for id, n := range items {
		r.Items[id] = n
	}
	s.reqs[kind] = r
}

func (s *System) CanPerformNormalReset(c *Character) (bool, string) {
	_, reason := s.planNormal(c)
	return reason == "", reason
}

func (s *System) CanPerformGrandReset(c *Character) (bool, string) {
	_, reason := s.planGrand(c)
	return reason == "", reason
}

func (s *System) CanPerformMasterReset(c *Character) (bool, string) {
	_, reason := s.planMaster(c)
	return reason == "", reason
}

func (s *System) PerformNormalReset(c *Character, now time.Time) error {
	p, reason := s.planNormal(c)
	return s.perform(c, KindNormal, p, reason, now)
}

func (s *System) PerformGrandReset(c *Character, now time.Time) error {
	p, reason := s.planGrand(c)
	return s.perform(c, KindGrand, p, reason, now)
}

func (s *System) PerformMasterReset(c *Character, now time.Time) error {
	p, reason := s.planMaster(c)
	return s.perform(c, KindMaster, p, reason, now)
}

func (s *System) planNormal(c *Character) (plan, string) {
	req := s.reqs[KindNormal]
	if c == nil {
		return plan{}, "no character"
	}
	n := c.Progress.NormalResets
	if req.MaxCount > 0 && n >= req.MaxCount {
		return plan{}, fmt.Sprintf("maximum of %d normal resets reached", req.MaxCount)
	}
	p, reason := s.common(c, KindNormal, req, n)
	if reason != "" {
		return plan{}, reason
	}
	reward, err := s.rewards.CalculateReward(n + 1)
	if err != nil {
		return plan{}, fmt.Sprintf("no reward defined for normal reset #%d", n+1)
	}
	p.reward = reward
	return p, ""
}

func (s *System) planGrand(c *Character) (plan, string) {
	req := s.reqs[KindGrand]
	if c == nil {
		return plan{}, "no character"
	}
	if c.Progress.NormalResets < req.MinPriorResets {
		return plan{}, fmt.Sprintf("requires %d normal resets (have %d)", req.MinPriorResets, c.Progress.NormalResets)
	}
	n := c.Progress.GrandResets
	if req.MaxCount > 0 && n >= req.MaxCount {
		return plan{}, fmt.Sprintf("maximum of %d grand resets reached", req.MaxCount)
	}
	p, reason := s.common(c, KindGrand, req, n)
	if reason != "" {
		return plan{}, reason
	}
	p.reward = GrandReward
	return p, ""
}

func (s *System) planMaster(c *Character) (plan, string) {
	req := s.reqs[KindMaster]
	if c == nil {
		return plan{}, "no character"
	}
	if s.cfg.MasterSingleUse && c.Progress.HasMaster() {
		return plan{}, "master reset already performed"
	}
	if c.Progress.GrandResets < req.MinPriorResets {
		return plan{}, fmt.Sprintf("requires %d grand resets (have %d)", req.MinPriorResets, c.Progress.GrandResets)
	}
	n := c.Progress.MasterResets
	if req.MaxCount > 0 && n >= req.MaxCount {
		return plan{}, fmt.Sprintf("maximum of %d master resets reached", req.MaxCount)
	}
	p, reason := s.common(c, KindMaster, req, n)
	if reason != "" {
		return plan{}, reason
	}
	p.reward = MasterReward
	return p, ""
}

// common checks the gates every tier shares: level, zen and items.
func (s *System) common(c *Character, kind Kind, req Requirement, done int) (plan, string) {
	if c.Level < req.MinLevel {
		return plan{}, fmt.Sprintf("level %d required (current %d)", req.MinLevel, c.Level)
	}
	cost := req.CalculateZenCost(done)
	if c.Zen < cost {
		return plan{}, fmt.Sprintf("not enough zen: need %d, have %d", cost, c.Zen)
	}
	if id, need, missing := req.missingItem(c.Items); missing {
		return plan{}, fmt.Sprintf("missing item %d x%d", id, need)
	}
	return plan{kind: kind, req: req, cost: cost}, ""
}

func (s *System) perform(c *Character, kind Kind, p plan, reason string, now time.Time) error {
	handle := ""
	if c != nil {
		handle = c.Handle
	}
	if reason != "" {
		s.log.Debug("reset rejected",
			zap.String("char", handle),
			zap.Stringer("kind", kind),
			zap.String("reason", reason),
		)
		event.Publish(s.bus, event.ResetFailed{Handle: handle, Kind: kind.String(), Reason: reason})
		return fmt.Errorf("%w: %s", ErrResetRejected, reason)
	}

	entry := s.apply(c, p, now)

	s.log.Info("reset performed",
		zap.String("char", handle),
		zap.Stringer("kind", kind),
		zap.Int("sequence", entry.Sequence),
		zap.Int("level", entry.LevelAtReset),
		zap.Int64("zen", p.cost),
		zap.Int("bonus_stats", p.reward.BonusStats),
	)
	event.Publish(s.bus, event.ResetSucceeded{
		Handle:       handle,
		Kind:         kind.String(),
		Sequence:     entry.Sequence,
		LevelAtReset: entry.LevelAtReset,
		BonusStats:   p.reward.BonusStats,
		At:           now,
	})
	return nil
}

// apply mutates the character. Nothing in here can fail; every check ran in
// the plan step.
func (s *System) apply(c *Character, p plan, now time.Time) Entry {
	levelAt := c.Level

	c.Zen -= p.cost
	if !s.cfg.KeepZen {
		c.Zen = 0
	}
	for id, n := range p.req.Items {
		if n <= 0 {
			continue
		}
		c.Items[id] -= n
		if c.Items[id] <= 0 {
			delete(c.Items, id)
		}
	}
	if !s.cfg.KeepItems {
		c.Items = make(map[int]int)
	}
	if !s.cfg.KeepSkills {
		c.Skills = nil
	}

	c.Progress.grant(p.reward)
	var seq int
	switch p.kind {
	case KindNormal:
		c.Progress.NormalResets++
		seq = c.History.TotalNormal() + 1
	case KindGrand:
		c.Progress.GrandResets++
		c.Progress.NormalResets = 0
		seq = c.History.TotalGrand() + 1
	case KindMaster:
		c.Progress.MasterResets++
		seq = c.Progress.MasterResets
	}

	if s.cfg.KeepStats {
		c.FreePoints += p.reward.BonusStats
	} else {
		c.Stats = c.BaseStats
		c.FreePoints = c.Progress.BonusStats
	}
	c.Level = s.cfg.LevelFloor

	entry := Entry{
		Kind:         p.kind,
		Sequence:     seq,
		Timestamp:    now,
		LevelAtReset: levelAt,
		Reward:       p.reward,
	}
	c.History.Append(entry)
	c.Dirty = true
	return entry
}
