package system

import (
	"sort"
	"time"

	coresys "github.com/darklegend/server/internal/core/system"
	"github.com/darklegend/server/internal/world"
)

// 轉生排名更新間隔（預設每 10 分鐘 = 3000 ticks @ 200ms）
const rankingUpdateTicks = 3000

// rankingSize 上榜人數
const rankingSize = 10

// RankEntry is one row of the online reset ranking.
type RankEntry struct {
	Handle string
	Master int
	Grand  int
	Normal int
	Level  int
}

// RankingSystem 定期依轉生次數排序所有線上玩家，維護 TOP10。
// 排序：大師轉生 > 大轉生 > 一般轉生 > 等級 > 名稱。
type RankingSystem struct {
	ws       *world.State
	interval int
	elapsed  int
	top      []RankEntry
	ranked   map[string]int
}

func NewRankingSystem(ws *world.State, intervalTicks int) *RankingSystem {
	if intervalTicks < 1 {
		intervalTicks = rankingUpdateTicks
	}
	return &RankingSystem{
		ws:       ws,
		interval: intervalTicks,
		ranked:   make(map[string]int),
	}
}

func (s *RankingSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RankingSystem) Update(_ time.Duration) {
	s.elapsed++
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Recalculate()
}

func (s *RankingSystem) Recalculate() {
	var players []RankEntry
	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		pr := p.Char.Progress
		players = append(players, RankEntry{
			Handle: p.Handle(),
			Master: pr.MasterResets,
			Grand:  pr.GrandResets,
			Normal: pr.NormalResets,
			Level:  p.Char.Level,
		})
	})

	sort.Slice(players, func(i, j int) bool {
		a, b := players[i], players[j]
		switch {
		case a.Master != b.Master:
			return a.Master > b.Master
		case a.Grand != b.Grand:
			return a.Grand > b.Grand
		case a.Normal != b.Normal:
			return a.Normal > b.Normal
		case a.Level != b.Level:
			return a.Level > b.Level
		}
		return a.Handle < b.Handle
	})
	if len(players) > rankingSize {
		players = players[:rankingSize]
	}

	ranked := make(map[string]int, len(players))
	for i, p := range players {
		ranked[p.Handle] = i + 1
	}
	s.top = players
	s.ranked = ranked
}

// Top returns the last computed ranking.
func (s *RankingSystem) Top() []RankEntry {
	return append([]RankEntry(nil), s.top...)
}

// Rank 回傳名次（1 起算），未上榜為 0。
func (s *RankingSystem) Rank(handle string) int {
	return s.ranked[handle]
}
