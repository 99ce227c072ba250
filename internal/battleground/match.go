package battleground

import (
	"fmt"
	"time"

	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/core/event"
	"go.uber.org/zap"
)

// State is the match lifecycle. Transitions are strictly
// Waiting → InProgress → Ended.
type State int

const (
	StateWaiting State = iota
	StateInProgress
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateInProgress:
		return "in_progress"
	case StateEnded:
		return "ended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// End reasons carried on event.MatchEnded.
const (
	ReasonTimeLimit    = "time_limit"
	ReasonWinCondition = "win_condition"
	ReasonForced       = "forced"
)

// Match is the lifecycle and scoreboard shared by every mode.
type Match struct {
	ID        ecs.EntityID
	SessionID string

	name      string
	teamSize  int
	timeLimit time.Duration

	team1 []ecs.EntityID
	team2 []ecs.EntityID
	teams map[ecs.EntityID]int

	scores [3]int // index by team; slot 0 unused
	state  State

	startedAt time.Time
	endsAt    time.Time
	endedAt   time.Time
	winner    int
	reason    string

	bus *event.Bus
	log *zap.Logger
}

// NewMatch builds a match in Waiting. timeLimit <= 0 disables the clock.
func NewMatch(name string, teamSize int, timeLimit time.Duration, deps Deps) *Match {
	return &Match{
		name:      name,
		teamSize:  teamSize,
		timeLimit: timeLimit,
		teams:     make(map[ecs.EntityID]int),
		bus:       deps.Bus,
		log:       deps.logger(),
	}
}

func (m *Match) Base() *Match             { return m }
func (m *Match) Name() string             { return m.name }
func (m *Match) TeamSize() int            { return m.teamSize }
func (m *Match) TimeLimit() time.Duration { return m.timeLimit }
func (m *Match) State() State             { return m.state }
func (m *Match) StartedAt() time.Time     { return m.startedAt }
func (m *Match) EndsAt() time.Time        { return m.endsAt }
func (m *Match) EndedAt() time.Time       { return m.endedAt }
func (m *Match) Winner() int              { return m.winner }
func (m *Match) EndReason() string        { return m.reason }

func (m *Match) Team1() []ecs.EntityID { return append([]ecs.EntityID(nil), m.team1...) }
func (m *Match) Team2() []ecs.EntityID { return append([]ecs.EntityID(nil), m.team2...) }

// Players returns team 1 followed by team 2.
func (m *Match) Players() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(m.team1)+len(m.team2))
	out = append(out, m.team1...)
	return append(out, m.team2...)
}

// TeamOf returns 1 or 2, or 0 for a non-participant.
func (m *Match) TeamOf(p ecs.EntityID) int { return m.teams[p] }

func (m *Match) Score(team int) int {
	if team != 1 && team != 2 {
		return 0
	}
	return m.scores[team]
}

// InitializeMatch stores the rosters and zeroes the scoreboard. Only a match
// that has not started may be (re)initialized. A player listed on both
// rosters stays on team 1.
func (m *Match) InitializeMatch(team1, team2 []ecs.EntityID) error {
	if m.state != StateWaiting {
		return fmt.Errorf("%w: initialize from %s", ErrInvalidTransition, m.state)
	}
	m.team1 = append([]ecs.EntityID(nil), team1...)
	m.team2 = append([]ecs.EntityID(nil), team2...)
	m.teams = make(map[ecs.EntityID]int, len(team1)+len(team2))
	for _, p := range m.team2 {
		m.teams[p] = 2
	}
	for _, p := range m.team1 {
		m.teams[p] = 1
	}
	m.scores = [3]int{}
	m.state = StateWaiting
	return nil
}

func (m *Match) StartMatch(now time.Time) error {
	if m.state != StateWaiting {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, m.state)
	}
	m.startedAt = now
	if m.timeLimit > 0 {
		m.endsAt = now.Add(m.timeLimit)
	}
	m.state = StateInProgress

	m.log.Info("battleground started",
		zap.String("mode", m.name),
		zap.Stringer("match", m.ID),
		zap.Int("team1", len(m.team1)),
		zap.Int("team2", len(m.team2)),
	)
	event.Publish(m.bus, event.MatchStarted{
		MatchID:   m.ID,
		SessionID: m.SessionID,
		Mode:      m.name,
		Team1:     m.Team1(),
		Team2:     m.Team2(),
		At:        now,
	})
	return nil
}

// EndMatch force-ends an in-progress match. winner is 0 (draw), 1 or 2.
func (m *Match) EndMatch(winner int, now time.Time) error {
	return m.end(winner, ReasonForced, now)
}

func (m *Match) end(winner int, reason string, now time.Time) error {
	switch m.state {
	case StateEnded:
		return ErrMatchEnded
	case StateWaiting:
		return fmt.Errorf("%w: end from %s", ErrInvalidTransition, m.state)
	}
	if winner != 0 && winner != 1 && winner != 2 {
		return fmt.Errorf("%w: %d", ErrUnknownTeam, winner)
	}
	m.state = StateEnded
	m.endedAt = now
	m.winner = winner
	m.reason = reason

	m.log.Info("battleground ended",
		zap.String("mode", m.name),
		zap.Stringer("match", m.ID),
		zap.Int("winner", winner),
		zap.String("reason", reason),
		zap.Int("score1", m.scores[1]),
		zap.Int("score2", m.scores[2]),
	)
	event.Publish(m.bus, event.MatchEnded{
		MatchID:   m.ID,
		SessionID: m.SessionID,
		Mode:      m.name,
		Winner:    winner,
		Reason:    reason,
		Team1:     m.scores[1],
		Team2:     m.scores[2],
		At:        now,
	})
	return nil
}

// UpdateScore adds points (which may be negative) to a team.
func (m *Match) UpdateScore(team, points int) error {
	if m.state != StateInProgress {
		return ErrNotInProgress
	}
	if team != 1 && team != 2 {
		return fmt.Errorf("%w: %d", ErrUnknownTeam, team)
	}
	m.scores[team] += points
	event.Publish(m.bus, event.ScoreChanged{
		MatchID: m.ID,
		Mode:    m.name,
		Team:    team,
		Delta:   points,
		Score:   m.scores[team],
	})
	return nil
}

// Leader returns the team with the higher score, or 0 on a tie.
func (m *Match) Leader() int {
	switch {
	case m.scores[1] > m.scores[2]:
		return 1
	case m.scores[2] > m.scores[1]:
		return 2
	}
	return 0
}

// TimeExpired reports whether the time limit has been reached at now.
func (m *Match) TimeExpired(now time.Time) bool {
	return m.timeLimit > 0 && !now.Before(m.endsAt)
}

// evaluateEnd is the single end-of-match decision per tick. Both conditions
// are sampled together; the time limit wins the reason tag when both hold,
// and in either case a tied scoreboard ends as a draw.
func (m *Match) evaluateEnd(now time.Time, mode Mode) {
	if m.state != StateInProgress {
		return
	}
	timeUp := m.TimeExpired(now)
	ruleMet := mode.CheckWinCondition()
	switch {
	case timeUp:
		_ = m.end(m.Leader(), ReasonTimeLimit, now)
	case ruleMet:
		_ = m.end(mode.RuleWinner(), ReasonWinCondition, now)
	}
}
