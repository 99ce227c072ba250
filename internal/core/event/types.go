package event

import (
	"time"

	"github.com/darklegend/server/internal/core/ecs"
)

// Match notifications.

type MatchStarted struct {
	MatchID   ecs.EntityID
	SessionID string
	Mode      string
	Team1     []ecs.EntityID
	Team2     []ecs.EntityID
	At        time.Time
}

type ScoreChanged struct {
	MatchID ecs.EntityID
	Mode    string
	Team    int
	Delta   int
	Score   int
}

type MatchEnded struct {
	MatchID   ecs.EntityID
	SessionID string
	Mode      string
	Winner    int // 0 = draw
	Reason    string
	Team1     int
	Team2     int
	At        time.Time
}

// MatchCompleted is raised by the battleground manager once a match it owns
// has ended and been scheduled for disposal.
type MatchCompleted struct {
	MatchID   ecs.EntityID
	SessionID string
	Mode      string
	Winner    int
	DisposeAt time.Time
}

// Progression notifications.

type ResetSucceeded struct {
	Handle       string
	Kind         string
	Sequence     int
	LevelAtReset int
	BonusStats   int
	At           time.Time
}

type ResetFailed struct {
	Handle string
	Kind   string
	Reason string
}
