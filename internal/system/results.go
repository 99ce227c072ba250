package system

import (
	"context"
	"time"

	"github.com/darklegend/server/internal/core/event"
	coresys "github.com/darklegend/server/internal/core/system"
	"github.com/darklegend/server/internal/persist"
	"go.uber.org/zap"
)

// ResultWriter stores finished battleground results in one batch.
type ResultWriter interface {
	WriteResults(ctx context.Context, results []persist.MatchResult) error
}

// maxWriteAttempts 連續寫入失敗幾次後放棄該批結果
const maxWriteAttempts = 5

// MatchRecordSystem buffers MatchEnded notifications during the tick and
// writes them in one batch at Phase 4 (Output). A failed batch is kept and
// retried next tick, and dropped after maxWriteAttempts failures in a row.
type MatchRecordSystem struct {
	w        ResultWriter
	log      *zap.Logger
	pending  []persist.MatchResult
	failures int
}

func NewMatchRecordSystem(bus *event.Bus, w ResultWriter, log *zap.Logger) *MatchRecordSystem {
	s := &MatchRecordSystem{w: w, log: log}
	event.Subscribe(bus, s.onMatchEnded)
	return s
}

func (s *MatchRecordSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *MatchRecordSystem) onMatchEnded(ev event.MatchEnded) {
	// session_id 是 UUID NOT NULL，沒有 session 的比賽無法寫入
	if ev.SessionID == "" {
		s.log.Warn("battleground result without session skipped",
			zap.String("mode", ev.Mode),
			zap.Stringer("match", ev.MatchID),
		)
		return
	}
	s.pending = append(s.pending, persist.MatchResult{
		SessionID:  ev.SessionID,
		Mode:       ev.Mode,
		Winner:     ev.Winner,
		Reason:     ev.Reason,
		Team1Score: ev.Team1,
		Team2Score: ev.Team2,
		EndedAt:    ev.At,
	})
}

// Pending reports results not yet written.
func (s *MatchRecordSystem) Pending() int { return len(s.pending) }

func (s *MatchRecordSystem) Update(_ time.Duration) {
	s.Flush()
}

// Flush writes all buffered results. Called every tick and on shutdown.
// Without a writer results are only logged.
func (s *MatchRecordSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	if s.w == nil {
		for _, r := range s.pending {
			s.log.Info("battleground result",
				zap.String("session", r.SessionID),
				zap.String("mode", r.Mode),
				zap.Int("winner", r.Winner),
				zap.String("reason", r.Reason),
			)
		}
		s.pending = s.pending[:0]
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.w.WriteResults(ctx, s.pending); err != nil {
		s.failures++
		s.log.Error("戰場結果寫入失敗",
			zap.Int("count", len(s.pending)),
			zap.Int("attempt", s.failures),
			zap.Error(err),
		)
		if s.failures >= maxWriteAttempts {
			sessions := make([]string, len(s.pending))
			for i, r := range s.pending {
				sessions[i] = r.SessionID
			}
			s.log.Error("戰場結果放棄寫入", zap.Strings("sessions", sessions))
			s.pending = s.pending[:0]
			s.failures = 0
		}
		return
	}
	s.log.Info("戰場結果已寫入", zap.Int("count", len(s.pending)))
	s.pending = s.pending[:0]
	s.failures = 0
}
