package memory

import (
	"context"
	"sync"

	"live-quiz-service/internal/domain"
)

// ScoreKeeper is an in-memory implementation of app.ScoreKeeper for
// redis-less deployments and tests.
type ScoreKeeper struct {
	mu       sync.Mutex
	totals   map[string]map[string]int      // roomID -> userID -> score
	answered map[string]map[string]struct{} // roomID -> questionID:userID
}

func NewScoreKeeper() *ScoreKeeper {
	return &ScoreKeeper{
		totals:   make(map[string]map[string]int),
		answered: make(map[string]map[string]struct{}),
	}
}

func (k *ScoreKeeper) RecordAnswer(_ context.Context, roomID string, rec domain.AnswerRecord) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	seen, ok := k.answered[roomID]
	if !ok {
		seen = make(map[string]struct{})
		k.answered[roomID] = seen
	}
	key := rec.QuestionID + ":" + rec.UserID
	if _, dup := seen[key]; dup {
		return domain.ErrAlreadyAnswered
	}
	seen[key] = struct{}{}

	totals, ok := k.totals[roomID]
	if !ok {
		totals = make(map[string]int)
		k.totals[roomID] = totals
	}
	if rec.Correct {
		totals[rec.UserID] += rec.Points
	} else if _, ok := totals[rec.UserID]; !ok {
		// Wrong answers still put the user on the scoreboard at zero.
		totals[rec.UserID] = 0
	}
	return nil
}

func (k *ScoreKeeper) Scores(_ context.Context, roomID string) (map[string]int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make(map[string]int, len(k.totals[roomID]))
	for userID, score := range k.totals[roomID] {
		out[userID] = score
	}
	return out, nil
}
