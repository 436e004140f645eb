package postgres

import (
	"context"
	"fmt"

	"live-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreKeeper appends accepted answers to the answers table and derives score
// totals with an aggregate query. The unique constraint on
// (room_id, question_id, user_id) is the duplicate-submission guard.
type ScoreKeeper struct {
	pool *pgxpool.Pool
}

func NewScoreKeeper(pool *pgxpool.Pool) *ScoreKeeper {
	return &ScoreKeeper{pool: pool}
}

func (k *ScoreKeeper) RecordAnswer(ctx context.Context, roomID string, rec domain.AnswerRecord) error {
	awarded := 0
	if rec.Correct {
		awarded = rec.Points
	}
	tag, err := k.pool.Exec(ctx, `
		INSERT INTO answers (room_id, question_id, user_id, option_index, correct, points)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id, question_id, user_id) DO NOTHING`,
		roomID, rec.QuestionID, rec.UserID, rec.OptionIndex, rec.Correct, awarded,
	)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (k *ScoreKeeper) Scores(ctx context.Context, roomID string) (map[string]int, error) {
	rows, err := k.pool.Query(ctx, `
		SELECT user_id, COALESCE(SUM(points), 0)
		FROM answers WHERE room_id=$1 GROUP BY user_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var userID string
		var score int
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		totals[userID] = score
	}
	return totals, rows.Err()
}
