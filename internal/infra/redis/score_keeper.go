package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"live-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScoreKeeper records answers and score totals in Redis:
//
//	HSET    quiz:{roomID}:answered  {questionID}:{userID} {optionIndex}
//	HINCRBY quiz:{roomID}:scores    {userID} {points}
//
// The answered hash doubles as the duplicate-submission guard via HSETNX.
type ScoreKeeper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScoreKeeper(client *redis.Client, ttl time.Duration) *ScoreKeeper {
	return &ScoreKeeper{client: client, ttl: ttl}
}

func (k *ScoreKeeper) RecordAnswer(ctx context.Context, roomID string, rec domain.AnswerRecord) error {
	answeredKey := k.answeredKey(roomID)
	field := rec.QuestionID + ":" + rec.UserID

	set, err := k.client.HSetNX(ctx, answeredKey, field, rec.OptionIndex).Result()
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if !set {
		return domain.ErrAlreadyAnswered
	}

	awarded := 0
	if rec.Correct {
		awarded = rec.Points
	}
	pipe := k.client.Pipeline()
	pipe.HIncrBy(ctx, k.scoresKey(roomID), rec.UserID, int64(awarded))
	if k.ttl > 0 {
		pipe.Expire(ctx, answeredKey, k.ttl)
		pipe.Expire(ctx, k.scoresKey(roomID), k.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	return nil
}

func (k *ScoreKeeper) Scores(ctx context.Context, roomID string) (map[string]int, error) {
	raw, err := k.client.HGetAll(ctx, k.scoresKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	totals := make(map[string]int, len(raw))
	for userID, value := range raw {
		if score, err := strconv.Atoi(value); err == nil {
			totals[userID] = score
		}
	}
	return totals, nil
}

func (k *ScoreKeeper) answeredKey(roomID string) string {
	return "quiz:" + roomID + ":answered"
}

func (k *ScoreKeeper) scoresKey(roomID string) string {
	return "quiz:" + roomID + ":scores"
}
