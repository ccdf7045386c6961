package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quiz-results-service/internal/domain"
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AttemptGuard is a Redis-backed app.AttemptGuard shared by every instance.
// The lock expires after ttl so a crashed holder cannot block a user forever.
type AttemptGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptGuard(client *redis.Client, ttl time.Duration) *AttemptGuard {
	return &AttemptGuard{client: client, ttl: ttl}
}

func (g *AttemptGuard) Acquire(ctx context.Context, userID, quizID string) (func(), error) {
	key := g.key(userID, quizID)
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire attempt lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSubmissionInProgress
	}
	return func() {
		// detached from the request so a cancelled context still releases
		_ = releaseScript.Run(context.Background(), g.client, []string{key}, token).Err()
	}, nil
}

func (g *AttemptGuard) key(userID, quizID string) string {
	return "quiz:" + quizID + ":attempt:" + userID
}
