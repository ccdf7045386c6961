package memory

import (
	"context"
	"sync"

	"quiz-results-service/internal/domain"
)

// AttemptGuard is an in-process implementation of app.AttemptGuard.
type AttemptGuard struct {
	mu   sync.Mutex
	held map[attemptKey]struct{}
}

func NewAttemptGuard() *AttemptGuard {
	return &AttemptGuard{held: make(map[attemptKey]struct{})}
}

func (g *AttemptGuard) Acquire(_ context.Context, userID, quizID string) (func(), error) {
	key := attemptKey{userID: userID, quizID: quizID}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, domain.ErrSubmissionInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
