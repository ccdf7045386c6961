package app

import (
	"context"

	"quiz-results-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store). Questions are ordered by display order.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CountQuizzes(ctx context.Context) (int, error)
}

// UserRepository is the read-only user lookup consumed by the core.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ListUsers(ctx context.Context, userIDs []string) (map[string]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// AttemptRepository persists answers and results.
//
// RecordAttempt stores the result and its answers as one unit and must reject a
// second result for the same (user, quiz) pair with domain.ErrAlreadyAttempted,
// independently of any check done by the caller. ListByQuiz returns results in
// submission order, ListByUser and ListByUsers newest first.
type AttemptRepository interface {
	RecordAttempt(ctx context.Context, result domain.Result, answers []domain.Answer) error
	GetResult(ctx context.Context, userID, quizID string) (domain.Result, error)
	HasResult(ctx context.Context, userID, quizID string) (bool, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Result, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]domain.Result, error)
	ListAnswers(ctx context.Context, userID, quizID string) ([]domain.Answer, error)
}

// AttemptGuard serializes in-flight submissions per (user, quiz).
// Acquire returns domain.ErrSubmissionInProgress when the pair is already held.
type AttemptGuard interface {
	Acquire(ctx context.Context, userID, quizID string) (release func(), err error)
}
