package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-results-service/internal/domain"
)

type attemptKey struct {
	userID string
	quizID string
}

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// The (user, quiz) uniqueness check and both writes happen under one lock.
type AttemptStore struct {
	mu      sync.RWMutex
	results map[attemptKey]domain.Result
	answers map[attemptKey][]domain.Answer
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		results: make(map[attemptKey]domain.Result),
		answers: make(map[attemptKey][]domain.Answer),
	}
}

func (s *AttemptStore) RecordAttempt(_ context.Context, result domain.Result, answers []domain.Answer) error {
	key := attemptKey{userID: result.UserID, quizID: result.QuizID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[key]; exists {
		return domain.ErrAlreadyAttempted
	}
	s.results[key] = result
	stored := make([]domain.Answer, len(answers))
	copy(stored, answers)
	s.answers[key] = stored
	return nil
}

func (s *AttemptStore) GetResult(_ context.Context, userID, quizID string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[attemptKey{userID: userID, quizID: quizID}]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return r, nil
}

func (s *AttemptStore) HasResult(_ context.Context, userID, quizID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.results[attemptKey{userID: userID, quizID: quizID}]
	return ok, nil
}

func (s *AttemptStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	out := s.filter(func(r domain.Result) bool { return r.QuizID == quizID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *AttemptStore) ListByUser(_ context.Context, userID string) ([]domain.Result, error) {
	out := s.filter(func(r domain.Result) bool { return r.UserID == userID })
	sortNewestFirst(out)
	return out, nil
}

func (s *AttemptStore) ListByUsers(_ context.Context, userIDs []string) ([]domain.Result, error) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = struct{}{}
	}
	out := s.filter(func(r domain.Result) bool {
		_, ok := wanted[r.UserID]
		return ok
	})
	sortNewestFirst(out)
	return out, nil
}

func (s *AttemptStore) ListAnswers(_ context.Context, userID, quizID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.answers[attemptKey{userID: userID, quizID: quizID}]
	out := make([]domain.Answer, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *AttemptStore) filter(keep func(domain.Result) bool) []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, r := range s.results {
		if keep(r) {
			out = append(out, r)
		}
	}
	// map iteration is random; fix a base order before the caller's stable sort
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortNewestFirst(results []domain.Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].SubmittedAt.After(results[j].SubmittedAt) })
}
