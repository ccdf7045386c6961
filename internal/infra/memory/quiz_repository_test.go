package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-results-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticCatalog([]domain.Quiz{sampleQuiz()}, nil)}
	repo := NewQuizRepository(loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}
	if quiz.Questions[0].ID != "q1" || quiz.Questions[1].ID != "q2" {
		t.Fatalf("expected questions in display order, got %+v", quiz.Questions)
	}
	if quiz.Questions[0].QuizID != "quiz-1" {
		t.Fatalf("expected question to reference its quiz, got %q", quiz.Questions[0].QuizID)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticCatalog([]domain.Quiz{sampleQuiz()}, nil)}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryNotFound(t *testing.T) {
	repo := NewQuizRepository(NewStaticCatalog(nil, nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	count, err := repo.CountQuizzes(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("expected zero quizzes, got %d (%v)", count, err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Capitals",
		CreatedBy: "admin-1",
		Questions: []domain.Question{
			{ID: "q2", Text: "Rome is in Italy", Type: domain.TrueFalse, CorrectAnswer: "True", Order: 2},
			{ID: "q1", Text: "Capital of France?", Type: domain.MultipleChoice, Options: []string{"Paris", "Lyon"}, CorrectAnswer: "Paris", Order: 1},
		},
	}
}
