package memory

import (
	"context"
	"sort"

	"quiz-results-service/internal/domain"
)

// StaticCatalog is a read-only quiz and user source backed by maps (useful for tests/demos).
type StaticCatalog struct {
	quizzes map[string]domain.Quiz
	users   map[string]domain.User
}

// NewStaticCatalog copies the inputs and sorts every quiz's questions by display order.
func NewStaticCatalog(quizzes []domain.Quiz, users []domain.User) *StaticCatalog {
	c := &StaticCatalog{
		quizzes: make(map[string]domain.Quiz, len(quizzes)),
		users:   make(map[string]domain.User, len(users)),
	}
	for _, q := range quizzes {
		questions := make([]domain.Question, len(q.Questions))
		copy(questions, q.Questions)
		for i := range questions {
			questions[i].QuizID = q.ID
		}
		sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
		q.Questions = questions
		c.quizzes[q.ID] = q
	}
	for _, u := range users {
		c.users[u.ID] = u
	}
	return c
}

func (c *StaticCatalog) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (c *StaticCatalog) CountQuizzes(context.Context) (int, error) {
	return len(c.quizzes), nil
}

func (c *StaticCatalog) GetUser(_ context.Context, userID string) (domain.User, error) {
	if u, ok := c.users[userID]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (c *StaticCatalog) ListUsers(_ context.Context, userIDs []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(userIDs))
	for _, id := range userIDs {
		if u, ok := c.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (c *StaticCatalog) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	out := make([]domain.User, 0)
	for _, u := range c.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
