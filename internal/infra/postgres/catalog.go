package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-results-service/internal/domain"
)

// Catalog reads quizzes, questions and users from Postgres. It never writes.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := c.pool.QueryRow(ctx,
		`SELECT id, title, description, duration_minutes, created_by, is_active FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Description, &quiz.DurationMinutes, &quiz.CreatedBy, &quiz.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := c.pool.Query(ctx,
		`SELECT id, quiz_id, text, type, options, correct_answer, display_order
		 FROM questions WHERE quiz_id=$1 ORDER BY display_order, id`,
		quizID,
	)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q       domain.Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Type, &options, &q.CorrectAnswer, &q.Order); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return domain.Quiz{}, fmt.Errorf("unmarshal options: %w", err)
			}
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	return quiz, nil
}

func (c *Catalog) CountQuizzes(ctx context.Context) (int, error) {
	var n int
	if err := c.pool.QueryRow(ctx, `SELECT count(*) FROM quizzes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return n, nil
}

func (c *Catalog) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	err := c.pool.QueryRow(ctx, `SELECT id, name, email, role FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (c *Catalog) ListUsers(ctx context.Context, userIDs []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	users, err := c.queryUsers(ctx, `SELECT id, name, email, role FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (c *Catalog) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return c.queryUsers(ctx, `SELECT id, name, email, role FROM users WHERE role=$1 ORDER BY id`, string(role))
}

func (c *Catalog) queryUsers(ctx context.Context, query string, args ...interface{}) ([]domain.User, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
