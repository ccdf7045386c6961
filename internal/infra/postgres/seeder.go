package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-results-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID    string `bun:"id,pk"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,notnull"`
	Role  string `bun:"role,notnull"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID              string `bun:"id,pk"`
	Title           string `bun:"title,notnull"`
	Description     string `bun:"description,notnull"`
	DurationMinutes int    `bun:"duration_minutes,notnull"`
	CreatedBy       string `bun:"created_by,notnull"`
	IsActive        bool   `bun:"is_active,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string   `bun:"id,pk"`
	QuizID        string   `bun:"quiz_id,notnull"`
	Text          string   `bun:"text,notnull"`
	Type          string   `bun:"type,notnull"`
	Options       []string `bun:"options,type:jsonb"`
	CorrectAnswer string   `bun:"correct_answer,notnull"`
	Order         int      `bun:"display_order,notnull"`
}

// Seeder upserts fixture users and quizzes. Every question is validated before anything is written.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) Seed(ctx context.Context, users []domain.User, quizzes []domain.Quiz) error {
	questions := make([]questionRow, 0)
	for _, quiz := range quizzes {
		for _, q := range quiz.Questions {
			if err := q.Validate(); err != nil {
				return fmt.Errorf("quiz %s: %w", quiz.ID, err)
			}
			var options []string
			if q.Type == domain.MultipleChoice {
				options = q.Options
			}
			questions = append(questions, questionRow{
				ID:            q.ID,
				QuizID:        quiz.ID,
				Text:          q.Text,
				Type:          string(q.Type),
				Options:       options,
				CorrectAnswer: q.CorrectAnswer,
				Order:         q.Order,
			})
		}
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(users) > 0 {
			rows := make([]userRow, 0, len(users))
			for _, u := range users {
				rows = append(rows, userRow{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)})
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("name = EXCLUDED.name").
				Set("email = EXCLUDED.email").
				Set("role = EXCLUDED.role").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
		}

		if len(quizzes) > 0 {
			rows := make([]quizRow, 0, len(quizzes))
			for _, q := range quizzes {
				rows = append(rows, quizRow{
					ID:              q.ID,
					Title:           q.Title,
					Description:     q.Description,
					DurationMinutes: q.DurationMinutes,
					CreatedBy:       q.CreatedBy,
					IsActive:        q.IsActive,
				})
			}
			if _, err := tx.NewInsert().Model(&rows).
				On("CONFLICT (id) DO UPDATE").
				Set("title = EXCLUDED.title").
				Set("description = EXCLUDED.description").
				Set("duration_minutes = EXCLUDED.duration_minutes").
				Set("is_active = EXCLUDED.is_active").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed quizzes: %w", err)
			}
		}

		if len(questions) > 0 {
			if _, err := tx.NewInsert().Model(&questions).
				On("CONFLICT (id) DO UPDATE").
				Set("text = EXCLUDED.text").
				Set("options = EXCLUDED.options").
				Set("correct_answer = EXCLUDED.correct_answer").
				Set("display_order = EXCLUDED.display_order").
				Exec(ctx); err != nil {
				return fmt.Errorf("seed questions: %w", err)
			}
		}
		return nil
	})
}
