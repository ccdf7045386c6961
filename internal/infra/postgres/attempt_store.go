package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-results-service/internal/domain"
)

const uniqueViolation = "23505"

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID             string          `bun:"id,pk"`
	UserID         string          `bun:"user_id,notnull"`
	QuizID         string          `bun:"quiz_id,notnull"`
	Score          decimal.Decimal `bun:"score,type:numeric(5,2),notnull"`
	CorrectAnswers int             `bun:"correct_answers,notnull"`
	TotalQuestions int             `bun:"total_questions,notnull"`
	SubmittedAt    time.Time       `bun:"submitted_at,notnull"`
	TimeTakenNanos int64           `bun:"time_taken_ns,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	QuizID         string    `bun:"quiz_id,notnull"`
	QuestionID     string    `bun:"question_id,notnull"`
	SelectedAnswer *string   `bun:"selected_answer"`
	SubmittedAt    time.Time `bun:"submitted_at,notnull"`
}

// AttemptStore persists answers and results with bun. An attempt is written in
// a single transaction, and the results_user_quiz_key constraint rejects a
// second result for the same pair.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) RecordAttempt(ctx context.Context, result domain.Result, answers []domain.Answer) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := toResultRow(result)
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		rows := make([]answerRow, 0, len(answers))
		for _, a := range answers {
			rows = append(rows, answerRow{
				ID:             a.ID,
				UserID:         a.UserID,
				QuizID:         a.QuizID,
				QuestionID:     a.QuestionID,
				SelectedAnswer: a.SelectedAnswer,
				SubmittedAt:    a.SubmittedAt,
			})
		}
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if isUniqueViolation(err) {
		return domain.ErrAlreadyAttempted
	}
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) GetResult(ctx context.Context, userID, quizID string) (domain.Result, error) {
	var row resultRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Result{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("get result: %w", err)
	}
	return row.toDomain(), nil
}

func (s *AttemptStore) HasResult(ctx context.Context, userID, quizID string) (bool, error) {
	ok, err := s.db.NewSelect().Model((*resultRow)(nil)).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check result: %w", err)
	}
	return ok, nil
}

func (s *AttemptStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.listResults(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("quiz_id = ?", quizID).Order("submitted_at ASC", "id ASC")
	})
}

func (s *AttemptStore) ListByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	return s.listResults(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id = ?", userID).Order("submitted_at DESC", "id ASC")
	})
}

func (s *AttemptStore) ListByUsers(ctx context.Context, userIDs []string) ([]domain.Result, error) {
	if len(userIDs) == 0 {
		return []domain.Result{}, nil
	}
	return s.listResults(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("user_id IN (?)", bun.In(userIDs)).Order("submitted_at DESC", "id ASC")
	})
}

func (s *AttemptStore) ListAnswers(ctx context.Context, userID, quizID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.Answer, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Answer{
			ID:             r.ID,
			UserID:         r.UserID,
			QuizID:         r.QuizID,
			QuestionID:     r.QuestionID,
			SelectedAnswer: r.SelectedAnswer,
			SubmittedAt:    r.SubmittedAt,
		})
	}
	return out, nil
}

func (s *AttemptStore) listResults(ctx context.Context, scope func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Result, error) {
	var rows []resultRow
	if err := scope(s.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func toResultRow(r domain.Result) resultRow {
	return resultRow{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		SubmittedAt:    r.SubmittedAt,
		TimeTakenNanos: int64(r.TimeTaken),
	}
}

func (r resultRow) toDomain() domain.Result {
	return domain.Result{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		SubmittedAt:    r.SubmittedAt,
		TimeTaken:      time.Duration(r.TimeTakenNanos),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
