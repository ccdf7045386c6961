package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role distinguishes quiz authors from quiz takers.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleStudent Role = "Student"
)

// User is a read-only view of an account.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "MultipleChoice"
	TrueFalse      QuestionType = "TrueFalse"
)

// Question is owned by a quiz. Options are present only for MultipleChoice.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	QuizID        string       `json:"quizId" yaml:"-"`
	Text          string       `json:"text" yaml:"text"`
	Type          QuestionType `json:"type" yaml:"type"`
	Options       []string     `json:"options,omitempty" yaml:"options"`
	CorrectAnswer string       `json:"correctAnswer" yaml:"correctAnswer"`
	Order         int          `json:"order" yaml:"order"`
}

// Validate checks the type-specific invariants of a question.
func (q Question) Validate() error {
	switch q.Type {
	case MultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %s needs at least 2 options", ErrInvalidQuestion, q.ID)
		}
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			return fmt.Errorf("%w: question %s correct answer is not an option", ErrInvalidQuestion, q.ID)
		}
	case TrueFalse:
		if q.CorrectAnswer != "True" && q.CorrectAnswer != "False" {
			return fmt.Errorf("%w: question %s correct answer must be True or False", ErrInvalidQuestion, q.ID)
		}
	default:
		return fmt.Errorf("%w: question %s has unknown type %q", ErrInvalidQuestion, q.ID, q.Type)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question %s has no text", ErrInvalidQuestion, q.ID)
	}
	return nil
}

// Quiz is a collection of questions ordered by display order.
type Quiz struct {
	ID              string     `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	Description     string     `json:"description" yaml:"description"`
	DurationMinutes int        `json:"durationMinutes" yaml:"durationMinutes"`
	CreatedBy       string     `json:"createdBy" yaml:"createdBy"`
	IsActive        bool       `json:"isActive" yaml:"isActive"`
	Questions       []Question `json:"questions" yaml:"questions"`
}

// CanManageQuiz reports whether actorID owns the quiz.
func CanManageQuiz(quiz Quiz, actorID string) bool {
	return actorID != "" && quiz.CreatedBy == actorID
}

// SubmittedAnswer is one answer as sent by a student. A nil SelectedAnswer means unanswered.
type SubmittedAnswer struct {
	QuestionID     string  `json:"questionId" validate:"required"`
	SelectedAnswer *string `json:"selectedAnswer"`
}

// Submission is a full quiz attempt as sent by a student.
type Submission struct {
	Answers   []SubmittedAnswer `json:"answers" validate:"dive"`
	StartTime time.Time         `json:"startTime" validate:"required"`
	EndTime   time.Time         `json:"endTime" validate:"required"`
}

// Answer is a persisted, immutable answer for one question of an attempt.
type Answer struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	QuizID         string    `json:"quizId"`
	QuestionID     string    `json:"questionId"`
	SelectedAnswer *string   `json:"selectedAnswer"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Result is the single finalized outcome of a (user, quiz) attempt.
type Result struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	QuizID         string          `json:"quizId"`
	Score          decimal.Decimal `json:"score"`
	CorrectAnswers int             `json:"correctAnswers"`
	TotalQuestions int             `json:"totalQuestions"`
	SubmittedAt    time.Time       `json:"submittedAt"`
	TimeTaken      time.Duration   `json:"timeTakenNanos"`
}

// WrongAnswers is derived from the stored counts.
func (r Result) WrongAnswers() int {
	return r.TotalQuestions - r.CorrectAnswers
}

// AnswerDetail explains the grading of one stored answer.
type AnswerDetail struct {
	QuestionID     string  `json:"questionId"`
	QuestionText   string  `json:"questionText"`
	SelectedAnswer *string `json:"selectedAnswer"`
	CorrectAnswer  string  `json:"correctAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
}

// DetailedResult is a result plus per-answer correctness.
type DetailedResult struct {
	Result
	QuizTitle     string         `json:"quizTitle"`
	AnswerDetails []AnswerDetail `json:"answerDetails"`
}

// Accuracy returns correct/total*100 rounded to two decimals, zero when total is zero.
func Accuracy(correct, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(correct) * 100).DivRound(decimal.NewFromInt(int64(total)), 2)
}
