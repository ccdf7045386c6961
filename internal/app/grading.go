package app

import (
	"strings"

	"github.com/shopspring/decimal"

	"quiz-results-service/internal/domain"
)

// AnswerGrade is the correctness of one quiz question within an attempt.
type AnswerGrade struct {
	QuestionID string
	Answered   bool
	Correct    bool
}

// Grading is the outcome of grading a full attempt.
type Grading struct {
	CorrectCount int
	TotalCount   int
	Answers      []AnswerGrade
}

// Score returns CorrectCount/TotalCount*100 rounded to two decimals.
func (g Grading) Score() (decimal.Decimal, error) {
	if g.TotalCount == 0 {
		return decimal.Zero, domain.ErrEmptyQuiz
	}
	return domain.Accuracy(g.CorrectCount, g.TotalCount), nil
}

// Grade scores answers against the canonical question set. The denominator is
// always len(questions); questions without a matching answer are incorrect and
// answers for unknown questions are ignored.
func Grade(questions []domain.Question, answers []domain.Answer) Grading {
	selected := make(map[string]*string, len(answers))
	for _, a := range answers {
		if _, seen := selected[a.QuestionID]; !seen {
			selected[a.QuestionID] = a.SelectedAnswer
		}
	}

	g := Grading{TotalCount: len(questions), Answers: make([]AnswerGrade, 0, len(questions))}
	for _, q := range questions {
		answer, answered := selected[q.ID]
		correct := answered && IsCorrect(answer, q.CorrectAnswer)
		if correct {
			g.CorrectCount++
		}
		g.Answers = append(g.Answers, AnswerGrade{QuestionID: q.ID, Answered: answered, Correct: correct})
	}
	return g
}

// IsCorrect compares trimmed answers case-insensitively. A nil answer is never correct.
func IsCorrect(selected *string, correct string) bool {
	if selected == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*selected), strings.TrimSpace(correct))
}
