package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-results-service/internal/domain"
)

// ResultService owns the submission pipeline and result read paths.
type ResultService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	guard    AttemptGuard
	hub      *LeaderboardHub
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string
}

// NewResultService wires the submission pipeline. guard and hub may be nil.
func NewResultService(attempts AttemptRepository, quizzes QuizRepository, guard AttemptGuard, hub *LeaderboardHub, log logrus.FieldLogger) *ResultService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ResultService{
		attempts: attempts,
		quizzes:  quizzes,
		guard:    guard,
		hub:      hub,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *ResultService) WithClock(now func() time.Time) *ResultService {
	s.now = now
	return s
}

// Submit grades and records a student's single attempt at a quiz.
func (s *ResultService) Submit(ctx context.Context, quizID, userID string, submission domain.Submission) (domain.Result, error) {
	log := s.log.WithFields(logrus.Fields{"quiz_id": quizID, "user_id": userID})

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Result{}, err
	}

	attempted, err := s.attempts.HasResult(ctx, userID, quizID)
	if err != nil {
		log.WithError(err).Error("attempt lookup failed")
		return domain.Result{}, err
	}
	if attempted {
		log.Info("rejected repeat attempt")
		return domain.Result{}, domain.ErrAlreadyAttempted
	}

	if len(quiz.Questions) == 0 {
		return domain.Result{}, domain.ErrEmptyQuiz
	}

	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, userID, quizID)
		if err != nil {
			log.WithError(err).Warn("submission guard not acquired")
			return domain.Result{}, err
		}
		defer release()
	}

	now := s.now().UTC()
	answers := materializeAnswers(quiz, userID, submission.Answers, now, s.newID)
	grading := Grade(quiz.Questions, answers)
	score, err := grading.Score()
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Result{
		ID:             s.newID(),
		UserID:         userID,
		QuizID:         quizID,
		Score:          score,
		CorrectAnswers: grading.CorrectCount,
		TotalQuestions: grading.TotalCount,
		SubmittedAt:    now,
		TimeTaken:      elapsed(submission.StartTime, submission.EndTime),
	}

	if err := s.attempts.RecordAttempt(ctx, result, answers); err != nil {
		if errors.Is(err, domain.ErrAlreadyAttempted) {
			log.Info("storage rejected duplicate attempt")
		} else {
			log.WithError(err).Error("failed to record attempt")
		}
		return domain.Result{}, err
	}

	log.WithFields(logrus.Fields{
		"result_id": result.ID,
		"score":     result.Score.String(),
	}).Info("quiz submitted")

	if s.hub != nil {
		s.hub.Publish(domain.LeaderboardUpdate{QuizID: quizID, ResultID: result.ID, UpdatedAt: now})
	}
	return result, nil
}

// materializeAnswers keeps the first answer per known question and drops the rest.
func materializeAnswers(quiz domain.Quiz, userID string, submitted []domain.SubmittedAnswer, at time.Time, newID func() string) []domain.Answer {
	known := make(map[string]struct{}, len(quiz.Questions))
	for _, q := range quiz.Questions {
		known[q.ID] = struct{}{}
	}

	answers := make([]domain.Answer, 0, len(submitted))
	seen := make(map[string]struct{}, len(submitted))
	for _, sa := range submitted {
		if _, ok := known[sa.QuestionID]; !ok {
			continue
		}
		if _, dup := seen[sa.QuestionID]; dup {
			continue
		}
		seen[sa.QuestionID] = struct{}{}
		answers = append(answers, domain.Answer{
			ID:             newID(),
			UserID:         userID,
			QuizID:         quiz.ID,
			QuestionID:     sa.QuestionID,
			SelectedAnswer: sa.SelectedAnswer,
			SubmittedAt:    at,
		})
	}
	return answers
}

// elapsed clamps a reversed time range to zero.
func elapsed(start, end time.Time) time.Duration {
	if d := end.Sub(start); d > 0 {
		return d
	}
	return 0
}

// GetResult returns the user's result for a quiz.
func (s *ResultService) GetResult(ctx context.Context, userID, quizID string) (domain.Result, error) {
	return s.attempts.GetResult(ctx, userID, quizID)
}

// GetDetailedResult returns the result with per-answer correctness, in question order.
func (s *ResultService) GetDetailedResult(ctx context.Context, userID, quizID string) (domain.DetailedResult, error) {
	result, err := s.attempts.GetResult(ctx, userID, quizID)
	if err != nil {
		return domain.DetailedResult{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.DetailedResult{}, err
	}
	answers, err := s.attempts.ListAnswers(ctx, userID, quizID)
	if err != nil {
		return domain.DetailedResult{}, err
	}

	questions := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}

	details := make([]domain.AnswerDetail, 0, len(answers))
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			continue
		}
		details = append(details, domain.AnswerDetail{
			QuestionID:     a.QuestionID,
			QuestionText:   q.Text,
			SelectedAnswer: a.SelectedAnswer,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      IsCorrect(a.SelectedAnswer, q.CorrectAnswer),
		})
	}
	sort.SliceStable(details, func(i, j int) bool {
		return questions[details[i].QuestionID].Order < questions[details[j].QuestionID].Order
	})

	return domain.DetailedResult{Result: result, QuizTitle: quiz.Title, AnswerDetails: details}, nil
}

// GetQuizResults lists every result of a quiz.
func (s *ResultService) GetQuizResults(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.attempts.ListByQuiz(ctx, quizID)
}

// GetUserResults lists every result of a user.
func (s *ResultService) GetUserResults(ctx context.Context, userID string) ([]domain.Result, error) {
	return s.attempts.ListByUser(ctx, userID)
}

// HasAttempted reports whether a result exists for the pair.
func (s *ResultService) HasAttempted(ctx context.Context, userID, quizID string) (bool, error) {
	return s.attempts.HasResult(ctx, userID, quizID)
}

// AuthorizeQuizOwner returns domain.ErrUnauthorized unless actorID created the quiz.
func (s *ResultService) AuthorizeQuizOwner(ctx context.Context, quizID, actorID string) error {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if !domain.CanManageQuiz(quiz, actorID) {
		return domain.ErrUnauthorized
	}
	return nil
}
