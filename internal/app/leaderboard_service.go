package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"quiz-results-service/internal/domain"
)

const (
	// DefaultTopCount is used when a caller asks for a non-positive top-N.
	DefaultTopCount = 10
	recentAttempts  = 5
)

// LeaderboardService derives rankings and aggregates from stored results. It never mutates state.
type LeaderboardService struct {
	attempts AttemptRepository
	quizzes  QuizRepository
	users    UserRepository
	log      logrus.FieldLogger
}

func NewLeaderboardService(attempts AttemptRepository, quizzes QuizRepository, users UserRepository, log logrus.FieldLogger) *LeaderboardService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LeaderboardService{attempts: attempts, quizzes: quizzes, users: users, log: log}
}

// RankQuiz returns every result of the quiz in rank order.
func (s *LeaderboardService) RankQuiz(ctx context.Context, quizID string) ([]domain.RankedResult, error) {
	results, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return RankResults(results), nil
}

// QuizLeaderboard aggregates all participants of a quiz and returns the top-N entries.
func (s *LeaderboardService) QuizLeaderboard(ctx context.Context, quizID string, topCount int) (domain.QuizLeaderboard, error) {
	if topCount <= 0 {
		topCount = DefaultTopCount
	}

	var (
		quiz   domain.Quiz
		ranked []domain.RankedResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quiz, err = s.quizzes.GetQuiz(gctx, quizID)
		return err
	})
	g.Go(func() error {
		var err error
		ranked, err = s.RankQuiz(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.QuizLeaderboard{}, err
	}

	top := ranked
	if len(top) > topCount {
		top = top[:topCount]
	}
	ids := make([]string, 0, len(top))
	for _, r := range top {
		ids = append(ids, r.UserID)
	}
	users, err := s.users.ListUsers(ctx, ids)
	if err != nil {
		return domain.QuizLeaderboard{}, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(top))
	for _, r := range top {
		u := users[r.UserID]
		entries = append(entries, domain.LeaderboardEntry{
			UserID:           r.UserID,
			UserName:         u.Name,
			Email:            u.Email,
			Score:            r.Score,
			CorrectAnswers:   r.CorrectAnswers,
			TotalQuestions:   r.TotalQuestions,
			WrongAnswers:     r.WrongAnswers(),
			TimeTaken:        r.TimeTaken,
			SubmittedAt:      r.SubmittedAt,
			Rank:             r.Rank,
			PerformanceLevel: domain.PerformanceLevelFor(r.Score),
		})
	}

	scores := make([]decimal.Decimal, 0, len(ranked))
	for _, r := range ranked {
		scores = append(scores, r.Score)
	}
	lb := domain.QuizLeaderboard{
		QuizID:            quiz.ID,
		QuizTitle:         quiz.Title,
		QuizDescription:   quiz.Description,
		TotalParticipants: len(ranked),
		AverageScore:      mean(scores).Round(2),
		HighestScore:      decimal.Zero,
		LowestScore:       decimal.Zero,
		TopPerformers:     entries,
	}
	if len(scores) > 0 {
		lb.HighestScore = decimal.Max(scores[0], scores[1:]...)
		lb.LowestScore = decimal.Min(scores[0], scores[1:]...)
	}
	return lb, nil
}

// QuizPodium returns the first three places and the top ten of a quiz.
func (s *LeaderboardService) QuizPodium(ctx context.Context, quizID string) (domain.Podium, error) {
	lb, err := s.QuizLeaderboard(ctx, quizID, DefaultTopCount)
	if err != nil {
		return domain.Podium{}, err
	}
	place := func(i int) *domain.LeaderboardEntry {
		if i >= len(lb.TopPerformers) {
			return nil
		}
		e := lb.TopPerformers[i]
		return &e
	}
	return domain.Podium{
		FirstPlace:  place(0),
		SecondPlace: place(1),
		ThirdPlace:  place(2),
		TopTen:      lb.TopPerformers,
	}, nil
}

// GlobalLeaderboard ranks students by average score, then best score. The
// overall average weights every student equally.
func (s *LeaderboardService) GlobalLeaderboard(ctx context.Context, topCount int) (domain.GlobalLeaderboard, error) {
	if topCount <= 0 {
		topCount = DefaultTopCount
	}

	students, err := s.users.ListByRole(ctx, domain.RoleStudent)
	if err != nil {
		return domain.GlobalLeaderboard{}, err
	}
	totalQuizzes, err := s.quizzes.CountQuizzes(ctx)
	if err != nil {
		return domain.GlobalLeaderboard{}, err
	}

	ids := make([]string, 0, len(students))
	byID := make(map[string]domain.User, len(students))
	for _, u := range students {
		ids = append(ids, u.ID)
		byID[u.ID] = u
	}
	results, err := s.attempts.ListByUsers(ctx, ids)
	if err != nil {
		return domain.GlobalLeaderboard{}, err
	}

	grouped := make(map[string][]domain.Result)
	for _, r := range results {
		if _, ok := byID[r.UserID]; ok {
			grouped[r.UserID] = append(grouped[r.UserID], r)
		}
	}

	type ranked struct {
		perf domain.StudentPerformance
		avg  decimal.Decimal
	}
	rows := make([]ranked, 0, len(grouped))
	for userID, rs := range grouped {
		u := byID[userID]
		scores := make([]decimal.Decimal, len(rs))
		perf := domain.StudentPerformance{
			UserID:           userID,
			UserName:         u.Name,
			Email:            u.Email,
			QuizzesAttempted: len(rs),
		}
		for i, r := range rs {
			scores[i] = r.Score
			perf.TotalCorrectAnswers += r.CorrectAnswers
			perf.TotalQuestions += r.TotalQuestions
			if r.SubmittedAt.After(perf.LastAttempt) {
				perf.LastAttempt = r.SubmittedAt
			}
		}
		avg := mean(scores)
		perf.AverageScore = avg.Round(2)
		perf.BestScore = decimal.Max(scores[0], scores[1:]...)
		perf.TotalWrongAnswers = perf.TotalQuestions - perf.TotalCorrectAnswers
		perf.AccuracyPercentage = domain.Accuracy(perf.TotalCorrectAnswers, perf.TotalQuestions)
		perf.PerformanceLevel = domain.PerformanceLevelFor(avg)
		rows = append(rows, ranked{perf: perf, avg: avg})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].avg.Cmp(rows[j].avg); c != 0 {
			return c > 0
		}
		if c := rows[i].perf.BestScore.Cmp(rows[j].perf.BestScore); c != 0 {
			return c > 0
		}
		return rows[i].perf.UserID < rows[j].perf.UserID
	})

	averages := make([]decimal.Decimal, len(rows))
	top := make([]domain.StudentPerformance, 0, min(topCount, len(rows)))
	for i := range rows {
		averages[i] = rows[i].avg
		rows[i].perf.GlobalRank = i + 1
		if i < topCount {
			top = append(top, rows[i].perf)
		}
	}

	return domain.GlobalLeaderboard{
		TotalStudents:       len(students),
		TotalQuizzes:        totalQuizzes,
		OverallAverageScore: mean(averages).Round(2),
		TopStudents:         top,
	}, nil
}

// UserStats aggregates a user's results. A user without results gets zero totals.
func (s *LeaderboardService) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}
	results, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, err
	}

	stats := domain.UserStats{
		UserID:                user.ID,
		UserName:              user.Name,
		TotalQuizzesAttempted: len(results),
		AverageScore:          decimal.Zero,
		BestScore:             decimal.Zero,
		WorstScore:            decimal.Zero,
		AccuracyRate:          decimal.Zero,
		RecentQuizzes:         []domain.QuizPerformance{},
	}
	if len(results) == 0 {
		return stats, nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SubmittedAt.After(results[j].SubmittedAt)
	})

	scores := make([]decimal.Decimal, len(results))
	for i, r := range results {
		scores[i] = r.Score
		stats.TotalCorrectAnswers += r.CorrectAnswers
		stats.TotalQuestions += r.TotalQuestions
		stats.TotalTimeSpent += r.TimeTaken
	}
	stats.AverageScore = mean(scores).Round(2)
	stats.BestScore = decimal.Max(scores[0], scores[1:]...)
	stats.WorstScore = decimal.Min(scores[0], scores[1:]...)
	stats.TotalWrongAnswers = stats.TotalQuestions - stats.TotalCorrectAnswers
	stats.AccuracyRate = domain.Accuracy(stats.TotalCorrectAnswers, stats.TotalQuestions)
	stats.AverageTimePerQuiz = stats.TotalTimeSpent / time.Duration(len(results))

	recent := results[:min(recentAttempts, len(results))]
	stats.RecentQuizzes = make([]domain.QuizPerformance, len(recent))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range recent {
		g.Go(func() error {
			quiz, err := s.quizzes.GetQuiz(gctx, r.QuizID)
			if err != nil {
				return err
			}
			rank, err := s.UserRankInQuiz(gctx, userID, r.QuizID)
			if err != nil {
				return err
			}
			stats.RecentQuizzes[i] = domain.QuizPerformance{
				QuizID:         r.QuizID,
				QuizTitle:      quiz.Title,
				Score:          r.Score,
				CorrectAnswers: r.CorrectAnswers,
				WrongAnswers:   r.WrongAnswers(),
				TotalQuestions: r.TotalQuestions,
				TimeTaken:      r.TimeTaken,
				AttemptedAt:    r.SubmittedAt,
				RankInQuiz:     rank,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to load recent attempts")
		return domain.UserStats{}, err
	}
	return stats, nil
}

// UserRankInQuiz returns 0 when the user has no result for the quiz, otherwise
// 1 plus the number of results strictly ahead of the user's.
func (s *LeaderboardService) UserRankInQuiz(ctx context.Context, userID, quizID string) (int, error) {
	own, err := s.attempts.GetResult(ctx, userID, quizID)
	if errors.Is(err, domain.ErrResultNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	results, err := s.attempts.ListByQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	return rankOf(results, own), nil
}

// mean returns the arithmetic mean, zero for an empty slice.
func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}
