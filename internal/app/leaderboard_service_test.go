package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"quiz-results-service/internal/domain"
)

func seed(t *testing.T, f fixture, results ...domain.Result) {
	t.Helper()
	for _, r := range results {
		if err := f.attempts.RecordAttempt(context.Background(), r, nil); err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}
}

func scored(id, userID, quizID, score string, correct, total int, taken time.Duration, at time.Duration) domain.Result {
	return domain.Result{
		ID:             id,
		UserID:         userID,
		QuizID:         quizID,
		Score:          decimal.RequireFromString(score),
		CorrectAnswers: correct,
		TotalQuestions: total,
		TimeTaken:      taken,
		SubmittedAt:    base.Add(at),
	}
}

func TestQuizLeaderboardAggregatesAllParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seed(t, f,
		scored("r1", "u1", "quiz-1", "90", 9, 10, 5*time.Minute, 0),
		scored("r2", "u2", "quiz-1", "90", 9, 10, 4*time.Minute, time.Minute),
		scored("r3", "u3", "quiz-1", "60", 6, 10, time.Minute, 2*time.Minute),
		scored("r4", "u4", "quiz-1", "30", 3, 10, time.Minute, 3*time.Minute),
	)

	lb, err := f.leaderboard.QuizLeaderboard(ctx, "quiz-1", 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if lb.TotalParticipants != 4 || lb.QuizTitle != "Capitals" {
		t.Fatalf("unexpected header %+v", lb)
	}
	if !lb.AverageScore.Equal(decimal.RequireFromString("67.5")) {
		t.Fatalf("expected average over all participants 67.5, got %s", lb.AverageScore)
	}
	if !lb.HighestScore.Equal(decimal.NewFromInt(90)) || !lb.LowestScore.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected high/low %s/%s", lb.HighestScore, lb.LowestScore)
	}
	if len(lb.TopPerformers) != 2 {
		t.Fatalf("expected top 2, got %d", len(lb.TopPerformers))
	}
	first := lb.TopPerformers[0]
	if first.UserID != "u2" || first.Rank != 1 || first.UserName != "Bob" || first.PerformanceLevel != domain.Excellent || first.WrongAnswers != 1 {
		t.Fatalf("expected faster Bob first, got %+v", first)
	}
	if lb.TopPerformers[1].UserID != "u1" || lb.TopPerformers[1].Rank != 2 {
		t.Fatalf("expected Alice second, got %+v", lb.TopPerformers[1])
	}
}

func TestQuizLeaderboardEmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lb, err := f.leaderboard.QuizLeaderboard(ctx, "quiz-1", 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if lb.TotalParticipants != 0 || !lb.AverageScore.IsZero() || !lb.HighestScore.IsZero() || len(lb.TopPerformers) != 0 {
		t.Fatalf("expected zeroed leaderboard, got %+v", lb)
	}
	if _, err := f.leaderboard.QuizLeaderboard(ctx, "missing", 10); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := f.leaderboard.QuizPodium(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for podium, got %v", err)
	}
}

func TestQuizPodiumWithTwoParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seed(t, f,
		scored("r1", "u1", "quiz-1", "50", 5, 10, time.Minute, 0),
		scored("r2", "u2", "quiz-1", "80", 8, 10, time.Minute, 0),
	)

	podium, err := f.leaderboard.QuizPodium(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("podium: %v", err)
	}
	if podium.FirstPlace == nil || podium.FirstPlace.UserID != "u2" {
		t.Fatalf("expected Bob first, got %+v", podium.FirstPlace)
	}
	if podium.SecondPlace == nil || podium.SecondPlace.UserID != "u1" {
		t.Fatalf("expected Alice second, got %+v", podium.SecondPlace)
	}
	if podium.ThirdPlace != nil {
		t.Fatalf("expected no third place, got %+v", podium.ThirdPlace)
	}
	if len(podium.TopTen) != 2 {
		t.Fatalf("expected two entries in top ten, got %d", len(podium.TopTen))
	}
}

func TestGlobalLeaderboardWeightsStudentsEqually(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, capitalsQuiz(), domain.Quiz{ID: "quiz-2", Title: "Rivers"})
	seed(t, f,
		scored("r1", "u1", "quiz-1", "100", 3, 3, time.Minute, 0),
		scored("r2", "u1", "quiz-2", "0", 0, 2, time.Minute, time.Hour),
		scored("r3", "u2", "quiz-1", "80", 4, 5, time.Minute, 0),
		scored("r4", "admin-1", "quiz-1", "100", 3, 3, time.Minute, 0),
	)

	lb, err := f.leaderboard.GlobalLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	if !lb.OverallAverageScore.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("expected overall average 65, got %s", lb.OverallAverageScore)
	}
	if lb.TotalStudents != 4 || lb.TotalQuizzes != 2 {
		t.Fatalf("expected 4 students and 2 quizzes, got %d/%d", lb.TotalStudents, lb.TotalQuizzes)
	}
	if len(lb.TopStudents) != 2 {
		t.Fatalf("expected only students with results, got %+v", lb.TopStudents)
	}
	bob, alice := lb.TopStudents[0], lb.TopStudents[1]
	if bob.UserID != "u2" || bob.GlobalRank != 1 || bob.PerformanceLevel != domain.Good {
		t.Fatalf("expected Bob ranked first, got %+v", bob)
	}
	if alice.UserID != "u1" || alice.GlobalRank != 2 || alice.QuizzesAttempted != 2 {
		t.Fatalf("expected Alice ranked second, got %+v", alice)
	}
	if !alice.AverageScore.Equal(decimal.NewFromInt(50)) || !alice.BestScore.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected Alice averages %s/%s", alice.AverageScore, alice.BestScore)
	}
	if alice.TotalCorrectAnswers != 3 || alice.TotalQuestions != 5 || alice.TotalWrongAnswers != 2 {
		t.Fatalf("unexpected Alice totals %+v", alice)
	}
	if !alice.AccuracyPercentage.Equal(decimal.NewFromInt(60)) || !alice.LastAttempt.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected Alice accuracy/last attempt %+v", alice)
	}
}

func TestGlobalLeaderboardBestScoreBreaksTies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, capitalsQuiz(), domain.Quiz{ID: "quiz-2", Title: "Rivers"})
	seed(t, f,
		scored("r1", "u1", "quiz-1", "60", 6, 10, time.Minute, 0),
		scored("r2", "u1", "quiz-2", "60", 6, 10, time.Minute, 0),
		scored("r3", "u2", "quiz-1", "40", 4, 10, time.Minute, 0),
		scored("r4", "u2", "quiz-2", "80", 8, 10, time.Minute, 0),
	)

	lb, err := f.leaderboard.GlobalLeaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	if len(lb.TopStudents) != 1 || lb.TopStudents[0].UserID != "u2" {
		t.Fatalf("expected Bob ahead on best score, got %+v", lb.TopStudents)
	}
}

func TestUserStats(t *testing.T) {
	ctx := context.Background()
	quizzes := []domain.Quiz{capitalsQuiz()}
	for _, id := range []string{"quiz-2", "quiz-3", "quiz-4", "quiz-5", "quiz-6"} {
		quizzes = append(quizzes, domain.Quiz{ID: id, Title: "Quiz " + id})
	}
	f := newFixture(t, quizzes...)
	seed(t, f,
		scored("r1", "u1", "quiz-1", "50", 1, 2, time.Minute, 0),
		scored("r2", "u1", "quiz-2", "100", 2, 2, 3*time.Minute, time.Hour),
		scored("r3", "u1", "quiz-3", "0", 0, 4, 2*time.Minute, 2*time.Hour),
		scored("r4", "u1", "quiz-4", "50", 1, 2, time.Minute, 3*time.Hour),
		scored("r5", "u1", "quiz-5", "50", 1, 2, time.Minute, 4*time.Hour),
		scored("r6", "u1", "quiz-6", "50", 1, 2, 4*time.Minute, 5*time.Hour),
		scored("r7", "u2", "quiz-6", "100", 2, 2, time.Minute, 0),
	)

	stats, err := f.leaderboard.UserStats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalQuizzesAttempted != 6 || stats.UserName != "Alice" {
		t.Fatalf("unexpected header %+v", stats)
	}
	if !stats.AverageScore.Equal(decimal.NewFromInt(50)) || !stats.BestScore.Equal(decimal.NewFromInt(100)) || !stats.WorstScore.IsZero() {
		t.Fatalf("unexpected scores avg=%s best=%s worst=%s", stats.AverageScore, stats.BestScore, stats.WorstScore)
	}
	if stats.TotalCorrectAnswers != 6 || stats.TotalQuestions != 14 || stats.TotalWrongAnswers != 8 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if !stats.AccuracyRate.Equal(decimal.RequireFromString("42.86")) {
		t.Fatalf("expected accuracy 42.86, got %s", stats.AccuracyRate)
	}
	if stats.TotalTimeSpent != 12*time.Minute || stats.AverageTimePerQuiz != 2*time.Minute {
		t.Fatalf("unexpected time totals %s/%s", stats.TotalTimeSpent, stats.AverageTimePerQuiz)
	}
	if len(stats.RecentQuizzes) != 5 {
		t.Fatalf("expected five recent quizzes, got %d", len(stats.RecentQuizzes))
	}
	latest := stats.RecentQuizzes[0]
	if latest.QuizID != "quiz-6" || latest.RankInQuiz != 2 || latest.QuizTitle != "Quiz quiz-6" || latest.WrongAnswers != 1 {
		t.Fatalf("expected quiz-6 ranked 2nd first, got %+v", latest)
	}
	if stats.RecentQuizzes[4].QuizID != "quiz-2" || stats.RecentQuizzes[4].RankInQuiz != 1 {
		t.Fatalf("expected quiz-2 last among recent, got %+v", stats.RecentQuizzes[4])
	}
}

func TestUserStatsWithoutResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stats, err := f.leaderboard.UserStats(ctx, "u3")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalQuizzesAttempted != 0 || !stats.AverageScore.IsZero() || len(stats.RecentQuizzes) != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if _, err := f.leaderboard.UserStats(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRankInQuizMatchesRankQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seed(t, f,
		scored("r1", "u1", "quiz-1", "90", 9, 10, 5*time.Minute, 0),
		scored("r2", "u2", "quiz-1", "90", 9, 10, 4*time.Minute, 0),
		scored("r3", "u3", "quiz-1", "70", 7, 10, time.Minute, 0),
	)

	ranked, err := f.leaderboard.RankQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("rank quiz: %v", err)
	}
	for _, r := range ranked {
		rank, err := f.leaderboard.UserRankInQuiz(ctx, r.UserID, "quiz-1")
		if err != nil {
			t.Fatalf("rank of %s: %v", r.UserID, err)
		}
		if rank != r.Rank {
			t.Fatalf("user %s: expected rank %d, got %d", r.UserID, r.Rank, rank)
		}
	}
	rank, err := f.leaderboard.UserRankInQuiz(ctx, "u4", "quiz-1")
	if err != nil || rank != 0 {
		t.Fatalf("expected rank 0 without attempt, got %d (%v)", rank, err)
	}
}
