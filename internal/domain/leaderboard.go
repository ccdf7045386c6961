package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerformanceLevel is the qualitative band of a score.
type PerformanceLevel string

const (
	Excellent    PerformanceLevel = "Excellent"
	Good         PerformanceLevel = "Good"
	Average      PerformanceLevel = "Average"
	BelowAverage PerformanceLevel = "Below Average"
	Poor         PerformanceLevel = "Poor"
)

var bands = []struct {
	min   decimal.Decimal
	level PerformanceLevel
}{
	{decimal.NewFromInt(90), Excellent},
	{decimal.NewFromInt(75), Good},
	{decimal.NewFromInt(60), Average},
	{decimal.NewFromInt(40), BelowAverage},
}

// PerformanceLevelFor maps a percentage score to its band. Lower bounds are inclusive.
func PerformanceLevelFor(score decimal.Decimal) PerformanceLevel {
	for _, b := range bands {
		if score.GreaterThanOrEqual(b.min) {
			return b.level
		}
	}
	return Poor
}

// RankedResult pairs a result with its 1-based rank in the quiz.
type RankedResult struct {
	Result
	Rank int `json:"rank"`
}

// LeaderboardEntry is one row of a quiz leaderboard.
type LeaderboardEntry struct {
	UserID           string           `json:"userId"`
	UserName         string           `json:"userName"`
	Email            string           `json:"email"`
	Score            decimal.Decimal  `json:"score"`
	CorrectAnswers   int              `json:"correctAnswers"`
	TotalQuestions   int              `json:"totalQuestions"`
	WrongAnswers     int              `json:"wrongAnswers"`
	TimeTaken        time.Duration    `json:"timeTakenNanos"`
	SubmittedAt      time.Time        `json:"submittedAt"`
	Rank             int              `json:"rank"`
	PerformanceLevel PerformanceLevel `json:"performanceLevel"`
}

// QuizLeaderboard aggregates every participant of a quiz; TopPerformers is the top-N slice.
type QuizLeaderboard struct {
	QuizID            string             `json:"quizId"`
	QuizTitle         string             `json:"quizTitle"`
	QuizDescription   string             `json:"quizDescription"`
	TotalParticipants int                `json:"totalParticipants"`
	AverageScore      decimal.Decimal    `json:"averageScore"`
	HighestScore      decimal.Decimal    `json:"highestScore"`
	LowestScore       decimal.Decimal    `json:"lowestScore"`
	TopPerformers     []LeaderboardEntry `json:"topPerformers"`
}

// Podium holds the first three places (nil when absent) and the top ten.
type Podium struct {
	FirstPlace  *LeaderboardEntry  `json:"firstPlace"`
	SecondPlace *LeaderboardEntry  `json:"secondPlace"`
	ThirdPlace  *LeaderboardEntry  `json:"thirdPlace"`
	TopTen      []LeaderboardEntry `json:"topTen"`
}

// StudentPerformance is a per-student aggregate across all attempts.
type StudentPerformance struct {
	UserID              string           `json:"userId"`
	UserName            string           `json:"userName"`
	Email               string           `json:"email"`
	QuizzesAttempted    int              `json:"quizzesAttempted"`
	AverageScore        decimal.Decimal  `json:"averageScore"`
	BestScore           decimal.Decimal  `json:"bestScore"`
	TotalCorrectAnswers int              `json:"totalCorrectAnswers"`
	TotalQuestions      int              `json:"totalQuestions"`
	TotalWrongAnswers   int              `json:"totalWrongAnswers"`
	AccuracyPercentage  decimal.Decimal  `json:"accuracyPercentage"`
	GlobalRank          int              `json:"globalRank"`
	PerformanceLevel    PerformanceLevel `json:"performanceLevel"`
	LastAttempt         time.Time        `json:"lastAttempt"`
}

// GlobalLeaderboard ranks students across every quiz.
type GlobalLeaderboard struct {
	TotalStudents       int                  `json:"totalStudents"`
	TotalQuizzes        int                  `json:"totalQuizzes"`
	OverallAverageScore decimal.Decimal      `json:"overallAverageScore"`
	TopStudents         []StudentPerformance `json:"topStudents"`
}

// QuizPerformance is one recent attempt inside UserStats.
type QuizPerformance struct {
	QuizID         string          `json:"quizId"`
	QuizTitle      string          `json:"quizTitle"`
	Score          decimal.Decimal `json:"score"`
	CorrectAnswers int             `json:"correctAnswers"`
	WrongAnswers   int             `json:"wrongAnswers"`
	TotalQuestions int             `json:"totalQuestions"`
	TimeTaken      time.Duration   `json:"timeTakenNanos"`
	AttemptedAt    time.Time       `json:"attemptedAt"`
	RankInQuiz     int             `json:"rankInQuiz"`
}

// UserStats aggregates all results of one user.
type UserStats struct {
	UserID                string            `json:"userId"`
	UserName              string            `json:"userName"`
	TotalQuizzesAttempted int               `json:"totalQuizzesAttempted"`
	AverageScore          decimal.Decimal   `json:"averageScore"`
	BestScore             decimal.Decimal   `json:"bestScore"`
	WorstScore            decimal.Decimal   `json:"worstScore"`
	TotalCorrectAnswers   int               `json:"totalCorrectAnswers"`
	TotalWrongAnswers     int               `json:"totalWrongAnswers"`
	TotalQuestions        int               `json:"totalQuestions"`
	AccuracyRate          decimal.Decimal   `json:"accuracyRate"`
	TotalTimeSpent        time.Duration     `json:"totalTimeSpentNanos"`
	AverageTimePerQuiz    time.Duration     `json:"averageTimePerQuizNanos"`
	RecentQuizzes         []QuizPerformance `json:"recentQuizzes"`
}

// LeaderboardUpdate notifies subscribers that a quiz has a new result.
type LeaderboardUpdate struct {
	QuizID    string    `json:"quizId"`
	ResultID  string    `json:"resultId"`
	UpdatedAt time.Time `json:"updatedAt"`
}
