package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-results-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	CountQuizzes(ctx context.Context) (int, error)
}

// QuizRepository caches quizzes in Redis and falls back to a loader on cache miss.
// Metadata is stored as:  SET  quiz:{quizID}:meta {quiz json without questions}
// Questions are stored as: HSET quiz:{quizID}:questions {questionID} {question json}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.fromCache(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.fromCache(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.store(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) CountQuizzes(ctx context.Context) (int, error) {
	return r.loader.CountQuizzes(ctx)
}

// Invalidate drops the cached copy of a quiz.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, r.metaKey(quizID), r.questionsKey(quizID)).Err()
}

func (r *QuizRepository) fromCache(ctx context.Context, quizID string) (domain.Quiz, bool) {
	meta, err := r.client.Get(ctx, r.metaKey(quizID)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(meta, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	raw, err := r.client.HGetAll(ctx, r.questionsKey(quizID)).Result()
	if err != nil {
		return domain.Quiz{}, false
	}
	questions := make([]domain.Question, 0, len(raw))
	for _, v := range raw {
		var q domain.Question
		if err := json.Unmarshal([]byte(v), &q); err != nil {
			return domain.Quiz{}, false
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Order != questions[j].Order {
			return questions[i].Order < questions[j].Order
		}
		return questions[i].ID < questions[j].ID
	})
	quiz.Questions = questions
	return quiz, true
}

// store writes the quiz best-effort; a failed write only costs a reload.
func (r *QuizRepository) store(ctx context.Context, quiz domain.Quiz) {
	meta := quiz
	meta.Questions = nil
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return
	}

	ttl := r.ttlWithJitter()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.questionsKey(quiz.ID))
	for _, q := range quiz.Questions {
		data, err := json.Marshal(q)
		if err != nil {
			return
		}
		pipe.HSet(ctx, r.questionsKey(quiz.ID), q.ID, data)
	}
	pipe.Set(ctx, r.metaKey(quiz.ID), metaJSON, ttl)
	if ttl > 0 && len(quiz.Questions) > 0 {
		pipe.Expire(ctx, r.questionsKey(quiz.ID), ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *QuizRepository) metaKey(quizID string) string {
	return "quiz:" + quizID + ":meta"
}

func (r *QuizRepository) questionsKey(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
