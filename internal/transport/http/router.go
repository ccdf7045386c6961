package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"quiz-results-service/internal/domain"
)

type RouterConfig struct {
	Handler   *Handler
	WSHandler *WSHandler
	Secret    []byte
	Log       logrus.FieldLogger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	h := cfg.Handler
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Secret))

		r.Get("/ws/leaderboard", cfg.WSHandler.ServeWS)

		r.Route("/api/quiz", func(r chi.Router) {
			r.With(RequireRole(domain.RoleStudent)).Post("/{quizId}/submit", h.SubmitQuiz)
		})

		r.Route("/api/result", func(r chi.Router) {
			r.With(RequireRole(domain.RoleAdmin)).Get("/quiz/{quizId}", h.GetQuizResults)
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(domain.RoleStudent))
				r.Get("/my-results", h.GetMyResults)
				r.Get("/quiz/{quizId}/my-result", h.GetMyQuizResult)
				r.Get("/quiz/{quizId}/my-result/detailed", h.GetMyDetailedQuizResult)
			})
			r.Get("/quiz/{quizId}/check-attempt", h.CheckAttempt)
		})

		r.Route("/api/leaderboard", func(r chi.Router) {
			r.Get("/quiz/{quizId}", h.GetQuizLeaderboard)
			r.Get("/quiz/{quizId}/podium", h.GetQuizPodium)
			r.Get("/global", h.GetGlobalLeaderboard)
			r.With(RequireRole(domain.RoleStudent)).Get("/user/stats", h.GetMyStats)
			r.With(RequireRole(domain.RoleAdmin)).Get("/user/{userId}/stats", h.GetUserStats)
			r.Get("/user/{userId}/rank/quiz/{quizId}", h.GetUserRankInQuiz)
		})
	})
	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start),
			}).Debug("request served")
		})
	}
}
