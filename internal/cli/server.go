package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/config"
	"quiz-results-service/internal/domain"
	"quiz-results-service/internal/infra/memory"
	"quiz-results-service/internal/infra/postgres"
	infraredis "quiz-results-service/internal/infra/redis"
	transport "quiz-results-service/internal/transport/http"
)

var errNoSecret = errors.New("auth secret not configured")

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the results server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the storage backends chosen from config.
type stores struct {
	loader   memory.QuizLoader
	users    app.UserRepository
	attempts app.AttemptRepository
	quizzes  app.QuizRepository
	guard    app.AttemptGuard
	closers  []func()
}

func (s stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (stores, error) {
	var s stores

	if cfg.Postgres.URL != "" {
		db, err := openBun(cfg)
		if err != nil {
			return s, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })
		if err := runMigrations(ctx, db, log); err != nil {
			s.close()
			return s, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.close()
			return s, err
		}
		s.closers = append(s.closers, pool.Close)

		catalog := postgres.NewCatalog(pool)
		s.loader = catalog
		s.users = catalog
		s.attempts = postgres.NewAttemptStore(db)
	} else {
		log.Warn("postgres not configured, using in-memory stores with sample data")
		catalog := memory.NewStaticCatalog(sampleQuizzes(), sampleUsers())
		s.loader = catalog
		s.users = catalog
		s.attempts = memory.NewAttemptStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	lockTTL := config.TTLDuration(cfg.Attempt.LockTTL, 30*time.Second)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.quizzes = infraredis.NewQuizRepository(client, s.loader, quizTTL)
		s.guard = infraredis.NewAttemptGuard(client, lockTTL)
	} else {
		s.quizzes = memory.NewQuizRepository(s.loader, quizTTL)
		s.guard = memory.NewAttemptGuard()
	}
	return s, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if cfg.Auth.Secret == "" {
		return errNoSecret
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	hub := app.NewLeaderboardHub()
	results := app.NewResultService(st.attempts, st.quizzes, st.guard, hub, log)
	leaderboards := app.NewLeaderboardService(st.attempts, st.quizzes, st.users, log)

	router := transport.NewRouter(transport.RouterConfig{
		Handler:   transport.NewHandler(results, leaderboards, log),
		WSHandler: transport.NewWSHandler(leaderboards, hub, log),
		Secret:    []byte(cfg.Auth.Secret),
		Log:       log,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: websocket connections stay open
	}

	go func() {
		log.WithField("port", finalPort).Info("starting quiz results service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes backs the in-memory mode; `seed` loads real fixtures into Postgres.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:              "quiz-1",
			Title:           "Go Basics",
			Description:     "A short warm-up on the Go language",
			DurationMinutes: 10,
			CreatedBy:       "admin-1",
			IsActive:        true,
			Questions: []domain.Question{
				{ID: "q1", Text: "Which keyword starts a goroutine?", Type: domain.MultipleChoice, Options: []string{"go", "async", "spawn"}, CorrectAnswer: "go", Order: 1},
				{ID: "q2", Text: "A nil map can be read from.", Type: domain.TrueFalse, CorrectAnswer: "True", Order: 2},
				{ID: "q3", Text: "Which package provides WaitGroup?", Type: domain.MultipleChoice, Options: []string{"sync", "context", "runtime"}, CorrectAnswer: "sync", Order: 3},
			},
		},
	}
}

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "admin-1", Name: "Quiz Admin", Email: "admin@example.com", Role: domain.RoleAdmin},
		{ID: "student-1", Name: "Sam Student", Email: "sam@example.com", Role: domain.RoleStudent},
		{ID: "student-2", Name: "Riley Student", Email: "riley@example.com", Role: domain.RoleStudent},
	}
}
