package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quiz-results-service/internal/config"
	"quiz-results-service/internal/domain"
	"quiz-results-service/internal/infra/postgres"
)

// Fixture is the YAML layout accepted by the seed command.
type Fixture struct {
	Users   []domain.User `yaml:"users"`
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// NewSeedCmd loads users and quizzes from a YAML fixture into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and quizzes from a YAML fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := config.NewLogger(cfg.Log.Level, cfg.Log.Format)

			fixture, err := LoadFixture(fixturePath)
			if err != nil {
				return err
			}
			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runMigrations(cmd.Context(), db, log); err != nil {
				return err
			}
			if err := postgres.NewSeeder(db).Seed(cmd.Context(), fixture.Users, fixture.Quizzes); err != nil {
				return err
			}
			log.WithField("users", len(fixture.Users)).WithField("quizzes", len(fixture.Quizzes)).Info("fixture loaded")
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "file", "config/seed.yaml", "path to YAML fixture")
	return cmd
}
