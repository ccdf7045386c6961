package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quiz-results-service/internal/config"
	"quiz-results-service/internal/domain"
	transport "quiz-results-service/internal/transport/http"
)

// NewTokenCmd prints a signed bearer token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with auth.secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errNoSecret
			}
			r := domain.Role(role)
			if r != domain.RoleAdmin && r != domain.RoleStudent {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := transport.IssueToken([]byte(cfg.Auth.Secret), userID, r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the subject claim")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "Admin or Student")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
