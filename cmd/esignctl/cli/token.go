package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"esign.backend/pkg/jwt"
)

func newTokenCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue staff bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(s))
	return cmd
}

func newTokenIssueCmd(s *session) *cobra.Command {
	var (
		userID string
		email  string
		role   string
		name   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a staff token signed with JWT_SECRET",
		Example: `  esignctl token issue --email ops@example.com --role ADMIN
  esignctl token issue --email finance@example.com --role FINANCE --ttl 5m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.config()
			if err != nil {
				return err
			}
			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user-id: %w", err)
				}
			}
			if ttl < 0 {
				return fmt.Errorf("--ttl must not be negative")
			}
			if ttl == 0 {
				ttl = cfg.JWT.AccessExpiry
			}

			token, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry).IssueToken(id, email, role, name, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			out := cmd.OutOrStdout()
			if s.jsonOutput() {
				return s.printJSON(out, map[string]interface{}{
					"token":     token,
					"userId":    id,
					"role":      role,
					"expiresAt": time.Now().UTC().Add(ttl).Format(time.RFC3339),
				})
			}
			fmt.Fprintln(out, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "staff user id (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "staff email (required)")
	cmd.Flags().StringVar(&role, "role", "STAFF", "staff role, ADMIN manages API keys")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_ACCESS_EXPIRY)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
