package cmd

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/worktime/internal/server"
)

var (
	tokenSubject string
	tokenEmail   string
	tokenName    string
	tokenExpiry  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development JWT signed with auth.jwt_secret",
	Long: `Issue an HS256 token for calling the REST API in jwt mode. Production
deployments get their tokens from the identity provider instead.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToken(sess, tokenSubject, tokenEmail, tokenName, tokenExpiry)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "User ID (default --user / cli.user_id)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name claim")
	tokenCmd.Flags().DurationVar(&tokenExpiry, "expiry", 24*time.Hour, "Token lifetime")
}

func runToken(s *session, subject, email, name string, expiry time.Duration) error {
	if s.cfg.Auth.JWTSecret == "" {
		return usageError("auth.jwt_secret is not set")
	}
	if expiry <= 0 {
		return usageError("--expiry must be positive")
	}
	if subject == "" {
		subject = s.userID
	}
	claims := &server.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			Issuer:  s.cfg.Auth.Issuer,
		},
		Email: email,
		Name:  name,
	}
	tok, err := server.IssueToken([]byte(s.cfg.Auth.JWTSecret), claims, expiry)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}
	fmt.Fprintln(s.out, tok)
	return nil
}
