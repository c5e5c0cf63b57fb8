package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/auth"
)

var (
	tokenIdentity auth.Identity
	tokenTTL      time.Duration
)

// TokenCmd issues an identity token signed with auth.jwt_secret. Useful for
// local testing of the API without the identity provider.
var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token for an owner",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := cmd.LoadedConfig()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret (AUTH_JWT_SECRET) is not set")
		}
		tok, err := auth.NewJWTManager(cfg.Auth.JWTSecret).Issue(tokenIdentity, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	identityFlags(TokenCmd, &tokenIdentity, true)
	TokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = TokenCmd.MarkFlagRequired("owner")
	cmd.RootCmd.AddCommand(TokenCmd)
}
