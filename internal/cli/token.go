package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"warehouse/internal/config"
	"warehouse/internal/platform/auth"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	Subject string
	Name    string
	Roles   []string
	TTL     time.Duration
}

// NewTokenCommand mints a signed development token.
func NewTokenCommand() *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed JWT for calling the APIs",
		Long: `Mint an HS256 JWT signed with JWT_SECRET and carrying JWT_ISSUER and
JWT_AUDIENCE.

Example:
  warehouse token --subject alice --name "Alice" --roles read,write`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtCfg, err := config.LoadJWT()
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuer(auth.Config{
				Secret:   []byte(jwtCfg.Secret),
				Issuer:   jwtCfg.Issuer,
				Audience: jwtCfg.Audience,
			})
			if err != nil {
				return err
			}
			token, err := issuer.Issue(opts.Subject, opts.Name, opts.Roles, opts.TTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "dev", "token subject")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name claim")
	cmd.Flags().StringSliceVar(&opts.Roles, "roles", []string{auth.RoleRead, auth.RoleWrite}, "roles claim")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")

	return cmd
}
