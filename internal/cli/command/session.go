package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/pkg/sessiontoken"
)

type sessionInfo struct {
	Email     string    `json:"email"`
	UserID    int64     `json:"user_id"`
	Issuer    string    `json:"iss"`
	Audience  []string  `json:"aud" table:"wide"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// SessionCommand decodes session cookies with the server's secret.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Inspect session cookies",
		Subcommands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Verify and print a session cookie (defaults to the saved session)",
				ArgsUsage: "[COOKIE]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "Server session secret (base64)",
						EnvVars:  []string{"FP4_AUTH__SESSION_SECRET", "JWT_SECRET"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "issuer",
						Usage:    "Expected issuer",
						EnvVars:  []string{"FP4_AUTH__ISSUER", "JWT_ISSUER"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "audience",
						Usage:   "Expected audience",
						EnvVars: []string{"FP4_AUTH__AUDIENCE"},
						Value:   sessiontoken.DefaultAudience,
					},
				},
				Action: sessionDecode,
			},
		},
	}
}

func sessionDecode(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	cookie := c.Args().First()
	if cookie == "" {
		cookie = flags.Session
	}
	if cookie == "" {
		return fmt.Errorf("session cookie required")
	}

	codec, err := sessiontoken.New(sessiontoken.Config{
		Secret:   c.String("secret"),
		Issuer:   c.String("issuer"),
		Audience: c.String("audience"),
	})
	if err != nil {
		return err
	}
	claims, err := codec.Verify(cookie)
	if err != nil {
		return err
	}

	info := &sessionInfo{
		Email:    claims.Email,
		UserID:   claims.UserID,
		Issuer:   claims.Issuer,
		Audience: claims.Audience,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return render(c, flags, info)
}
