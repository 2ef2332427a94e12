package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/pkg/token"
)

type tokenInfo struct {
	Token     string        `json:"token"`
	IssuedAt  time.Time     `json:"issued_at"`
	Age       time.Duration `json:"age"`
	ExpiresAt time.Time     `json:"expires_at"`
	Expired   bool          `json:"expired"`
	Digest    string        `json:"digest" table:"wide"`
}

// TokenCommand inspects magic link tokens offline.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Inspect magic link tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Show when a token was issued and whether it has expired",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: token.DefaultMaxAge,
					},
				},
				Action: tokenInspect,
			},
		},
	}
}

func tokenInspect(c *cli.Context) error {
	raw, err := token.Parse(tokenFromArg(c.Args().First()))
	if err != nil {
		return err
	}
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}

	now := time.Now()
	ttl := c.Duration("ttl")
	return render(c, flags, &tokenInfo{
		Token:     raw.String(),
		IssuedAt:  raw.Time(),
		Age:       raw.Age(now),
		ExpiresAt: raw.Time().Add(ttl),
		Expired:   raw.Expired(ttl, now),
		Digest:    token.Digest(raw.String()),
	})
}
