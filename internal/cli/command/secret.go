package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/pkg/sessiontoken"
)

// SecretCommand generates session secrets for server configuration.
func SecretCommand() *cli.Command {
	return &cli.Command{
		Name:  "secret",
		Usage: "Manage session secrets",
		Subcommands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Print a new random session secret",
				Action: func(c *cli.Context) error {
					s, err := sessiontoken.GenerateSecret()
					if err != nil {
						return err
					}
					fmt.Fprintln(stdout(c), s)
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "Check that a secret is usable",
				ArgsUsage: "SECRET",
				Action: func(c *cli.Context) error {
					b, err := sessiontoken.DecodeSecret(c.Args().First())
					if err != nil {
						return err
					}
					fmt.Fprintf(stdout(c), "ok: %d bytes\n", len(b))
					return nil
				},
			},
		},
	}
}
