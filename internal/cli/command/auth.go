package command

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/internal/cli/config"
	"github.com/yndnr/fp4-go/internal/cli/connection"
)

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in with a magic link",
		Subcommands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Request a magic link for an email address",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Email address to sign in with",
						Required: true,
					},
				},
				Action: authLogin,
			},
			{
				Name:      "verify",
				Usage:     "Redeem a magic link token and save the session",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-save",
						Usage: "Print the session instead of saving it to the config file",
					},
				},
				Action: authVerify,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved session",
				Action: authLogout,
			},
		},
	}
}

func authLogin(c *cli.Context) error {
	client, _, err := NewClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Post(ctx, "/auth/login", map[string]string{"email": c.String("email")})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	fmt.Fprintln(stdout(c), result.Message)
	return nil
}

// tokenFromArg accepts a bare token or a magic link URL carrying the token
// in its token or code query parameter, or as its last path segment.
func tokenFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, "://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return arg
	}
	for _, key := range []string{"token", "code"} {
		if v := u.Query().Get(key); v != "" {
			return v
		}
	}
	p := strings.Trim(u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func authVerify(c *cli.Context) error {
	raw := tokenFromArg(c.Args().First())
	if raw == "" {
		return fmt.Errorf("token required")
	}

	client, flags, err := NewClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Post(ctx, "/auth/verify", map[string]string{"token": raw})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	if c.Bool("no-save") {
		return render(c, flags, &result)
	}

	cfg := cliConfig(c)
	cfg.Server = flags.Server
	cfg.Session = result.Token
	if err := config.Save(cfg, flags.ConfigPath); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(stdout(c), "Signed in. Session expires %s.\n", result.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func authLogout(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	cfg := cliConfig(c)
	if cfg.Session == "" {
		fmt.Fprintln(stdout(c), "Not signed in.")
		return nil
	}
	cfg.Session = ""
	if err := config.Save(cfg, flags.ConfigPath); err != nil {
		return err
	}
	fmt.Fprintln(stdout(c), "Logged out.")
	return nil
}

// MeCommand shows the identity behind the saved session.
func MeCommand() *cli.Command {
	return &cli.Command{
		Name:  "me",
		Usage: "Show the signed-in identity",
		Action: func(c *cli.Context) error {
			client, flags, err := NewClient(c)
			if err != nil {
				return err
			}
			if flags.Session == "" {
				return fmt.Errorf("not signed in: run \"fp4-cli auth login\" first")
			}

			ctx, cancel := requestContext(c)
			defer cancel()

			resp, err := client.Get(ctx, "/me")
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			var result struct {
				UserID    int64     `json:"user_id"`
				Email     string    `json:"email"`
				Issuer    string    `json:"iss" table:"wide"`
				IssuedAt  time.Time `json:"iat"`
				ExpiresAt time.Time `json:"exp"`
			}
			if err := connection.ParseResponse(resp, &result); err != nil {
				return err
			}
			return render(c, flags, &result)
		},
	}
}
