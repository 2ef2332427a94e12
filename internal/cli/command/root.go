package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/internal/cli/config"
	"github.com/yndnr/fp4-go/internal/cli/connection"
	"github.com/yndnr/fp4-go/internal/cli/output"
	"github.com/yndnr/fp4-go/internal/infra/buildinfo"
)

const (
	metaConfig     = "config"
	requestTimeout = 30 * time.Second
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "fp4-cli",
		Usage:   "fp4 command-line client and operator tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			HealthCommand(),
			AuthCommand(),
			MeCommand(),
			SeizureCommand(),
			SecretCommand(),
			TokenCommand(),
			SessionCommand(),
			MigrateCommand(),
		},
		Before: loadCLIConfig,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "fp4 server URL",
			EnvVars: []string{"FP4_SERVER"},
			Value:   config.DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			EnvVars: []string{"FP4_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

func loadCLIConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metaConfig] = cfg
	return nil
}

// GlobalFlags defines flags available to all commands, merged with the
// CLI config file. Explicit flags and environment variables win.
type GlobalFlags struct {
	Server     string
	Output     output.Format
	Wide       bool
	ConfigPath string
	Session    string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)
	flags := &GlobalFlags{
		Server:     c.String("server"),
		Wide:       c.Bool("wide"),
		ConfigPath: c.String("config"),
		Session:    cfg.Session,
	}

	format := c.String("output")
	if !c.IsSet("server") && cfg.Server != "" {
		flags.Server = cfg.Server
	}
	if !c.IsSet("output") && cfg.Output != "" {
		format = cfg.Output
	}
	if !c.IsSet("wide") {
		flags.Wide = flags.Wide || cfg.Wide
	}

	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

func cliConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// NewClient returns an HTTP client for the selected server, carrying the
// saved session when there is one.
func NewClient(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	var opts []connection.Option
	if flags.Session != "" {
		opts = append(opts, connection.WithSession(flags.Session))
	}
	return connection.NewHTTPClient(flags.Server, opts...), flags, nil
}

// requestContext bounds a single server round trip.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}

// render writes data using the selected output format.
func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(stdout(c), data)
}

func stdout(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
