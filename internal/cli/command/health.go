package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/internal/cli/connection"
)

type healthStatus struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Version string `json:"version,omitempty"`
}

// HealthCommand checks server liveness and, with --ready, storage readiness.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ready",
				Usage: "Check readiness (storage reachable) instead of liveness",
			},
		},
		Action: health,
	}
}

func health(c *cli.Context) error {
	client, flags, err := NewClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	path := "/health"
	if c.Bool("ready") {
		path = "/ready"
	}
	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result healthStatus
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return render(c, flags, &result)
}
