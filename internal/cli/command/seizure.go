package command

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/fp4-go/internal/cli/connection"
	"github.com/yndnr/fp4-go/internal/cli/output"
	"github.com/yndnr/fp4-go/internal/core/domain"
)

// SeizureCommand returns the seizures subcommand group.
func SeizureCommand() *cli.Command {
	return &cli.Command{
		Name:    "seizures",
		Aliases: []string{"seizure"},
		Usage:   "Report and browse seizures",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List seizures one page at a time",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "first", Usage: "Page forward, returning up to N seizures"},
					&cli.StringFlag{Name: "after", Usage: "Cursor to page forward from"},
					&cli.IntFlag{Name: "last", Usage: "Page backward, returning up to N seizures"},
					&cli.StringFlag{Name: "before", Usage: "Cursor to page backward from"},
				},
				Action: seizureList,
			},
			{
				Name:      "create",
				Usage:     "Report a seizure from a JSON document",
				ArgsUsage: "FILE (- for stdin)",
				Action:    seizureCreate,
			},
			{
				Name:   "summary",
				Usage:  "Show monthly totals per substance",
				Action: seizureSummary,
			},
		},
	}
}

// seizureRow flattens a seizure for table output.
type seizureRow struct {
	Cursor     string `json:"cursor" table:"wide"`
	ID         int64  `json:"id"`
	Reference  string `json:"reference"`
	Location   string `json:"location"`
	SeizedOn   string `json:"seized_on"`
	ReportedOn string `json:"reported_on"`
	Substances int    `json:"substances"`
	UserID     int64  `json:"user_id" table:"wide"`
}

func listQuery(c *cli.Context) string {
	q := url.Values{}
	if c.IsSet("first") {
		q.Set("first", strconv.Itoa(c.Int("first")))
	}
	if c.IsSet("last") {
		q.Set("last", strconv.Itoa(c.Int("last")))
	}
	if v := c.String("after"); v != "" {
		q.Set("after", v)
	}
	if v := c.String("before"); v != "" {
		q.Set("before", v)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func seizureList(c *cli.Context) error {
	client, flags, err := NewClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/seizures"+listQuery(c))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var page domain.SeizureConnection
	if err := connection.ParseResponse(resp, &page); err != nil {
		return err
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, &page)
	}

	rows := make([]seizureRow, 0, len(page.Edges))
	for _, e := range page.Edges {
		if e.Node == nil {
			continue
		}
		rows = append(rows, seizureRow{
			Cursor:     e.Cursor,
			ID:         e.Node.ID,
			Reference:  e.Node.Reference,
			Location:   e.Node.Location,
			SeizedOn:   e.Node.SeizedOn,
			ReportedOn: e.Node.ReportedOn,
			Substances: len(e.Node.Substances),
			UserID:     e.Node.UserID,
		})
	}
	if err := render(c, flags, rows); err != nil {
		return err
	}

	w := stdout(c)
	if page.PageInfo.HasNextPage {
		fmt.Fprintf(w, "\nNext page: --after %s\n", page.PageInfo.EndCursor)
	}
	if page.PageInfo.HasPreviousPage {
		fmt.Fprintf(w, "Previous page: --before %s\n", page.PageInfo.StartCursor)
	}
	return nil
}

func readSeizureInput(c *cli.Context, name string) (*domain.SeizureInput, error) {
	var r io.Reader
	switch name {
	case "":
		return nil, fmt.Errorf("input file required")
	case "-":
		r = c.App.Reader
		if r == nil {
			r = os.Stdin
		}
	default:
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var in domain.SeizureInput
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("parse seizure: %w", err)
	}
	return &in, nil
}

func seizureCreate(c *cli.Context) error {
	in, err := readSeizureInput(c, c.Args().First())
	if err != nil {
		return err
	}

	client, flags, err := NewClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Post(ctx, "/seizures", in)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var created domain.Seizure
	if err := connection.ParseResponse(resp, &created); err != nil {
		return err
	}
	if flags.Output != output.FormatTable {
		return render(c, flags, &created)
	}
	if err := render(c, flags, created.Substances); err != nil {
		return err
	}
	fmt.Fprintf(stdout(c), "\nSeizure %d (%s) recorded.\n", created.ID, created.Reference)
	return nil
}

func seizureSummary(c *cli.Context) error {
	client, flags, err := NewClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := client.Get(ctx, "/seizures/summary")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var rows []domain.SummaryRow
	if err := connection.ParseResponse(resp, &rows); err != nil {
		return err
	}
	return render(c, flags, rows)
}
