package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/urfave/cli/v2"
)

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one workbook, got %d", c.NArg())
	}

	wb, err := workbook.OpenFile(c.Args().First())
	if err != nil {
		return err
	}
	defer wb.Close()

	reports, err := newPipeline(c).Inspect(c.Context, wb)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHEET\tROLE\tHEADER\tROWS\tVALID\tCOLUMNS")
	for _, r := range reports {
		if r.Error != "" {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t%s\n", r.Name, r.Role, r.Error)
			continue
		}
		valid := "yes"
		if !r.Validation.Valid {
			valid = "missing " + strings.Join(r.Validation.Missing, "; ")
		} else if r.Validation.Deferred {
			valid = "after unpivot"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Name, r.Role, r.HeaderRow+1, r.Rows, valid, strings.Join(r.Columns, ", "))
	}
	return w.Flush()
}
