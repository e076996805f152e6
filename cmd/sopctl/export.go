package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/analytics"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/export"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func runExport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one workbook, got %d", c.NArg())
	}
	path := c.Args().First()

	filter, err := filterFromFlags(c)
	if err != nil {
		return err
	}

	views := c.StringSlice("view")
	if len(views) == 0 {
		views = export.Views()
	}
	for _, v := range views {
		if !export.IsView(v) {
			return fmt.Errorf("%w: %s", export.ErrUnknownView, v)
		}
	}

	res, err := newPipeline(c).ProcessFile(c.Context, path)
	if err != nil {
		return err
	}
	ds := domain.NewDataset(filepath.Base(path), res.Columns, res.Records, res.Notices)
	dashboard := analytics.Build(ds, filter)
	records := filter.Apply(ds.Records)

	outDir := c.String("out-dir")
	if outDir == "-" {
		if len(views) != 1 {
			return fmt.Errorf("stdout output takes exactly one --view")
		}
		grid, err := export.Table(views[0], &dashboard, records)
		if err != nil {
			return err
		}
		return export.WriteCSV(os.Stdout, grid)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	for _, view := range views {
		grid, err := export.Table(view, &dashboard, records)
		if err != nil {
			return err
		}
		target := filepath.Join(outDir, view+".csv")
		if err := writeGrid(target, grid); err != nil {
			return err
		}
		log.Info().Str("view", view).Int("rows", len(grid.Rows)).Str("file", target).Msg("view exported")
	}
	return nil
}

func writeGrid(path string, grid export.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, grid); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
