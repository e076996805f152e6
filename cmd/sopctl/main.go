package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline/supply"
	"github.com/andresuchdata/sop-dashboard/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func newHeaderScanFlag(cfg *config.Config) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "header-scan-rows",
		Usage:   "Number of leading rows searched for the header row",
		Value:   cfg.App.HeaderScanRows,
		EnvVars: []string{"APP_HEADER_SCAN_ROWS"},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "period", Usage: "Keep only these months (YYYY-MM)"},
		&cli.StringSliceFlag{Name: "origin", Usage: "Keep only these origins"},
		&cli.StringSliceFlag{Name: "material", Usage: "Keep only these materials"},
		&cli.StringFlag{Name: "state", Usage: "Keep only one coverage state (critical, low, healthy, no_data)"},
	}
}

func filterFromFlags(c *cli.Context) (domain.Filter, error) {
	var filter domain.Filter
	for _, p := range c.StringSlice("period") {
		t, err := domain.ParseMonth(strings.TrimSpace(p))
		if err != nil {
			return filter, err
		}
		filter.Periods = append(filter.Periods, t)
	}
	filter.Origins = c.StringSlice("origin")
	filter.Materials = c.StringSlice("material")
	if s := c.String("state"); s != "" {
		state, ok := domain.ParseCoverageState(s)
		if !ok {
			return filter, fmt.Errorf("unknown coverage state %q", s)
		}
		filter.State = state
	}
	return filter, nil
}

func newPipeline(c *cli.Context) *supply.Pipeline {
	return supply.NewPipeline(supply.Config{HeaderScanRows: c.Int("header-scan-rows")})
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)

	app := &cli.App{
		Name:  "sopctl",
		Usage: "Inspect, validate, export and fetch supply-planning workbooks",
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Show how each sheet of a workbook is read",
				ArgsUsage: "<workbook>",
				Flags:     []cli.Flag{newHeaderScanFlag(cfg)},
				Action:    runInspect,
			},
			{
				Name:      "validate",
				Usage:     "Process workbooks and report schema problems",
				ArgsUsage: "<workbook|dir>...",
				Flags: []cli.Flag{
					newHeaderScanFlag(cfg),
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Number of workbooks processed concurrently",
						Value:   runtime.NumCPU(),
						EnvVars: []string{"PIPELINE_WORKERS"},
					},
				},
				Action: runValidate,
			},
			{
				Name:      "export",
				Usage:     "Write dashboard views of a workbook as CSV",
				ArgsUsage: "<workbook>",
				Flags: append([]cli.Flag{
					newHeaderScanFlag(cfg),
					&cli.StringSliceFlag{
						Name:  "view",
						Usage: "View to export; repeat for several. Defaults to every view",
					},
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "Directory for the CSV files; '-' writes a single view to stdout",
						Value: "./data/exports",
					},
				}, filterFlags()...),
				Action: runExport,
			},
			{
				Name:  "sync",
				Usage: "Fetch workbooks into the data directory",
				Subcommands: []*cli.Command{
					s3Command(cfg),
					driveCommand(cfg),
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("sopctl failed")
	}
}
