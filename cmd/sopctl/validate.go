package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline/supply"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/workbook"
	"github.com/urfave/cli/v2"
)

func runValidate(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected at least one workbook or directory")
	}

	var files []string
	for _, arg := range c.Args().Slice() {
		found, err := collectWorkbooks(arg)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", workbook.ErrNoWorkbook, c.Args().Slice())
	}

	p := newPipeline(c)
	cfg := pipeline.DefaultPipelineConfig(p.Name())
	cfg.WorkerCount = c.Int("workers")

	jobs, runErr := pipeline.NewRunner(p, cfg).Run(c.Context, files)
	for _, job := range jobs {
		switch job.Status {
		case pipeline.FileStatusCompleted:
			fmt.Printf("OK    %s (%d rows, %d notices)\n", job.FilePath, job.Rows, len(job.Notices))
			for _, n := range job.Notices {
				fmt.Printf("      [%s] %s\n", n.Level, n.Message)
			}
		case pipeline.FileStatusFailed:
			fmt.Printf("FAIL  %s\n", job.FilePath)
			if se, ok := supply.IsSchemaError(job.Err); ok {
				for _, m := range se.Missing {
					fmt.Printf("      missing: %s\n", m)
				}
			} else if job.Err != nil {
				fmt.Printf("      %v\n", job.Err)
			}
		default:
			fmt.Printf("SKIP  %s\n", job.FilePath)
		}
	}
	return runErr
}

// collectWorkbooks expands a directory into the workbooks below it.
func collectWorkbooks(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	files := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if workbook.IsWorkbook(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
