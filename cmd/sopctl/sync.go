package main

import (
	"fmt"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/drive"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func s3Command(cfg *config.Config) *cli.Command {
	prefix := &cli.StringFlag{
		Name:    "prefix",
		Usage:   "Object key prefix holding the workbooks",
		Value:   cfg.Storage.Prefix,
		EnvVars: []string{"STORAGE_PREFIX"},
	}

	return &cli.Command{
		Name:  "s3",
		Usage: "Move workbooks between an S3-compatible bucket and the data directory",
		Subcommands: []*cli.Command{
			{
				Name:  "pull",
				Usage: "Download workbooks under the prefix",
				Flags: []cli.Flag{
					prefix,
					&cli.StringFlag{Name: "key", Usage: "Download only this object (relative to the prefix)"},
					&cli.StringFlag{Name: "dest", Usage: "Destination directory", Value: cfg.App.DataDir},
				},
				Action: func(c *cli.Context) error {
					client, err := storage.NewS3Client(cfg.Storage)
					if err != nil {
						return err
					}
					paths, err := storage.PullWorkbooks(c.Context, client, c.String("prefix"), c.String("key"), c.String("dest"))
					if err != nil {
						return err
					}
					log.Info().Int("files", len(paths)).Str("dest", c.String("dest")).Msg("s3 pull completed")
					return nil
				},
			},
			{
				Name:      "push",
				Usage:     "Upload a workbook under the prefix",
				ArgsUsage: "<workbook>",
				Flags:     []cli.Flag{prefix},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected exactly one workbook, got %d", c.NArg())
					}
					client, err := storage.NewS3Client(cfg.Storage)
					if err != nil {
						return err
					}
					key, err := storage.PushWorkbook(c.Context, client, c.String("prefix"), c.Args().First())
					if err != nil {
						return err
					}
					fmt.Println(key)
					return nil
				},
			},
		},
	}
}

func driveCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "drive",
		Usage: "Download workbooks from a Google Drive folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "credentials",
				Usage:   "Service account key file or JSON",
				Value:   cfg.Drive.CredentialsFile,
				EnvVars: []string{"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_DRIVE_CREDENTIALS_JSON"},
			},
			&cli.StringFlag{Name: "folder-id", Value: cfg.Drive.FolderID, EnvVars: []string{"DRIVE_FOLDER_ID"}},
			&cli.StringFlag{Name: "folder-path", Usage: "Folder path from My Drive, used when no folder id is set", Value: cfg.Drive.FolderPath, EnvVars: []string{"DRIVE_FOLDER_PATH"}},
			&cli.StringFlag{Name: "dest", Usage: "Destination directory", Value: cfg.App.DataDir},
		},
		Action: func(c *cli.Context) error {
			if c.String("credentials") == "" {
				return fmt.Errorf("drive credentials are required")
			}
			svc, err := drive.NewService(c.Context, c.String("credentials"))
			if err != nil {
				return fmt.Errorf("failed to create Drive service: %w", err)
			}

			folderID := c.String("folder-id")
			if folderID == "" {
				folderID, err = svc.FindFolderByPath(c.Context, c.String("folder-path"))
				if err != nil {
					return err
				}
			}

			log.Info().Str("folder_id", folderID).Str("dest", c.String("dest")).Msg("downloading workbooks from Drive")
			paths, err := drive.NewDownloader(svc).DownloadWorkbooks(c.Context, drive.DownloadOptions{
				FolderID:    folderID,
				DownloadDir: c.String("dest"),
			})
			if err != nil {
				return fmt.Errorf("failed to download files from Drive: %w", err)
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
}
