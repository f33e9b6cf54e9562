package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/payload-plugins/catalog/internal/config"
	"github.com/payload-plugins/catalog/internal/gh"
	"github.com/payload-plugins/catalog/internal/npm"
	"github.com/payload-plugins/catalog/internal/plugin"
	"github.com/payload-plugins/catalog/internal/snapshot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	cmd := &cobra.Command{
		Use:     "catalog-update",
		Short:   "Rebuild the Payload plugin catalog dataset",
		Version: version,
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(log); err != nil {
				log.Errorf("ERROR: %v", err)
				os.Exit(1)
			}
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	log.Infof("starting catalog-update (version=%s)", version)

	cfg, err := config.NewPipelineConfigFromEnv()
	if err != nil {
		return err
	}
	cfg.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ghClient := gh.NewClient(cfg.CreateGitHubClient(log), nil, log)
	rawClient := gh.NewRawClient("")
	npmClient := npm.NewClient(log, "", "")

	pipeline := plugin.New(cfg, log, ghClient, rawClient, npmClient)
	data, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	writer := snapshot.NewWriter(cfg.OutputPath, log)
	if cfg.HasSnapshotUpload() {
		storage, s3Err := cfg.CreateS3Client()
		if s3Err != nil {
			return s3Err
		}
		writer = writer.WithUpload(storage, cfg.GetBucket(), cfg.SnapshotObjectKey)
	}
	if err := writer.Write(ctx, data); err != nil {
		return err
	}

	log.Infof("catalog update finished: %d plugins", data.Total)
	return nil
}
