package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/config"
	"github.com/mamadbah2/scantrak/internal/repository/mongodb"
	"github.com/mamadbah2/scantrak/pkg/logger"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scantrakctl",
		Short: "Admin tooling for ScanTrak submitted records",
		Long: `scantrakctl reads the records submitted through ScanTrak.

It exports them to YAML, Parquet or JSON lines, inspects Parquet exports,
and sends the submission digest on demand.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "load configuration from this .env file")

	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newDigestCmd(opts))
	cmd.AddCommand(newInspectCmd())

	return cmd
}

// environment is what the store-backed commands share.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   *mongodb.MongoDBRepository
	loc    *time.Location
}

func (o *rootOptions) open(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	if cfg.MongoDB.URI == "" {
		return nil, errors.New("MONGODB_URI must be set: the in-memory store is not shared with the server")
	}

	log, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}

	repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB, cfg.App.Path, log.Named("repo.mongodb"))
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, logger: log, repo: repo, loc: loc}, nil
}

func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.repo.Close(ctx); err != nil {
		e.logger.Warn("failed to close mongodb connection", zap.Error(err))
	}
	_ = e.logger.Sync()
}
