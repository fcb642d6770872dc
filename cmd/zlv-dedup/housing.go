package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/repositories/housing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/audit"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/processor"
)

var housingCommit bool

var housingCmd = &cobra.Command{
	Use:   "housing",
	Short: "Merge yearly housing snapshots into canonical rows",
	Long:  "Streams housing snapshots grouped by normalized local id and folds each group temporally, youngest snapshot first. With --commit, canonical rows are upserted and consumed snapshots deleted.",
	RunE:  runHousing,
}

func init() {
	housingCmd.Flags().BoolVar(&housingCommit, "commit", false, "Apply merged rows to the database")
	rootCmd.AddCommand(housingCmd)
}

func runHousing(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	if cmd.Flags().Changed("commit") {
		rt.cfg.Commit = housingCommit
	}

	housingRepo := housing.NewRepository(rt.db, rt.logger)
	proc := processor.NewHousingProcessor(housingRepo, rt.emitter, rt.logger, rt.cfg.Commit)

	report, runErr := proc.Run(ctx)

	if err := audit.WriteReport(filepath.Join(rt.cfg.OutputDir, "housing-report.json"), report); err != nil {
		rt.logger.WithContext(ctx).WithError(err).Error("Failed to write report")
	}

	rt.logger.WithContext(ctx).WithFields(map[string]any{
		"groups":    report.Groups,
		"snapshots": report.Snapshots,
		"merged":    report.Merged,
		"failed":    report.Failed,
		"commit":    rt.cfg.Commit,
	}).Info("Housing merge run finished")

	if runErr != nil {
		return fmt.Errorf("housing merge run failed: %w", runErr)
	}
	return nil
}
