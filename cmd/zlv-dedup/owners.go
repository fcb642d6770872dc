package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/repositories/event"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/repositories/note"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/repositories/owner"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/repositories/ownerhousing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/audit"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/matching"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/merging"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/processor"
)

var ownersCommit bool

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Find and merge duplicate owner records",
	Long:  "Streams every owner in blocking-key order, scores candidates sharing the same full name, and writes duplicates.json and report.json. With --commit, accepted merges are applied to the database.",
	RunE:  runOwners,
}

func init() {
	ownersCmd.Flags().BoolVar(&ownersCommit, "commit", false, "Apply accepted merges to the database")
	rootCmd.AddCommand(ownersCmd)
}

func runOwners(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	if cmd.Flags().Changed("commit") {
		rt.cfg.Commit = ownersCommit
	}

	sink, err := audit.NewFileSink(filepath.Join(rt.cfg.OutputDir, "duplicates.json"))
	if err != nil {
		return err
	}

	ownerRepo := owner.NewRepository(rt.db, rt.logger)
	linkRepo := ownerhousing.NewRepository(rt.db, rt.logger)
	eventRepo := event.NewRepository(rt.db, rt.logger)
	noteRepo := note.NewRepository(rt.db, rt.logger)

	classifier := matching.NewClassifier(rt.cfg.ReviewThreshold, rt.cfg.MatchThreshold)
	finder := matching.NewFinder(ownerRepo, matching.NewScorer())
	committer := merging.NewCommitter(ownerRepo, linkRepo, eventRepo, noteRepo, rt.logger)

	proc := processor.NewOwnerProcessor(
		ownerRepo, finder, classifier, committer,
		sink, rt.emitter, rt.logger, rt.cfg.Commit,
	)

	report, runErr := proc.Run(ctx)

	// Flush artifacts before deciding the exit code: operators get a report
	// even when the stream died.
	if err := sink.Flush(); err != nil {
		rt.logger.WithContext(ctx).WithError(err).Error("Failed to flush audit sink")
	}
	if err := sink.Close(); err != nil {
		rt.logger.WithContext(ctx).WithError(err).Error("Failed to close audit sink")
	}
	if err := audit.WriteReport(filepath.Join(rt.cfg.OutputDir, "report.json"), report); err != nil {
		rt.logger.WithContext(ctx).WithError(err).Error("Failed to write report")
	}

	rt.logger.WithContext(ctx).WithFields(map[string]any{
		"overall":     report.Overall,
		"match":       report.Match,
		"non_match":   report.NonMatch,
		"need_review": report.NeedReview,
		"mean_score":  report.Score.Mean,
		"commit":      rt.cfg.Commit,
	}).Info("Owner dedup run finished")

	if runErr != nil {
		return fmt.Errorf("owner dedup run failed: %w", runErr)
	}
	return nil
}
