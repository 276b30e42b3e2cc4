package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/config"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Remove stored objects that have no upload record",
	Long: `Compare the object store with the uploads table.

A crash between writing an object and committing its record leaves an
object nothing refers to. This command lists the store and deletes such
objects once they are older than the grace period (service.reconcile_grace,
default one hour), so uploads still in flight are left alone. Only keys of
the form <uuid>.<ext> are considered; other objects in the bucket are ignored.

Records whose object is missing from the store are reported. With
--prune-records those rows are deleted as well.

Examples:
  # Report what would be removed
  fileloader reconcile --dry-run

  # Delete orphans older than ten minutes and prune dangling records
  fileloader reconcile --grace 10m --prune-records`,
	RunE: runReconcile,
}

var (
	reconcileDryRun bool
	reconcilePrune  bool
	reconcileJSON   bool
)

func init() {
	reconcileCmd.Flags().BoolVarP(&reconcileDryRun, "dry-run", "n", false, "report without deleting")
	reconcileCmd.Flags().BoolVar(&reconcilePrune, "prune-records", false, "delete records whose object is missing")
	reconcileCmd.Flags().Duration("grace", 0, "skip objects modified within this duration (overrides service.reconcile_grace)")
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	grace := cfg.Service.ReconcileGraceDuration()
	if cmd.Flags().Changed("grace") {
		grace, _ = cmd.Flags().GetDuration("grace")
	}

	slog.Info("starting reconcile", "grace", grace, "dry_run", reconcileDryRun, "prune_records", reconcilePrune)

	report, err := a.service.Reconcile(ctx, fileloader.ReconcileOptions{
		Grace:        grace,
		DryRun:       reconcileDryRun,
		PruneRecords: reconcilePrune,
	})
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}

	if reconcileJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, key := range report.OrphanObjects {
		slog.Info("orphan object", "key", key)
	}
	for _, id := range report.MissingObjects {
		slog.Warn("record without object", "id", id)
	}

	slog.Info("reconcile complete",
		"orphan_objects", len(report.OrphanObjects),
		"deleted_objects", report.DeletedObjects,
		"missing_objects", len(report.MissingObjects),
		"deleted_records", report.DeletedRecords,
	)
	return nil
}
