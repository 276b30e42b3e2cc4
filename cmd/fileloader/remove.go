package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/config"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <id1> [id2] ...",
	Short: "Delete uploads and their stored objects",
	Long: `Delete uploads by id.

The stored object is removed first and the record second, so a failed
object delete leaves the record in place for a retry.

Examples:
  # Remove a single upload
  fileloader remove 7f1c2a8e-3f7b-4c1e-9a55-0a9f3b6d2c11

  # Remove quietly (suppress per-upload output)
  fileloader remove -q <id1> <id2>`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var removeQuiet bool

func init() {
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-upload output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := uuid.Parse(arg)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}

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

	removed := 0
	notFound := 0

	for _, id := range ids {
		deleteErr := a.service.Delete(ctx, id)
		if errors.Is(deleteErr, fileloader.ErrNotFound) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "id", id)
			}
			continue
		}
		if deleteErr != nil {
			return fmt.Errorf("remove %s: %w", id, deleteErr)
		}
		removed++
		if !removeQuiet {
			slog.Info("removed", "id", id)
		}
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}
