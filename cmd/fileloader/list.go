package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/config"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploads, newest first",
	Long: `List upload records straight from the database, newest first.

Examples:
  # First 100 uploads
  fileloader list

  # Every upload as JSON
  fileloader list --all --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listLimit  int
	listCursor string
	listAll    bool
	listJSON   bool
)

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "maximum records per page (1-1000)")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "continue from a previous page")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "follow cursors until every record is listed")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	var items []fileloader.UploadRecord
	cursor := listCursor

	for {
		result, err := a.service.List(ctx, fileloader.ListQuery{Limit: listLimit, Cursor: cursor})
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		items = append(items, result.Items...)
		cursor = result.NextCursor

		if !listAll || cursor == "" {
			break
		}
	}

	if listJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fileloader.ListResult{Items: items, NextCursor: cursor})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSIZE (KB)\tUPLOADED")
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.3f\t%s\n",
			item.ID, item.Name, item.SizeKB, item.CreatedAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if cursor != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nmore results: --cursor %s\n", cursor)
	}
	return nil
}
