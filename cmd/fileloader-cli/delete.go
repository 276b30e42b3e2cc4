package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id> [id...]",
	Aliases: []string{"rm"},
	Short:   "Delete uploads from the server",
	Long: `Delete uploads by id. The stored object and the record are both removed.

Examples:
  fileloader-cli delete 7f1c2a8e-3f7b-4c1e-9a55-0a9f3b6d2c11
  fileloader-cli list -q | xargs fileloader-cli delete`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{IDs: args})
	if err != nil {
		return reportError(err)
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		failed := 0
		for i := range results {
			if results[i].Err != nil {
				failed++
			}
		}
		return partialError(failed)
	}
	return nil
}
