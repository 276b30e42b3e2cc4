package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/clientcli"
)

var (
	listLimit  int
	listAll    bool
	listCursor string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploads on the server",
	Long: `List uploads, newest first.

Examples:
  fileloader-cli list
  fileloader-cli list --limit 10
  fileloader-cli list --all
  fileloader-cli list --cursor "MjAyNC0wNS0wMVQxMjowMDowMC4wMDBa..."`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "max results per page (max: 1000)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch all pages")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "pagination cursor")
}

func runList(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{
		Limit:  listLimit,
		Cursor: listCursor,
		All:    listAll,
	})
	if err != nil {
		return reportError(err)
	}

	return getFormatter().FormatList(os.Stdout, result)
}
