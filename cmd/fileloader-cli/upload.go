package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/clientcli"
)

var uploadContentType string

var uploadCmd = &cobra.Command{
	Use:   "upload <file> [file...]",
	Short: "Upload text files to the server",
	Long: `Upload one or more .txt files.

The server accepts UTF-8 text/plain files between 0.5KB and 2KB and rejects
content with embedded SQL statements or script markup.

Examples:
  fileloader-cli upload notes.txt
  fileloader-cli upload -q a.txt b.txt
  fileloader-cli upload --content-type text/plain README.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		Paths:       args,
		ContentType: uploadContentType,
	})
	if err != nil {
		return reportError(err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return partialError(failed)
	}
	return nil
}
