package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	getContentOnly bool
	getOutput      string
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an upload and its content",
	Long: `Show an upload's details and content.

Examples:
  fileloader-cli get 7f1c2a8e-3f7b-4c1e-9a55-0a9f3b6d2c11
  fileloader-cli get --content <id> > notes.txt
  fileloader-cli get -o notes.txt <id>`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getContentOnly, "content", false, "print only the file content")
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "write the content to a local file")
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	file, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		return reportError(err)
	}

	if getOutput != "" {
		if err := os.WriteFile(getOutput, []byte(file.Content), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", getOutput, err)
		}
		if !quiet {
			fmt.Printf("Saved: %s -> %s\n", file.Name, getOutput)
		}
		return nil
	}

	return getFormatter().FormatFile(os.Stdout, file, getContentOnly)
}
