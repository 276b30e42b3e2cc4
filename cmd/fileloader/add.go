package main

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/config"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local files as uploads",
	Long: `Import local text files without going through the HTTP API.

Each file passes the same validation as an HTTP upload: size between
0.5KB and 2KB, a .txt name, UTF-8 content and no embedded SQL or script
markup. The media type is derived from the file extension unless --type
is given.

Examples:
  # Add a single file
  fileloader add notes.txt

  # Keep going past rejected files
  fileloader add --continue-on-error *.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addMediaType       string
	addContinueOnError bool
	addQuiet           bool
)

func init() {
	addCmd.Flags().StringVarP(&addMediaType, "type", "t", "", "media type to record (default: from extension)")
	addCmd.Flags().BoolVarP(&addContinueOnError, "continue-on-error", "k", false, "log rejected files and continue")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
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

	added := 0
	failed := 0

	for _, path := range args {
		record, addErr := addFile(cmd, a.service, path)
		if addErr != nil {
			if !addContinueOnError {
				return fmt.Errorf("add %s: %w", path, addErr)
			}
			failed++
			slog.Warn("rejected", "path", path, "err", addErr)
			continue
		}

		added++
		if !addQuiet {
			slog.Info("added", "path", path, "id", record.ID, "url", record.ObjectURL)
		}
	}

	slog.Info("add complete", "added", added, "failed", failed)
	return nil
}

func addFile(cmd *cobra.Command, service *fileloader.UploadService, path string) (fileloader.UploadRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileloader.UploadRecord{}, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fileloader.UploadRecord{}, err
	}
	if info.IsDir() {
		return fileloader.UploadRecord{}, fmt.Errorf("%s is a directory", path)
	}

	mediaType := addMediaType
	if mediaType == "" {
		mediaType = detectMediaType(path)
	}

	return service.Create(cmd.Context(), fileloader.NewUpload{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Size:      info.Size(),
		Content:   f,
	})
}

// detectMediaType determines the media type from a file's extension, without
// parameters such as charset.
func detectMediaType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}
