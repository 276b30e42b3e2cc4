package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	server     string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "fileloader-cli",
	Version: version,
	Short:   "Client for the fileloader upload service",
	Long: `fileloader-cli talks to a fileloader server over HTTP.

The server is chosen from, in increasing precedence: the default profile in
~/.fileloader/config.yaml, the profile named by --profile or
FILELOADER_PROFILE, FILELOADER_SERVER, and --server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.fileloader/config.yaml, env: FILELOADER_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: FILELOADER_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:8000, env: FILELOADER_SERVER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getConfigPath() string {
	return clientcli.ConfigPath(cfgFile)
}

// buildConfig resolves the server from the profile file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	return clientcli.Resolve(cfgFile, profile, server)
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// reportError prints err through the formatter on stderr and returns it.
func reportError(err error) error {
	_ = getFormatter().FormatError(os.Stderr, err)
	return err
}

// errPartial is returned when some items in a batch failed; the per-item
// errors have already been printed.
var errPartial = errors.New("one or more operations failed")

func partialError(n int) error {
	return fmt.Errorf("%w: %d failed", errPartial, n)
}
