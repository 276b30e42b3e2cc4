// Package clientcli provides a client library for the file loader HTTP API.
//
// It supports upload, get, list and delete operations, and profile-based
// configuration for managing connections to multiple servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8000"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		Paths: []string{"./notes.txt"},
//	})
//
// Server rejections come back as *APIError and match the sentinels with errors.Is:
//
//	if errors.Is(results[0].Err, clientcli.ErrBadRequest) { ... }
//
// # Profile Configuration
//
// Profiles live in ~/.fileloader/config.yaml. Resolve picks the endpoint from
// the profile file, FILELOADER_SERVER and an explicit server value:
//
//	cfg, err := clientcli.Resolve("", "production", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
