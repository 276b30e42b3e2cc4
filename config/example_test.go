package config_test

import (
	"context"
	"fmt"
	"log"

	"github.com/abdoelhafi/file-loader-app/config"
)

func ExampleLoad() {
	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, Storage: %s\n", cfg.Server.Port, cfg.Storage.Backend)
	// Output: Port: 8000, Storage: filesystem
}

func ExampleWithContext() {
	cfg, _ := config.Load(nil, nil)

	ctx := config.WithContext(context.Background(), cfg)

	retrieved, err := config.FromContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Retrieved table: %s\n", retrieved.Database.Tables.Uploads)
	// Output: Retrieved table: file_uploads
}
