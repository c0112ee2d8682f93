package main

import (
	"fmt"

	"github.com/dearlyhq/dearly/pkg/dearly/config"
	"github.com/dearlyhq/dearly/pkg/dearly/container"
	"github.com/dearlyhq/dearly/pkg/dearly/store"
)

// env bundles the loaded config, the open stores, and the container
// service for one command invocation.
type env struct {
	cfg     *config.Config
	records *store.Records
	blobs   *store.Blobs
	service *container.Service
}

// openEnv loads config and opens the stores. Callers must defer
// e.close().
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	records, err := store.OpenRecords(cfg.Store.RecordsPath)
	if err != nil {
		return nil, err
	}
	blobs, err := store.NewBlobs(cfg.Store.BlobsPath)
	if err != nil {
		_ = records.Close()
		return nil, err
	}

	service := container.New(records, blobs,
		container.WithJPEGQuality(cfg.Export.JPEGQuality))
	return &env{cfg: cfg, records: records, blobs: blobs, service: service}, nil
}

// close releases the stores.
func (e *env) close() {
	_ = e.records.Close()
}
