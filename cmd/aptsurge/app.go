package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"aptsurge/server/config"
	"aptsurge/server/internal/database"
	"aptsurge/server/internal/ingest"
	"aptsurge/server/internal/storage"
)

const (
	backendJSON   = "json"
	backendSQLite = "sqlite"
)

// stores holds the partition backend and the document store
type stores struct {
	partitions ingest.PartitionStore
	files      *storage.FileStore
	close      func() error
}

// openStores selects the partition backend; documents and history artifacts always live under DATA_DIR
func openStores(cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	files := storage.NewFileStore(cfg.Paths.DataDir, cfg.Paths.PublicPrefix, logger)

	switch cfg.Paths.StoreBackend {
	case "", backendJSON:
		return &stores{partitions: files, files: files, close: func() error { return nil }}, nil
	case backendSQLite:
		db, err := database.NewDatabase(cfg.Paths.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		logger.Info("Running database migrations...")
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.WithField("path", cfg.Paths.DatabasePath).Info("Using SQLite partition store")
		return &stores{partitions: db, files: files, close: db.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Paths.StoreBackend)
	}
}
