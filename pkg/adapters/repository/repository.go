// Package repository picks the storage adapter named by the configured database URL.
package repository

import (
	"fmt"

	"github.com/wadjakorntonsri/linkboard/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/linkboard/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/linkboard/pkg/config"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
)

// Open returns the in-memory store for memory:// and SQLite (or libsql) otherwise.
func Open(cfg *config.Config) (ports.LinkRepository, error) {
	if cfg.InMemory() {
		return memory.NewRepository(), nil
	}

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("repository.Open: %w", err)
	}
	return repo, nil
}
