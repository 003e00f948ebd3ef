package storage

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/storage/memory"
	"github.com/princekumarofficial/songs-service/internal/storage/postgres"
)

// Storage is a catalog store that holds resources until closed
type Storage interface {
	catalog.Store
	io.Closer
}

type memoryStorage struct {
	*memory.Memory
}

func (memoryStorage) Close() error { return nil }

// New opens the catalog backend selected by cfg.CatalogBackend
func New(cfg *config.Config) (Storage, error) {
	switch cfg.CatalogBackend {
	case "", config.BackendPostgres:
		pg, err := postgres.NewPostgres(cfg)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.BackendMemory:
		slog.Warn("Using in-memory catalog, songs are lost on restart")
		return memoryStorage{memory.New()}, nil
	}
	return nil, fmt.Errorf("unknown catalog backend %q", cfg.CatalogBackend)
}
