package catalog

import (
	"context"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Finder runs filtered, ordered, limited reads against the catalog
type Finder interface {
	Find(ctx context.Context, pred Predicate, sort []SortTerm, limit int) ([]songs.Song, error)
}

// Store is the catalog persistence contract. Create and UpdateByID return
// ErrConflict when a unique field collides. UpdateByID, DeleteByID, GetByID
// and IncrementPlayCount return ErrNotFound for unknown ids. SampleOne returns
// nil when nothing matches.
type Store interface {
	Finder
	Create(ctx context.Context, s songs.NewSong) (songs.Song, error)
	GetByID(ctx context.Context, id int64) (songs.Song, error)
	UpdateByID(ctx context.Context, id int64, p songs.Patch) (songs.Song, error)
	DeleteByID(ctx context.Context, id int64) (songs.Song, error)
	IncrementPlayCount(ctx context.Context, id int64) (songs.Song, error)
	SampleOne(ctx context.Context, pred Predicate) (*songs.Song, error)
	// KnownExternalIDs reports which of the given blob ids are referenced
	// by a song.
	KnownExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error)
}
