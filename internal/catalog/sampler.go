package catalog

import (
	"context"
	"fmt"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Sampler picks random songs
type Sampler interface {
	SampleOne(ctx context.Context, pred Predicate) (*songs.Song, error)
}

// Sample draws one song having the genre or any of the tags. With no facets
// any song may be returned. A nil song means nothing matched.
func Sample(ctx context.Context, s Sampler, genre songs.Genre, tags []songs.Tag) (*songs.Song, error) {
	song, err := s.SampleOne(ctx, FacetPredicate(genre, tags))
	if err != nil {
		return nil, fmt.Errorf("failed to sample catalog: %w", err)
	}
	return song, nil
}
