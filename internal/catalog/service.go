package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/songs-service/internal/metrics"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// BlobDeleter releases remote artifacts
type BlobDeleter interface {
	Delete(ctx context.Context, externalID, resourceType string) error
}

// ListParams are the raw list/search parameters as received from a client
type ListParams struct {
	Limit     int
	SortBy    string
	SortOrder string
	Cursor    string
	Query     string
	Genre     string
	Tags      []string
}

// ListResult is one page of songs with its continuation token
type ListResult struct {
	Songs      []songs.Song `json:"songs"`
	NextCursor string       `json:"next_cursor,omitempty"`
	HasMore    bool         `json:"has_more"`
}

// DeleteResult reports a removed song and whether its blob was released
type DeleteResult struct {
	Song         songs.Song `json:"song"`
	BlobReleased bool       `json:"blob_released"`
}

// Service exposes catalog reads and single-song mutations
type Service struct {
	store        Store
	blobs        BlobDeleter
	resourceType string
	logger       *slog.Logger
}

// NewService creates a catalog service. resourceType is the blob resource
// type songs are uploaded with.
func NewService(store Store, blobs BlobDeleter, resourceType string, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		blobs:        blobs,
		resourceType: resourceType,
		logger:       logger.With(slog.String("component", "catalog_service")),
	}
}

// ParseQuery resolves raw parameters into a typed query and limit
func ParseQuery(p ListParams) (Query, int, error) {
	key, err := ParseSortKey(p.SortBy)
	if err != nil {
		return Query{}, 0, err
	}
	order, err := ParseSortOrder(p.SortOrder)
	if err != nil {
		return Query{}, 0, err
	}
	genre, err := ParseGenre(p.Genre)
	if err != nil {
		return Query{}, 0, err
	}
	tags, err := ParseTags(p.Tags)
	if err != nil {
		return Query{}, 0, err
	}

	q := Query{
		Sort:  Sort{Key: key, Order: order},
		Text:  p.Query,
		Genre: genre,
		Tags:  tags,
	}
	if p.Cursor != "" {
		c, err := DecodeCursor(p.Cursor)
		if err != nil {
			return Query{}, 0, err
		}
		q.Cursor = &c
	}

	limit := p.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	return q, limit, nil
}

// List returns one page of the catalog, optionally narrowed by free text and
// facets. Songs inserted between two page fetches may or may not show up on
// later pages depending on where their sort value falls relative to the
// cursor.
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	start := time.Now()

	q, limit, err := ParseQuery(p)
	if err != nil {
		return nil, err
	}
	pred, err := BuildPredicate(q)
	if err != nil {
		return nil, err
	}

	page, err := Paginate(ctx, s.store, pred, q.Sort, limit)
	observe("list", start, err)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Songs: page.Items, HasMore: page.HasMore}
	if result.Songs == nil {
		result.Songs = []songs.Song{}
	}
	if page.Next != nil {
		token, err := EncodeCursor(*page.Next)
		if err != nil {
			return nil, fmt.Errorf("failed to encode next cursor: %w", err)
		}
		result.NextCursor = token
	}

	s.logger.Debug("Catalog page served",
		slog.String("sort_by", q.Sort.Key.Name()),
		slog.String("sort_order", string(q.Sort.Order)),
		slog.Int("returned", len(result.Songs)),
		slog.Bool("has_more", result.HasMore),
	)
	return result, nil
}

// Get returns a song by id
func (s *Service) Get(ctx context.Context, id int64) (songs.Song, error) {
	start := time.Now()
	song, err := s.store.GetByID(ctx, id)
	observe("get", start, err)
	return song, err
}

// Random returns a random song having the genre or any of the tags, or nil
// when nothing matches.
func (s *Service) Random(ctx context.Context, genre string, tags []string) (*songs.Song, error) {
	g, err := ParseGenre(genre)
	if err != nil {
		return nil, err
	}
	t, err := ParseTags(tags)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	song, err := Sample(ctx, s.store, g, t)
	observe("sample", start, err)
	return song, err
}

// Update changes the editable fields of a song owned by ownerID
func (s *Service) Update(ctx context.Context, id int64, ownerID string, p songs.Patch) (songs.Song, error) {
	if err := s.authorize(ctx, id, ownerID); err != nil {
		return songs.Song{}, err
	}
	if p.Genre != nil && !p.Genre.Valid() {
		return songs.Song{}, invalid("genre", "unknown genre %q", *p.Genre)
	}
	if p.Tags != nil {
		for _, t := range *p.Tags {
			if !t.Valid() {
				return songs.Song{}, invalid("tags", "unknown tag %q", t)
			}
		}
	}

	start := time.Now()
	song, err := s.store.UpdateByID(ctx, id, p)
	observe("update", start, err)
	if err != nil {
		return songs.Song{}, err
	}
	s.logger.Info("Song updated", slog.Int64("song_id", id))
	return song, nil
}

// Play increments the play counter of a song
func (s *Service) Play(ctx context.Context, id int64) (songs.Song, error) {
	start := time.Now()
	song, err := s.store.IncrementPlayCount(ctx, id)
	observe("play", start, err)
	return song, err
}

// Delete removes a song owned by ownerID, then releases its blob. A failed
// release is logged and reported through BlobReleased; the catalog row stays
// deleted.
func (s *Service) Delete(ctx context.Context, id int64, ownerID string) (*DeleteResult, error) {
	if err := s.authorize(ctx, id, ownerID); err != nil {
		return nil, err
	}

	start := time.Now()
	song, err := s.store.DeleteByID(ctx, id)
	observe("delete", start, err)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{Song: song, BlobReleased: true}
	if err := s.blobs.Delete(ctx, song.StorageRef.ExternalID, s.resourceType); err != nil {
		result.BlobReleased = false
		metrics.BlobReleaseFailures.Inc()
		s.logger.Error("Failed to release blob of deleted song",
			slog.Int64("song_id", id),
			slog.String("external_id", song.StorageRef.ExternalID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("Song deleted",
		slog.Int64("song_id", id),
		slog.Bool("blob_released", result.BlobReleased),
	)
	return result, nil
}

func (s *Service) authorize(ctx context.Context, id int64, ownerID string) error {
	song, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if song.OwnerID != ownerID {
		return ErrForbidden
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case errors.Is(err, ErrConflict):
		status = "conflict"
	case IsValidation(err):
		status = "invalid"
	default:
		status = "error"
	}
	metrics.CatalogQueriesTotal.WithLabelValues(op, status).Inc()
	metrics.CatalogQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
