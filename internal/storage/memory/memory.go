package memory

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Memory is an in-process catalog store. It enforces the same unique title
// constraint as the Postgres schema.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	songs  map[int64]songs.Song
	titles map[string]int64
	now    func() time.Time
}

// New creates an empty store
func New() *Memory {
	return &Memory{
		songs:  make(map[int64]songs.Song),
		titles: make(map[string]int64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for created_at and updated_at
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Create inserts a song. A duplicate title returns catalog.ErrConflict.
func (m *Memory) Create(_ context.Context, s songs.NewSong) (songs.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.titles[s.Title]; exists {
		return songs.Song{}, fmt.Errorf("title %q: %w", s.Title, catalog.ErrConflict)
	}

	m.nextID++
	now := m.now()
	song := songs.Song{
		ID:              m.nextID,
		Title:           s.Title,
		Artist:          s.Artist,
		DurationSeconds: s.DurationSeconds,
		StorageRef:      s.StorageRef,
		OwnerID:         s.OwnerID,
		Genre:           s.Genre,
		Tags:            songs.NormalizeTags(s.Tags),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.songs[song.ID] = song
	m.titles[song.Title] = song.ID
	return clone(song), nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (songs.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	song, ok := m.songs[id]
	if !ok {
		return songs.Song{}, catalog.ErrNotFound
	}
	return clone(song), nil
}

func (m *Memory) UpdateByID(_ context.Context, id int64, p songs.Patch) (songs.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	song, ok := m.songs[id]
	if !ok {
		return songs.Song{}, catalog.ErrNotFound
	}
	if p.Title != nil && *p.Title != song.Title {
		if _, taken := m.titles[*p.Title]; taken {
			return songs.Song{}, fmt.Errorf("title %q: %w", *p.Title, catalog.ErrConflict)
		}
		delete(m.titles, song.Title)
		song.Title = *p.Title
		m.titles[song.Title] = id
	}
	if p.Artist != nil {
		song.Artist = *p.Artist
	}
	if p.Genre != nil {
		song.Genre = *p.Genre
	}
	if p.Tags != nil {
		song.Tags = songs.NormalizeTags(*p.Tags)
	}
	song.UpdatedAt = m.now()
	m.songs[id] = song
	return clone(song), nil
}

func (m *Memory) DeleteByID(_ context.Context, id int64) (songs.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	song, ok := m.songs[id]
	if !ok {
		return songs.Song{}, catalog.ErrNotFound
	}
	delete(m.songs, id)
	delete(m.titles, song.Title)
	return song, nil
}

func (m *Memory) IncrementPlayCount(_ context.Context, id int64) (songs.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	song, ok := m.songs[id]
	if !ok {
		return songs.Song{}, catalog.ErrNotFound
	}
	song.PlayCount++
	m.songs[id] = song
	return clone(song), nil
}

// Find returns up to limit songs matching pred in the given order
func (m *Memory) Find(_ context.Context, pred catalog.Predicate, sort []catalog.SortTerm, limit int) ([]songs.Song, error) {
	m.mu.RLock()
	matched, err := m.match(pred)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matched, func(a, b songs.Song) int {
		for _, term := range sort {
			c := compareField(&a, &b, term.Field)
			if term.Order == catalog.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// SampleOne picks a matching song uniformly at random
func (m *Memory) SampleOne(_ context.Context, pred catalog.Predicate) (*songs.Song, error) {
	m.mu.RLock()
	matched, err := m.match(pred)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}
	song := matched[rand.IntN(len(matched))]
	return &song, nil
}

func (m *Memory) KnownExternalIDs(_ context.Context, externalIDs []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[string]bool, len(externalIDs))
	for _, id := range externalIDs {
		wanted[id] = true
	}
	known := make(map[string]bool)
	for _, s := range m.songs {
		if wanted[s.StorageRef.ExternalID] {
			known[s.StorageRef.ExternalID] = true
		}
	}
	return known, nil
}

// Len returns the number of stored songs
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.songs)
}

// match must be called with the read lock held
func (m *Memory) match(pred catalog.Predicate) ([]songs.Song, error) {
	out := make([]songs.Song, 0, len(m.songs))
	for _, s := range m.songs {
		ok, err := eval(pred, &s)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, clone(s))
		}
	}
	return out, nil
}

func eval(pred catalog.Predicate, s *songs.Song) (bool, error) {
	switch p := pred.(type) {
	case nil:
		return true, nil
	case catalog.And:
		for _, child := range p {
			ok, err := eval(child, s)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case catalog.Or:
		for _, child := range p {
			ok, err := eval(child, s)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case catalog.Compare:
		c, err := compareValue(s, p.Field, p.Value)
		if err != nil {
			return false, err
		}
		switch p.Op {
		case catalog.OpGt:
			return c > 0, nil
		case catalog.OpLt:
			return c < 0, nil
		default:
			return c == 0, nil
		}
	case catalog.Contains:
		var field string
		switch p.Field {
		case catalog.FieldTitle:
			field = s.Title
		case catalog.FieldArtist:
			field = s.Artist
		default:
			return false, fmt.Errorf("contains is not supported on %s", p.Field)
		}
		return strings.Contains(strings.ToLower(field), strings.ToLower(p.Substr)), nil
	case catalog.Intersects:
		if p.Field != catalog.FieldTags {
			return false, fmt.Errorf("intersects is not supported on %s", p.Field)
		}
		for _, t := range s.Tags {
			if slices.Contains(p.Values, string(t)) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported predicate %T", pred)
}

// compareValue compares the song's field against v
func compareValue(s *songs.Song, f catalog.Field, v any) (int, error) {
	switch f {
	case catalog.FieldID:
		n, ok := v.(int64)
		if !ok {
			return 0, fmt.Errorf("id must be compared with int64, got %T", v)
		}
		return cmp.Compare(s.ID, n), nil
	case catalog.FieldTitle, catalog.FieldArtist, catalog.FieldGenre:
		str, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("%s must be compared with string, got %T", f, v)
		}
		return strings.Compare(stringField(s, f), str), nil
	case catalog.FieldDuration, catalog.FieldPlayCount:
		n, ok := v.(int64)
		if !ok {
			return 0, fmt.Errorf("%s must be compared with int64, got %T", f, v)
		}
		return cmp.Compare(intField(s, f), n), nil
	case catalog.FieldCreatedAt:
		t, ok := v.(time.Time)
		if !ok {
			return 0, fmt.Errorf("created_at must be compared with time, got %T", v)
		}
		return s.CreatedAt.Compare(t), nil
	}
	return 0, fmt.Errorf("field %s is not comparable", f)
}

func compareField(a, b *songs.Song, f catalog.Field) int {
	switch f {
	case catalog.FieldID:
		return cmp.Compare(a.ID, b.ID)
	case catalog.FieldTitle, catalog.FieldArtist, catalog.FieldGenre:
		return strings.Compare(stringField(a, f), stringField(b, f))
	case catalog.FieldDuration, catalog.FieldPlayCount:
		return cmp.Compare(intField(a, f), intField(b, f))
	case catalog.FieldCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func stringField(s *songs.Song, f catalog.Field) string {
	switch f {
	case catalog.FieldTitle:
		return s.Title
	case catalog.FieldArtist:
		return s.Artist
	default:
		return string(s.Genre)
	}
}

func intField(s *songs.Song, f catalog.Field) int64 {
	if f == catalog.FieldDuration {
		return int64(s.DurationSeconds)
	}
	return s.PlayCount
}

func clone(s songs.Song) songs.Song {
	s.Tags = slices.Clone(s.Tags)
	return s
}
