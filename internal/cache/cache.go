package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Cache key patterns
const (
	SongKey     = "song:%d" // song:songID
	SongPattern = "song:*"
	// GenerationKey is bumped by every write to a song
	GenerationKey = "song_gen:%d"
)

// DefaultSongTTL is used when no ttl is configured
const DefaultSongTTL = 10 * time.Minute

// fillScript caches a fetched song only if no write happened since the
// generation was read. Returns 1 when the song was cached.
var fillScript = redis.NewScript(`
	local gen = redis.call('GET', KEYS[2]) or ''
	if gen ~= ARGV[2] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
	return 1
`)

// invalidateScript bumps the generation and drops the cached song
var invalidateScript = redis.NewScript(`
	redis.call('INCR', KEYS[2])
	redis.call('PEXPIRE', KEYS[2], ARGV[1])
	redis.call('DEL', KEYS[1])
	return 1
`)

// CachedStore wraps a catalog store with a Redis read-through cache for
// single song lookups. Pages are not cached, their cursors already make them
// cheap index range scans.
//
// Writes never populate the cache. They invalidate it, and a read that
// overlapped a write does not fill it.
type CachedStore struct {
	catalog.Store
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedStore creates a new cached store
func NewCachedStore(store catalog.Store, redisClient *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultSongTTL
	}
	return &CachedStore{
		Store: store,
		redis: redisClient,
		ttl:   ttl,
	}
}

// GetByID returns the cached song or fetches it from the store
func (c *CachedStore) GetByID(ctx context.Context, id int64) (songs.Song, error) {
	key := fmt.Sprintf(SongKey, id)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var song songs.Song
		if err := json.Unmarshal(cached, &song); err == nil {
			return song, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("Song cache read failed", slog.Int64("song_id", id), slog.String("error", err.Error()))
	}

	// Remember the generation before reading the store
	gen, genErr := c.redis.Get(ctx, fmt.Sprintf(GenerationKey, id)).Result()
	if errors.Is(genErr, redis.Nil) {
		gen, genErr = "", nil
	}

	// Cache miss - fetch from the store
	song, err := c.Store.GetByID(ctx, id)
	if err != nil {
		return songs.Song{}, err
	}

	if genErr == nil {
		c.fill(ctx, song, gen)
	}
	return song, nil
}

func (c *CachedStore) UpdateByID(ctx context.Context, id int64, p songs.Patch) (songs.Song, error) {
	song, err := c.Store.UpdateByID(ctx, id, p)
	if err != nil {
		return songs.Song{}, err
	}
	c.Invalidate(ctx, id)
	return song, nil
}

func (c *CachedStore) IncrementPlayCount(ctx context.Context, id int64) (songs.Song, error) {
	song, err := c.Store.IncrementPlayCount(ctx, id)
	if err != nil {
		return songs.Song{}, err
	}
	c.Invalidate(ctx, id)
	return song, nil
}

func (c *CachedStore) DeleteByID(ctx context.Context, id int64) (songs.Song, error) {
	song, err := c.Store.DeleteByID(ctx, id)
	c.Invalidate(ctx, id)
	return song, err
}

// Invalidate drops a song from the cache and fences off reads in flight
func (c *CachedStore) Invalidate(ctx context.Context, id int64) {
	keys := []string{fmt.Sprintf(SongKey, id), fmt.Sprintf(GenerationKey, id)}
	// The generation must outlive any read that could still observe it
	genTTL := 2 * c.ttl
	if err := invalidateScript.Run(ctx, c.redis, keys, genTTL.Milliseconds()).Err(); err != nil {
		slog.Warn("Song cache invalidation failed", slog.Int64("song_id", id), slog.String("error", err.Error()))
	}
}

func (c *CachedStore) fill(ctx context.Context, song songs.Song, gen string) {
	data, err := json.Marshal(song)
	if err != nil {
		return
	}
	keys := []string{fmt.Sprintf(SongKey, song.ID), fmt.Sprintf(GenerationKey, song.ID)}
	if err := fillScript.Run(ctx, c.redis, keys, data, gen, c.ttl.Milliseconds()).Err(); err != nil {
		slog.Warn("Song cache write failed", slog.Int64("song_id", song.ID), slog.String("error", err.Error()))
	}
}
