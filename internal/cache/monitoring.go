package cache

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// Stats represents cache health as reported by the health endpoint
type Stats struct {
	RedisConnected bool `json:"redis_connected"`
	CachedSongs    int  `json:"cached_songs"`
	KeyCount       int  `json:"total_keys"`
}

// GetStats reports whether Redis answers and how many songs are cached
func GetStats(ctx context.Context, redisClient *redis.Client) Stats {
	var stats Stats

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return stats
	}
	stats.RedisConnected = true

	var cursor uint64
	for {
		keys, next, err := redisClient.Scan(ctx, cursor, SongPattern, 100).Result()
		if err != nil {
			break
		}
		stats.CachedSongs += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if n, err := redisClient.DBSize(ctx).Result(); err == nil {
		stats.KeyCount = int(n)
	}

	return stats
}
