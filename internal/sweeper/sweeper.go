// Package sweeper removes song files that no catalog entry references. They
// are left behind when a compensating delete fails during ingestion.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/metrics"
	"github.com/princekumarofficial/songs-service/internal/services/media"
)

// batchSize bounds the ids sent to the catalog in a single lookup
const batchSize = 500

// Blobs lists and deletes stored song files
type Blobs interface {
	List(ctx context.Context, folder, resourceType string) ([]media.Object, error)
	Delete(ctx context.Context, externalID, resourceType string) error
}

// Catalog tells which blobs are still referenced
type Catalog interface {
	KnownExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error)
}

// Report summarizes one sweep
type Report struct {
	Scanned int
	Orphans int
	Removed int
}

type Sweeper struct {
	blobs        Blobs
	catalog      Catalog
	cfg          config.Sweeper
	folder       string
	resourceType string
	now          func() time.Time
	logger       *slog.Logger
}

// New creates a sweeper over the folder songs are ingested into
func New(blobs Blobs, cat Catalog, cfg config.Sweeper, ingestCfg config.Ingest, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		blobs:        blobs,
		catalog:      cat,
		cfg:          cfg,
		folder:       ingestCfg.Folder,
		resourceType: ingestCfg.ResourceType,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "sweeper")),
	}
}

// Run sweeps immediately and then on every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context) error {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("Sweep failed", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep deletes every blob older than the grace period that no song
// references. Younger blobs may belong to an ingestion still in progress.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	metrics.SweeperRunsTotal.Inc()

	objects, err := s.blobs.List(ctx, s.folder, s.resourceType)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list blobs: %w", err)
	}

	report := Report{Scanned: len(objects)}
	cutoff := s.now().Add(-s.cfg.GracePeriod)

	var candidates []string
	for _, o := range objects {
		if o.LastModified.Before(cutoff) {
			candidates = append(candidates, o.ExternalID)
		}
	}

	for start := 0; start < len(candidates); start += batchSize {
		end := min(start+batchSize, len(candidates))
		batch := candidates[start:end]

		known, err := s.catalog.KnownExternalIDs(ctx, batch)
		if err != nil {
			return report, fmt.Errorf("failed to look up blobs: %w", err)
		}

		for _, id := range batch {
			if known[id] {
				continue
			}
			report.Orphans++
			if err := s.blobs.Delete(ctx, id, s.resourceType); err != nil {
				s.logger.Error("Failed to remove orphaned blob",
					slog.String("external_id", id),
					slog.String("error", err.Error()),
				)
				continue
			}
			report.Removed++
			metrics.SweeperOrphansRemoved.Inc()
		}
	}

	s.logger.Info("Sweep finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("orphans", report.Orphans),
		slog.Int("removed", report.Removed),
	)
	return report, nil
}
