// Package ingest turns uploaded files into catalog songs. Each file is
// uploaded to the blob store and then inserted into the catalog; when the
// insert fails the uploaded blob is deleted again.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/events"
	"github.com/princekumarofficial/songs-service/internal/metrics"
	"github.com/princekumarofficial/songs-service/internal/services/media"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"golang.org/x/sync/errgroup"
)

const (
	ReasonUploadFailed = "upload failed"
	ReasonSaveFailed   = "failed to save song"
	ReasonInvalidName  = "file name has no title"
)

// DefaultMaxParallel bounds concurrent file tasks when no limit is configured
const DefaultMaxParallel = 4

// BlobStore stores and releases song files
type BlobStore interface {
	Upload(ctx context.Context, data []byte, folder, resourceType string) (media.UploadResult, error)
	Delete(ctx context.Context, externalID, resourceType string) error
}

// Creator inserts songs into the catalog
type Creator interface {
	Create(ctx context.Context, s songs.NewSong) (songs.Song, error)
}

// File is one uploaded file held in memory
type File struct {
	Name string
	Data []byte
}

// Options configure a Reconciler
type Options struct {
	MaxParallel  int
	Folder       string
	ResourceType string
}

// Reconciler ingests batches of files
type Reconciler struct {
	blobs     BlobStore
	store     Creator
	opts      Options
	publisher events.Publisher
	logger    *slog.Logger
}

// NewReconciler creates a reconciler. Empty options fall back to the songs
// folder, the audio resource type and DefaultMaxParallel.
func NewReconciler(blobs BlobStore, store Creator, opts Options, logger *slog.Logger) *Reconciler {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = DefaultMaxParallel
	}
	if opts.Folder == "" {
		opts.Folder = "songs"
	}
	if opts.ResourceType == "" {
		opts.ResourceType = "audio"
	}
	return &Reconciler{
		blobs:     blobs,
		store:     store,
		opts:      opts,
		publisher: events.Discard{},
		logger:    logger.With(slog.String("component", "ingest")),
	}
}

// WithPublisher makes the reconciler announce finished batches
func (r *Reconciler) WithPublisher(p events.Publisher) *Reconciler {
	r.publisher = p
	return r
}

// DuplicateReason is the skip reason for a title that is already cataloged
func DuplicateReason(title string) string {
	return fmt.Sprintf("duplicate: a song titled %q already exists", title)
}

// TitleFromName derives a song title from a file name
func TitleFromName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

type outcome struct {
	song    *songs.Song
	skipped *songs.Skipped
}

// Ingest processes every file and reports what was uploaded and what was
// skipped, both in input order. Per file failures never fail the batch.
func (r *Reconciler) Ingest(ctx context.Context, files []File, meta songs.UploadMetadata, ownerID string) songs.UploadResult {
	start := time.Now()
	outcomes := make([]outcome, len(files))

	var g errgroup.Group
	g.SetLimit(r.opts.MaxParallel)
	for i, f := range files {
		g.Go(func() error {
			outcomes[i] = r.ingestOne(ctx, f, meta, ownerID)
			return nil
		})
	}
	g.Wait()

	result := songs.UploadResult{
		Uploaded: []songs.Song{},
		Skipped:  []songs.Skipped{},
	}
	for _, o := range outcomes {
		if o.song != nil {
			result.Uploaded = append(result.Uploaded, *o.song)
		} else {
			result.Skipped = append(result.Skipped, *o.skipped)
		}
	}
	result.Summary = songs.UploadSummary{
		TotalFiles:   len(files),
		UploadCount:  len(result.Uploaded),
		SkippedCount: len(result.Skipped),
	}

	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("Ingestion batch finished",
		slog.String("owner_id", ownerID),
		slog.Int("total_files", result.Summary.TotalFiles),
		slog.Int("uploaded", result.Summary.UploadCount),
		slog.Int("skipped", result.Summary.SkippedCount),
	)
	r.publisher.PublishSongsUploaded(ownerID, result)
	return result
}

func (r *Reconciler) ingestOne(ctx context.Context, f File, meta songs.UploadMetadata, ownerID string) outcome {
	title := TitleFromName(f.Name)
	if title == "" {
		metrics.IngestFilesTotal.WithLabelValues("invalid_name").Inc()
		return skip(f.Name, ReasonInvalidName)
	}

	uploaded, err := r.blobs.Upload(ctx, f.Data, r.opts.Folder, r.opts.ResourceType)
	if err != nil {
		metrics.IngestFilesTotal.WithLabelValues("upload_failed").Inc()
		r.logger.Warn("Failed to upload song",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return skip(title, ReasonUploadFailed)
	}

	artist := meta.Artist
	if strings.TrimSpace(artist) == "" {
		artist = uploaded.Artist
	}
	artist = songs.NormalizeArtist(artist)
	if artist == "" {
		artist = songs.DefaultArtist
	}
	genre := meta.Genre
	if genre == "" {
		genre = songs.GenreUnknown
	}

	song, err := r.store.Create(ctx, songs.NewSong{
		Title:           title,
		Artist:          artist,
		DurationSeconds: uploaded.DurationSeconds,
		StorageRef:      songs.StorageRef{ExternalID: uploaded.ExternalID, URL: uploaded.URL},
		OwnerID:         ownerID,
		Genre:           genre,
		Tags:            meta.Tags,
	})
	if err == nil {
		metrics.IngestFilesTotal.WithLabelValues("uploaded").Inc()
		return outcome{song: &song}
	}

	// The row was never written, release the blob again. Compensation runs
	// even if the request was cancelled meanwhile.
	r.compensate(context.WithoutCancel(ctx), title, uploaded.ExternalID)

	if errors.Is(err, catalog.ErrConflict) {
		metrics.IngestFilesTotal.WithLabelValues("duplicate").Inc()
		return skip(title, DuplicateReason(title))
	}

	metrics.IngestFilesTotal.WithLabelValues("save_failed").Inc()
	r.logger.Error("Failed to save song",
		slog.String("title", title),
		slog.String("error", err.Error()),
	)
	return skip(title, ReasonSaveFailed)
}

func (r *Reconciler) compensate(ctx context.Context, title, externalID string) {
	if err := r.blobs.Delete(ctx, externalID, r.opts.ResourceType); err != nil {
		metrics.CompensationFailures.Inc()
		r.logger.Error("Failed to delete orphaned blob",
			slog.String("title", title),
			slog.String("external_id", externalID),
			slog.String("error", err.Error()),
		)
	}
}

func skip(title, reason string) outcome {
	return outcome{skipped: &songs.Skipped{Title: title, Reason: reason}}
}

// Message summarizes a batch for API clients
func Message(s songs.UploadSummary) string {
	if s.UploadCount == 0 {
		return "All songs were skipped or failed to upload."
	}
	msg := fmt.Sprintf("%d song(s) uploaded successfully.", s.UploadCount)
	if s.SkippedCount > 0 {
		msg += fmt.Sprintf(" %d skipped.", s.SkippedCount)
	}
	return msg
}
