package sweeper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/services/media"
	"github.com/princekumarofficial/songs-service/internal/storage/memory"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)

type fakeBlobs struct {
	objects   []media.Object
	listErr   error
	deleteErr map[string]error
	deleted   []string
}

func (f *fakeBlobs) List(_ context.Context, folder, resourceType string) ([]media.Object, error) {
	if folder != "songs" || resourceType != "audio" {
		return nil, fmt.Errorf("unexpected prefix %s/%s", resourceType, folder)
	}
	return f.objects, f.listErr
}

func (f *fakeBlobs) Delete(_ context.Context, externalID, _ string) error {
	if err := f.deleteErr[externalID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, externalID)
	return nil
}

type countingCatalog struct {
	*memory.Memory
	lookups int
}

func (c *countingCatalog) KnownExternalIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	c.lookups++
	return c.Memory.KnownExternalIDs(ctx, ids)
}

func newSweeper(blobs Blobs, cat Catalog) *Sweeper {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(blobs, cat,
		config.Sweeper{Interval: time.Hour, GracePeriod: 24 * time.Hour},
		config.Ingest{Folder: "songs", ResourceType: "audio"},
		logger,
	)
	s.now = func() time.Time { return now }
	return s
}

func TestSweepRemovesOldOrphans(t *testing.T) {
	store := memory.New()
	_, err := store.Create(context.Background(), songs.NewSong{
		Title:      "kept",
		StorageRef: songs.StorageRef{ExternalID: "audio/songs/kept.mp3"},
		Genre:      songs.GenreUnknown,
	})
	require.NoError(t, err)

	blobs := &fakeBlobs{objects: []media.Object{
		{ExternalID: "audio/songs/kept.mp3", LastModified: now.Add(-48 * time.Hour)},
		{ExternalID: "audio/songs/orphan.mp3", LastModified: now.Add(-48 * time.Hour)},
		{ExternalID: "audio/songs/fresh.mp3", LastModified: now.Add(-time.Hour)},
	}}

	report, err := newSweeper(blobs, store).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Scanned: 3, Orphans: 1, Removed: 1}, report)
	assert.Equal(t, []string{"audio/songs/orphan.mp3"}, blobs.deleted)
}

func TestSweepContinuesPastDeleteFailures(t *testing.T) {
	old := now.Add(-30 * time.Hour)
	blobs := &fakeBlobs{
		objects: []media.Object{
			{ExternalID: "audio/songs/a.mp3", LastModified: old},
			{ExternalID: "audio/songs/b.mp3", LastModified: old},
		},
		deleteErr: map[string]error{"audio/songs/a.mp3": errors.New("minio down")},
	}

	report, err := newSweeper(blobs, memory.New()).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Scanned: 2, Orphans: 2, Removed: 1}, report)
	assert.Equal(t, []string{"audio/songs/b.mp3"}, blobs.deleted)
}

func TestSweepLooksUpInBatches(t *testing.T) {
	old := now.Add(-30 * time.Hour)
	blobs := &fakeBlobs{}
	for i := 0; i < batchSize+3; i++ {
		blobs.objects = append(blobs.objects, media.Object{ExternalID: fmt.Sprintf("audio/songs/%d.mp3", i), LastModified: old})
	}
	cat := &countingCatalog{Memory: memory.New()}

	report, err := newSweeper(blobs, cat).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, cat.lookups)
	assert.Equal(t, batchSize+3, report.Removed)
}

func TestSweepReportsListFailure(t *testing.T) {
	blobs := &fakeBlobs{listErr: errors.New("unreachable")}

	_, err := newSweeper(blobs, memory.New()).Sweep(context.Background())
	assert.Error(t, err)
	assert.Empty(t, blobs.deleted)
}

func TestRunStopsWithContext(t *testing.T) {
	blobs := &fakeBlobs{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, newSweeper(blobs, memory.New()).Run(ctx))
}
