package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/ingest"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	files   []ingest.File
	meta    songs.UploadMetadata
	ownerID string
}

type fakeIngester struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeIngester) Ingest(_ context.Context, files []ingest.File, meta songs.UploadMetadata, ownerID string) songs.UploadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{files: files, meta: meta, ownerID: ownerID})
	return songs.UploadResult{Summary: songs.UploadSummary{TotalFiles: len(files)}}
}

func (f *fakeIngester) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func start(t *testing.T, cfg config.Watcher, ing Ingester, maxFileSize int64) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := New(cfg, ing, maxFileSize, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcherIngestsSettledSongs(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	start(t, config.Watcher{Paths: []string{dir}, OwnerID: "watcher", Debounce: 50 * time.Millisecond, Genre: "nepali"}, ing, 1<<20)

	path := filepath.Join(dir, "Resham Firiri.mp3")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.Write([]byte("chunk"))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(ing.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	calls := ing.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "watcher", calls[0].ownerID)
	assert.Equal(t, songs.GenreNepali, calls[0].meta.Genre)
	require.Len(t, calls[0].files, 1)
	assert.Equal(t, "Resham Firiri.mp3", calls[0].files[0].Name)
	assert.Equal(t, []byte("chunkchunkchunk"), calls[0].files[0].Data)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	ing := &fakeIngester{}
	start(t, config.Watcher{Paths: []string{dir}, Debounce: 20 * time.Millisecond}, ing, 8)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "huge.mp3"), []byte("more than eight bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.MP3"), []byte("tiny"), 0o644))

	require.Eventually(t, func() bool { return len(ing.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)

	calls := ing.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "ok.MP3", calls[0].files[0].Name)
}

func TestNewRejectsBadConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(config.Watcher{}, &fakeIngester{}, 0, logger)
	assert.Error(t, err)

	_, err = New(config.Watcher{Paths: []string{filepath.Join(t.TempDir(), "missing")}}, &fakeIngester{}, 0, logger)
	assert.Error(t, err)

	_, err = New(config.Watcher{Paths: []string{t.TempDir()}, Genre: "polka"}, &fakeIngester{}, 0, logger)
	assert.Error(t, err)
}

func TestIsSongFile(t *testing.T) {
	assert.True(t, IsSongFile("/music/a.mp3"))
	assert.True(t, IsSongFile("B.Mp3"))
	assert.False(t, IsSongFile("a.mp3.part"))
	assert.False(t, IsSongFile(".a.mp3"))
	assert.False(t, IsSongFile("a.wav"))
}
