// Package watcher ingests MP3 files dropped into local directories.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/ingest"
	"github.com/princekumarofficial/songs-service/internal/metrics"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Ingester is the part of the reconciler the watcher drives
type Ingester interface {
	Ingest(ctx context.Context, files []ingest.File, meta songs.UploadMetadata, ownerID string) songs.UploadResult
}

// Watcher waits for files to settle and hands them to the ingester one by one
type Watcher struct {
	watcher     *fsnotify.Watcher
	ingester    Ingester
	cfg         config.Watcher
	maxFileSize int64
	logger      *slog.Logger

	ready         chan string
	debounceTimer map[string]*time.Timer
	debounceMu    sync.Mutex
	wg            sync.WaitGroup
}

// New creates a watcher over cfg.Paths. Files larger than maxFileSize are
// ignored.
func New(cfg config.Watcher, ing Ingester, maxFileSize int64, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no watch paths configured")
	}
	if cfg.Genre != "" && !songs.Genre(cfg.Genre).Valid() {
		return nil, fmt.Errorf("unknown genre %q", cfg.Genre)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	for _, path := range cfg.Paths {
		if _, err := os.Stat(path); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("path does not exist: %w", err)
		}
		if err := fsw.Add(path); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to add path to watcher: %w", err)
		}
	}

	return &Watcher{
		watcher:       fsw,
		ingester:      ing,
		cfg:           cfg,
		maxFileSize:   maxFileSize,
		logger:        logger.With(slog.String("component", "watcher")),
		ready:         make(chan string, 64),
		debounceTimer: make(map[string]*time.Timer),
	}, nil
}

// Run processes filesystem events until ctx is done. In-flight ingestions are
// waited for before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.wg.Wait()
	defer w.stopTimers()

	w.logger.Info("Watching for songs", slog.Any("paths", w.cfg.Paths))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFsEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case path := <-w.ready:
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.ingestFile(ctx, path)
			}()
		}
	}
}

// handleFsEvent restarts the quiet period of the file the event is about
func (w *Watcher) handleFsEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !IsSongFile(event.Name) {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimer[event.Name]; exists {
		timer.Stop()
	}
	w.debounceTimer[event.Name] = time.AfterFunc(w.cfg.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimer, event.Name)
		w.debounceMu.Unlock()

		select {
		case w.ready <- event.Name:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	for name, timer := range w.debounceTimer {
		timer.Stop()
		delete(w.debounceTimer, name)
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		// Removed before it settled
		return
	}
	if info.IsDir() {
		return
	}
	if w.maxFileSize > 0 && info.Size() > w.maxFileSize {
		w.logger.Warn("Ignoring oversized file",
			slog.String("path", path),
			slog.Int64("size", info.Size()),
		)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Error("Failed to read file", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	metrics.WatcherFilesDetected.Inc()

	meta := songs.UploadMetadata{Genre: songs.Genre(w.cfg.Genre)}
	result := w.ingester.Ingest(ctx, []ingest.File{{Name: filepath.Base(path), Data: data}}, meta, w.cfg.OwnerID)

	for _, s := range result.Uploaded {
		w.logger.Info("Song ingested",
			slog.String("path", path),
			slog.Int64("song_id", s.ID),
			slog.String("title", s.Title),
		)
	}
	for _, s := range result.Skipped {
		w.logger.Warn("Song skipped",
			slog.String("path", path),
			slog.String("reason", s.Reason),
		)
	}
}

// IsSongFile reports whether path names an MP3 file
func IsSongFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".mp3")
}
