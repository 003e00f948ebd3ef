package types

import (
	"time"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// EventType represents the type of real-time event
type EventType string

const (
	EventSongsUploaded EventType = "songs.uploaded"
	EventSongDeleted   EventType = "song.deleted"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp string    `json:"timestamp"`
}

// SongsUploadedEvent tells an uploader how a batch turned out
type SongsUploadedEvent struct {
	SongIDs []int64             `json:"song_ids"`
	Skipped []songs.Skipped     `json:"skipped"`
	Summary songs.UploadSummary `json:"summary"`
}

// SongDeletedEvent tells an owner one of their songs was removed
type SongDeletedEvent struct {
	SongID       int64  `json:"song_id"`
	Title        string `json:"title"`
	BlobReleased bool   `json:"blob_released"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data any) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
