package events

import (
	"github.com/princekumarofficial/songs-service/internal/types"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishSongsUploaded(ownerID string, result songs.UploadResult)
	PublishSongDeleted(ownerID string, song songs.Song, blobReleased bool)
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishSongsUploaded sends the outcome of an upload batch to its owner
func (p *EventPublisher) PublishSongsUploaded(ownerID string, result songs.UploadResult) {
	// Only send if the owner is connected
	if !p.hub.IsUserConnected(ownerID) {
		return
	}

	ids := make([]int64, len(result.Uploaded))
	for i, s := range result.Uploaded {
		ids[i] = s.ID
	}

	p.hub.BroadcastToUser(ownerID, types.NewEvent(types.EventSongsUploaded, &types.SongsUploadedEvent{
		SongIDs: ids,
		Skipped: result.Skipped,
		Summary: result.Summary,
	}))
}

// PublishSongDeleted notifies the owner that a song is gone
func (p *EventPublisher) PublishSongDeleted(ownerID string, song songs.Song, blobReleased bool) {
	if !p.hub.IsUserConnected(ownerID) {
		return
	}

	p.hub.BroadcastToUser(ownerID, types.NewEvent(types.EventSongDeleted, &types.SongDeletedEvent{
		SongID:       song.ID,
		Title:        song.Title,
		BlobReleased: blobReleased,
	}))
}

// Discard drops every event
type Discard struct{}

func (Discard) PublishSongsUploaded(string, songs.UploadResult) {}
func (Discard) PublishSongDeleted(string, songs.Song, bool)     {}
