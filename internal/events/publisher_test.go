package events

import (
	"testing"

	"github.com/princekumarofficial/songs-service/internal/types"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	connected map[string]bool
	sent      map[string][]*types.Event
}

func newFakeHub(users ...string) *fakeHub {
	h := &fakeHub{connected: map[string]bool{}, sent: map[string][]*types.Event{}}
	for _, u := range users {
		h.connected[u] = true
	}
	return h
}

func (h *fakeHub) BroadcastToUser(userID string, event *types.Event) {
	h.sent[userID] = append(h.sent[userID], event)
}

func (h *fakeHub) IsUserConnected(userID string) bool {
	return h.connected[userID]
}

func TestPublishSongsUploaded(t *testing.T) {
	hub := newFakeHub("owner")
	p := NewEventPublisher(hub)

	p.PublishSongsUploaded("owner", songs.UploadResult{
		Uploaded: []songs.Song{{ID: 4}, {ID: 9}},
		Skipped:  []songs.Skipped{{Title: "dup", Reason: "duplicate"}},
		Summary:  songs.UploadSummary{TotalFiles: 3, UploadCount: 2, SkippedCount: 1},
	})

	require.Len(t, hub.sent["owner"], 1)
	event := hub.sent["owner"][0]
	assert.Equal(t, types.EventSongsUploaded, event.Type)

	data, ok := event.Data.(*types.SongsUploadedEvent)
	require.True(t, ok)
	assert.Equal(t, []int64{4, 9}, data.SongIDs)
	assert.Equal(t, 3, data.Summary.TotalFiles)
}

func TestPublishSkipsDisconnectedOwner(t *testing.T) {
	hub := newFakeHub()
	p := NewEventPublisher(hub)

	p.PublishSongDeleted("owner", songs.Song{ID: 1}, true)

	assert.Empty(t, hub.sent)
}
