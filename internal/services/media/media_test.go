package media

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("songs", "audio")

	require.True(t, strings.HasPrefix(key, "audio/songs/"))
	require.True(t, strings.HasSuffix(key, ".mp3"))

	id := strings.TrimSuffix(strings.TrimPrefix(key, "audio/songs/"), ".mp3")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	assert.NotEqual(t, key, ObjectKey("songs", "audio"))
}

func TestDeleteRefusesForeignKeys(t *testing.T) {
	s := &Service{}

	err := s.Delete(context.Background(), "image/avatars/x.png", "audio")

	var upstream *catalog.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "delete", upstream.Op)
}

func TestGetMediaURLWithPublicURL(t *testing.T) {
	s := &Service{bucketName: "songs", publicURL: "https://cdn.example.com"}

	assert.Equal(t,
		"https://cdn.example.com/songs/audio/songs/a.mp3",
		s.GetMediaURL("audio/songs/a.mp3"),
	)
}
