package memory

import (
	"context"
	"testing"

	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSong(title string, tags ...songs.Tag) songs.NewSong {
	return songs.NewSong{
		Title:      title,
		Artist:     "Artist",
		StorageRef: songs.StorageRef{ExternalID: "audio/songs/" + title + ".mp3"},
		OwnerID:    "owner",
		Genre:      songs.GenreUnknown,
		Tags:       tags,
	}
}

func TestCreateEnforcesUniqueTitle(t *testing.T) {
	ctx := context.Background()
	m := New()

	first, err := m.Create(ctx, newSong("same"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = m.Create(ctx, newSong("same"))
	assert.ErrorIs(t, err, catalog.ErrConflict)
	assert.Equal(t, 1, m.Len())
}

func TestRenameReleasesOldTitle(t *testing.T) {
	ctx := context.Background()
	m := New()
	s, err := m.Create(ctx, newSong("before"))
	require.NoError(t, err)

	after := "after"
	_, err = m.UpdateByID(ctx, s.ID, songs.Patch{Title: &after})
	require.NoError(t, err)

	_, err = m.Create(ctx, newSong("before"))
	assert.NoError(t, err)
	_, err = m.Create(ctx, newSong("after"))
	assert.ErrorIs(t, err, catalog.ErrConflict)
}

func TestUnknownIDs(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.GetByID(ctx, 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = m.UpdateByID(ctx, 1, songs.Patch{})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = m.DeleteByID(ctx, 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = m.IncrementPlayCount(ctx, 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestReturnedSongsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := New()
	s, err := m.Create(ctx, newSong("x", "calm", "sad"))
	require.NoError(t, err)

	s.Tags[0] = "happy"

	got, err := m.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []songs.Tag{"calm", "sad"}, got.Tags)
}

func TestFindEvaluatesPredicates(t *testing.T) {
	ctx := context.Background()
	m := New()
	for _, s := range []songs.NewSong{
		newSong("Kesariya", "romantic"),
		newSong("Apna Bana Le", "love"),
		newSong("Kun Faya Kun", "spiritual", "calm"),
	} {
		_, err := m.Create(ctx, s)
		require.NoError(t, err)
	}
	byTitle := []catalog.SortTerm{{Field: catalog.FieldTitle, Order: catalog.Ascending}}

	got, err := m.Find(ctx, catalog.Contains{Field: catalog.FieldTitle, Substr: "KUN"}, byTitle, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Kun Faya Kun", got[0].Title)

	got, err = m.Find(ctx, catalog.Intersects{Field: catalog.FieldTags, Values: []string{"love", "calm"}}, byTitle, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Find(ctx, catalog.Or{
		catalog.Compare{Field: catalog.FieldTitle, Op: catalog.OpLt, Value: "B"},
		catalog.Compare{Field: catalog.FieldID, Op: catalog.OpEq, Value: int64(3)},
	}, byTitle, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Apna Bana Le", got[0].Title)
	assert.Equal(t, "Kun Faya Kun", got[1].Title)

	got, err = m.Find(ctx, nil, byTitle, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindRejectsMistypedValues(t *testing.T) {
	m := New()
	_, err := m.Create(context.Background(), newSong("x"))
	require.NoError(t, err)

	_, err = m.Find(context.Background(), catalog.Compare{Field: catalog.FieldID, Op: catalog.OpEq, Value: "1"}, nil, 10)
	assert.Error(t, err)
	_, err = m.Find(context.Background(), catalog.Contains{Field: catalog.FieldGenre, Substr: "x"}, nil, 10)
	assert.Error(t, err)
}

func TestSampleOne(t *testing.T) {
	ctx := context.Background()
	m := New()

	got, err := m.SampleOne(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = m.Create(ctx, newSong("only"))
	require.NoError(t, err)
	got, err = m.SampleOne(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "only", got.Title)
}

func TestKnownExternalIDs(t *testing.T) {
	ctx := context.Background()
	m := New()
	_, err := m.Create(ctx, newSong("kept"))
	require.NoError(t, err)

	known, err := m.KnownExternalIDs(ctx, []string{"audio/songs/kept.mp3", "audio/songs/orphan.mp3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"audio/songs/kept.mp3": true}, known)
}
