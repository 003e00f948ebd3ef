package catalog_test

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/storage/memory"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// clock returns successive instants, each repeated n times, so that several
// songs share a created_at value
func clock(n int) func() time.Time {
	calls := 0
	return func() time.Time {
		at := epoch.Add(time.Duration(calls/n) * time.Second)
		calls++
		return at
	}
}

func create(t *testing.T, store *memory.Memory, title string, duration int) songs.Song {
	t.Helper()
	s, err := store.Create(context.Background(), songs.NewSong{
		Title:           title,
		Artist:          "artist",
		DurationSeconds: duration,
		StorageRef:      songs.StorageRef{ExternalID: "audio/songs/" + title + ".mp3"},
		OwnerID:         "owner",
		Genre:           songs.GenreUnknown,
	})
	require.NoError(t, err)
	return s
}

func ids(items []songs.Song) []int64 {
	out := make([]int64, len(items))
	for i, s := range items {
		out[i] = s.ID
	}
	return out
}

func TestPaginateEndToEndByCreatedAt(t *testing.T) {
	store := memory.New().WithClock(clock(1))
	create(t, store, "A", 100)
	b := create(t, store, "B", 100)
	create(t, store, "C", 100)
	sort := catalog.Sort{Key: catalog.SortByCreatedAt, Order: catalog.Descending}

	page, err := catalog.Paginate(context.Background(), store, nil, sort, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(page.Items))
	assert.True(t, page.HasMore)
	require.NotNil(t, page.Next)
	assert.Equal(t, int64(2), page.Next.ID)
	assert.True(t, b.CreatedAt.Equal(page.Next.Value.(time.Time)))

	// Travel through the wire format like a client would
	token, err := catalog.EncodeCursor(*page.Next)
	require.NoError(t, err)
	cursor, err := catalog.DecodeCursor(token)
	require.NoError(t, err)
	pred, err := catalog.BuildPredicate(catalog.Query{Sort: sort, Cursor: &cursor})
	require.NoError(t, err)

	page, err = catalog.Paginate(context.Background(), store, pred, sort, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(page.Items))
	assert.False(t, page.HasMore)
}

func TestPaginateTieBreak(t *testing.T) {
	store := memory.New().WithClock(clock(3))
	a := create(t, store, "A", 100)
	create(t, store, "B", 100)
	create(t, store, "C", 100)
	sort := catalog.Sort{Key: catalog.SortByCreatedAt, Order: catalog.Ascending}

	cursor := catalog.CursorAt(catalog.SortByCreatedAt, &a)
	var seen []string
	for {
		pred, err := catalog.BuildPredicate(catalog.Query{Sort: sort, Cursor: &cursor})
		require.NoError(t, err)
		page, err := catalog.Paginate(context.Background(), store, pred, sort, 1)
		require.NoError(t, err)
		for _, s := range page.Items {
			seen = append(seen, s.Title)
		}
		if !page.HasMore {
			break
		}
		cursor = *page.Next
	}

	assert.Equal(t, []string{"B", "C"}, seen)
}

func TestPaginateEmptyCatalog(t *testing.T) {
	page, err := catalog.Paginate(context.Background(), memory.New(), nil,
		catalog.Sort{Key: catalog.SortByTitle, Order: catalog.Ascending}, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.Next)
}

func TestPaginateExactlyFullPage(t *testing.T) {
	store := memory.New()
	create(t, store, "A", 1)
	create(t, store, "B", 1)

	page, err := catalog.Paginate(context.Background(), store, nil,
		catalog.Sort{Key: catalog.SortByTitle, Order: catalog.Ascending}, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
}

func TestPaginateRejectsLimit(t *testing.T) {
	for _, limit := range []int{-1, 0, catalog.MaxLimit + 1} {
		_, err := catalog.Paginate(context.Background(), memory.New(), nil,
			catalog.Sort{Key: catalog.SortByTitle, Order: catalog.Ascending}, limit)
		assert.True(t, catalog.IsValidation(err), "limit %d", limit)
	}
}

// TestPaginateIsCompleteForEveryOrdering walks a catalog full of duplicate
// sort values under every key and direction.
func TestPaginateIsCompleteForEveryOrdering(t *testing.T) {
	ctx := context.Background()
	store := memory.New().WithClock(clock(4))
	const n = 23
	for i := 0; i < n; i++ {
		s := create(t, store, fmt.Sprintf("song %02d", (i*7)%n), 60*(1+i%3))
		for p := 0; p < i%4; p++ {
			_, err := store.IncrementPlayCount(ctx, s.ID)
			require.NoError(t, err)
		}
	}
	all, err := store.Find(ctx, nil, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, n)

	for _, key := range catalog.SortKeys() {
		for _, order := range []catalog.SortOrder{catalog.Ascending, catalog.Descending} {
			for _, limit := range []int{1, 4, 7, n, catalog.MaxLimit} {
				name := fmt.Sprintf("%s/%s/%d", key.Name(), order, limit)
				t.Run(name, func(t *testing.T) {
					sort := catalog.Sort{Key: key, Order: order}
					got := walk(t, store, sort, limit)

					want := slices.Clone(all)
					slices.SortFunc(want, func(a, b songs.Song) int {
						c := compareBy(key, &a, &b)
						if c == 0 {
							c = cmp.Compare(a.ID, b.ID)
						}
						if order == catalog.Descending {
							c = -c
						}
						return c
					})
					assert.Equal(t, ids(want), got)
				})
			}
		}
	}
}

func walk(t *testing.T, store *memory.Memory, sort catalog.Sort, limit int) []int64 {
	t.Helper()
	var (
		got    []int64
		cursor *catalog.Cursor
	)
	for pages := 0; ; pages++ {
		require.Less(t, pages, 100, "pagination did not terminate")

		pred, err := catalog.BuildPredicate(catalog.Query{Sort: sort, Cursor: cursor})
		require.NoError(t, err)
		page, err := catalog.Paginate(context.Background(), store, pred, sort, limit)
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Items), limit)

		got = append(got, ids(page.Items)...)
		if !page.HasMore {
			return got
		}
		cursor = page.Next
	}
}

func compareBy(key catalog.SortKey, a, b *songs.Song) int {
	switch key {
	case catalog.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case catalog.SortByDuration:
		return cmp.Compare(a.DurationSeconds, b.DurationSeconds)
	case catalog.SortByPlayCount:
		return cmp.Compare(a.PlayCount, b.PlayCount)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
