package postgres

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFindWithoutFilter(t *testing.T) {
	sort := catalog.Sort{Key: catalog.SortByCreatedAt, Order: catalog.Descending}

	query, args, err := buildFind(nil, sort.Terms(), 21)
	require.NoError(t, err)

	assert.Contains(t, query, "FROM songs  ORDER BY created_at DESC, id DESC LIMIT $1")
	assert.Equal(t, []any{21}, args)
}

func TestBuildFindRendersTieBreak(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pred := catalog.Or{
		catalog.Compare{Field: catalog.FieldCreatedAt, Op: catalog.OpGt, Value: at},
		catalog.And{
			catalog.Compare{Field: catalog.FieldCreatedAt, Op: catalog.OpEq, Value: at},
			catalog.Compare{Field: catalog.FieldID, Op: catalog.OpGt, Value: int64(7)},
		},
	}
	sort := catalog.Sort{Key: catalog.SortByCreatedAt, Order: catalog.Ascending}

	query, args, err := buildFind(pred, sort.Terms(), 3)
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE (created_at > $1 OR (created_at = $2 AND id > $3))")
	assert.Contains(t, query, "ORDER BY created_at ASC, id ASC LIMIT $4")
	assert.Equal(t, []any{at, at, int64(7), 3}, args)
}

func TestBuildFindTextAndTags(t *testing.T) {
	pred := catalog.And{
		catalog.Or{
			catalog.Contains{Field: catalog.FieldTitle, Substr: "100%_off"},
			catalog.Contains{Field: catalog.FieldArtist, Substr: "100%_off"},
		},
		catalog.Intersects{Field: catalog.FieldTags, Values: []string{"chill", "focus"}},
	}

	query, args, err := buildFind(pred, nil, 5)
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE ((title ILIKE $1 OR artist ILIKE $2) AND tags && $3::text[])")
	require.Len(t, args, 4)
	assert.Equal(t, `%100\%\_off%`, args[0])
	assert.Equal(t, pq.Array([]string{"chill", "focus"}), args[2])
}

func TestBuildFindRejectsUnknownField(t *testing.T) {
	pred := catalog.Compare{Field: catalog.Field("password"), Op: catalog.OpEq, Value: "x"}

	_, _, err := buildFind(pred, nil, 1)
	assert.Error(t, err)

	_, _, err = buildFind(nil, []catalog.SortTerm{{Field: "1; DROP TABLE songs", Order: catalog.Ascending}}, 1)
	assert.Error(t, err)
}

func TestBuildSample(t *testing.T) {
	pred := catalog.Or{
		catalog.Compare{Field: catalog.FieldGenre, Op: catalog.OpEq, Value: "jazz"},
		catalog.Intersects{Field: catalog.FieldTags, Values: []string{"relax"}},
	}

	query, args, err := buildSample(pred)
	require.NoError(t, err)

	assert.Contains(t, query, "WHERE (genre = $1 OR tags && $2::text[]) ORDER BY random() LIMIT 1")
	assert.Len(t, args, 2)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, `\%\_`, escapeLike(`%_`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
