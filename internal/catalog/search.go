package catalog

import (
	"strings"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

// Query describes one page request against the catalog
type Query struct {
	Sort   Sort
	Cursor *Cursor
	// Text is free text; every whitespace separated word must appear in the
	// title or the artist.
	Text  string
	Genre songs.Genre
	Tags  []songs.Tag
}

// BuildPredicate composes the range, text and facet filters of q into a
// single predicate. It returns nil when q selects the whole catalog.
func BuildPredicate(q Query) (Predicate, error) {
	if q.Cursor != nil && q.Cursor.Key != q.Sort.Key {
		return nil, invalid("cursor", "cursor was issued for sort key %s, not %s",
			q.Cursor.Key.name, q.Sort.Key.name)
	}

	return allOf(
		rangePredicate(q.Sort, q.Cursor),
		textPredicate(q.Text),
		genrePredicate(q.Genre),
		tagsPredicate(q.Tags),
	), nil
}

// FacetPredicate matches songs having any of the requested attributes
func FacetPredicate(genre songs.Genre, tags []songs.Tag) Predicate {
	return anyOf(genrePredicate(genre), tagsPredicate(tags))
}

func textPredicate(text string) Predicate {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	perWord := make([]Predicate, 0, len(words))
	for _, w := range words {
		perWord = append(perWord, Or{
			Contains{Field: FieldTitle, Substr: w},
			Contains{Field: FieldArtist, Substr: w},
		})
	}
	return allOf(perWord...)
}

func genrePredicate(g songs.Genre) Predicate {
	if g == "" {
		return nil
	}
	return Compare{Field: FieldGenre, Op: OpEq, Value: string(g)}
}

func tagsPredicate(tags []songs.Tag) Predicate {
	if len(tags) == 0 {
		return nil
	}
	values := make([]string, len(tags))
	for i, t := range tags {
		values[i] = string(t)
	}
	return Intersects{Field: FieldTags, Values: values}
}

// ParseGenre validates a genre facet. Empty input means no genre filter.
func ParseGenre(s string) (songs.Genre, error) {
	g := songs.Genre(strings.ToLower(strings.TrimSpace(s)))
	if g == "" {
		return "", nil
	}
	if !g.Valid() {
		return "", invalid("genre", "unknown genre %q", s)
	}
	return g, nil
}

// ParseTags validates tag facets, accepting comma separated values
func ParseTags(raw []string) ([]songs.Tag, error) {
	var tags []songs.Tag
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				tags = append(tags, songs.Tag(part))
			}
		}
	}
	tags = songs.NormalizeTags(tags)
	for _, t := range tags {
		if !t.Valid() {
			return nil, invalid("tags", "unknown tag %q", t)
		}
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}
