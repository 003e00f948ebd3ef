package catalog

import (
	"strings"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindTime
)

// SortKey is one of the supported sort keys. Unique keys order the catalog
// on their own; non-unique keys need the song id as a tie-breaker.
type SortKey struct {
	name   string
	field  Field
	unique bool
	kind   valueKind
}

var (
	SortByTitle     = SortKey{name: "title", field: FieldTitle, unique: true, kind: kindString}
	SortByCreatedAt = SortKey{name: "createdAt", field: FieldCreatedAt, kind: kindTime}
	SortByDuration  = SortKey{name: "durationSeconds", field: FieldDuration, kind: kindInt}
	SortByPlayCount = SortKey{name: "playCount", field: FieldPlayCount, kind: kindInt}
)

// DefaultSortKey is used when the caller does not pick one
var DefaultSortKey = SortByCreatedAt

var sortKeys = map[string]SortKey{
	SortByTitle.name:     SortByTitle,
	SortByCreatedAt.name: SortByCreatedAt,
	SortByDuration.name:  SortByDuration,
	SortByPlayCount.name: SortByPlayCount,
}

// SortKeys returns every supported sort key
func SortKeys() []SortKey {
	return []SortKey{SortByTitle, SortByCreatedAt, SortByDuration, SortByPlayCount}
}

// ParseSortKey resolves a sort key by its public name. An empty name selects
// DefaultSortKey.
func ParseSortKey(name string) (SortKey, error) {
	if name == "" {
		return DefaultSortKey, nil
	}
	key, ok := sortKeys[name]
	if !ok {
		return SortKey{}, invalid("sortBy", "unsupported sort key %q", name)
	}
	return key, nil
}

func (k SortKey) Name() string { return k.name }

func (k SortKey) Field() Field { return k.field }

// Unique reports whether no two songs can share a value of this key
func (k SortKey) Unique() bool { return k.unique }

// ValueOf extracts the key's value from a song in the type cursors carry
func (k SortKey) ValueOf(s *songs.Song) any {
	switch k.field {
	case FieldTitle:
		return s.Title
	case FieldDuration:
		return int64(s.DurationSeconds)
	case FieldPlayCount:
		return s.PlayCount
	default:
		return s.CreatedAt
	}
}

// SortOrder is the direction of a sort
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc" in any case. Empty means Descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(s) {
	case "", string(Descending):
		return Descending, nil
	case string(Ascending):
		return Ascending, nil
	}
	return "", invalid("sortOrder", "must be asc or desc, got %q", s)
}

// after is the comparison that selects rows past a position in this order
func (o SortOrder) after() Op {
	if o == Ascending {
		return OpGt
	}
	return OpLt
}

// Sort is a resolved sort key with its direction
type Sort struct {
	Key   SortKey
	Order SortOrder
}

// SortTerm is one component of an ORDER BY
type SortTerm struct {
	Field Field
	Order SortOrder
}

// Terms returns the total ordering used by queries: the key, then the id in
// the same direction.
func (s Sort) Terms() []SortTerm {
	return []SortTerm{
		{Field: s.Key.field, Order: s.Order},
		{Field: FieldID, Order: s.Order},
	}
}
