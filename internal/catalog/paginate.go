package catalog

import (
	"context"
	"fmt"

	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is one slice of an ordered catalog read
type Page struct {
	Items   []songs.Song
	HasMore bool
	// Next is nil when Items is empty
	Next *Cursor
}

// Paginate reads one page of at most limit songs matching pred, ordered by
// the sort key and then by id. It over-fetches a single row to learn whether
// another page exists.
func Paginate(ctx context.Context, f Finder, pred Predicate, s Sort, limit int) (Page, error) {
	if limit < 1 || limit > MaxLimit {
		return Page{}, invalid("limit", "must be between 1 and %d", MaxLimit)
	}

	items, err := f.Find(ctx, pred, s.Terms(), limit+1)
	if err != nil {
		return Page{}, fmt.Errorf("failed to query catalog: %w", err)
	}

	page := Page{Items: items}
	if len(items) > limit {
		page.HasMore = true
		page.Items = items[:limit]
	}
	if n := len(page.Items); n > 0 {
		next := CursorAt(s.Key, &page.Items[n-1])
		page.Next = &next
	}
	return page, nil
}
