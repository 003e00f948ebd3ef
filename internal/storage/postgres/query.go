package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/princekumarofficial/songs-service/internal/catalog"
)

// columns whitelists the fields predicates and sorts may reference
var columns = map[catalog.Field]string{
	catalog.FieldID:        "id",
	catalog.FieldTitle:     "title",
	catalog.FieldArtist:    "artist",
	catalog.FieldDuration:  "duration_seconds",
	catalog.FieldPlayCount: "play_count",
	catalog.FieldCreatedAt: "created_at",
	catalog.FieldGenre:     "genre",
	catalog.FieldTags:      "tags",
}

// sqlBuilder renders predicates with numbered placeholders
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func column(f catalog.Field) (string, error) {
	c, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("unknown field %q", f)
	}
	return c, nil
}

// where renders a predicate. A nil predicate renders as an empty string.
func (b *sqlBuilder) where(pred catalog.Predicate) (string, error) {
	if pred == nil {
		return "", nil
	}
	cond, err := b.render(pred)
	if err != nil {
		return "", err
	}
	return "WHERE " + cond, nil
}

func (b *sqlBuilder) render(pred catalog.Predicate) (string, error) {
	switch p := pred.(type) {
	case catalog.And:
		return b.join(p, " AND ")
	case catalog.Or:
		return b.join(p, " OR ")
	case catalog.Compare:
		col, err := column(p.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", col, p.Op, b.arg(p.Value)), nil
	case catalog.Contains:
		col, err := column(p.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s ILIKE %s", col, b.arg("%"+escapeLike(p.Substr)+"%")), nil
	case catalog.Intersects:
		col, err := column(p.Field)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s && %s::text[]", col, b.arg(pq.Array(p.Values))), nil
	}
	return "", fmt.Errorf("unsupported predicate %T", pred)
}

func (b *sqlBuilder) join(children []catalog.Predicate, sep string) (string, error) {
	if len(children) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		part, err := b.render(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func orderBy(sort []catalog.SortTerm) (string, error) {
	if len(sort) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sort))
	for _, term := range sort {
		col, err := column(term.Field)
		if err != nil {
			return "", err
		}
		direction := "DESC"
		if term.Order == catalog.Ascending {
			direction = "ASC"
		}
		parts = append(parts, col+" "+direction)
	}
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

func buildFind(pred catalog.Predicate, sort []catalog.SortTerm, limit int) (string, []any, error) {
	b := &sqlBuilder{}
	where, err := b.where(pred)
	if err != nil {
		return "", nil, err
	}
	order, err := orderBy(sort)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM songs %s %s LIMIT %s`, songColumns, where, order, b.arg(limit))
	return query, b.args, nil
}

func buildSample(pred catalog.Predicate) (string, []any, error) {
	b := &sqlBuilder{}
	where, err := b.where(pred)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM songs %s ORDER BY random() LIMIT 1`, songColumns, where)
	return query, b.args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
