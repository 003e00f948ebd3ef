package catalog

// Field names a catalog column a predicate or sort can refer to
type Field string

const (
	FieldID        Field = "id"
	FieldTitle     Field = "title"
	FieldArtist    Field = "artist"
	FieldDuration  Field = "duration_seconds"
	FieldPlayCount Field = "play_count"
	FieldCreatedAt Field = "created_at"
	FieldGenre     Field = "genre"
	FieldTags      Field = "tags"
)

// Op is a comparison operator
type Op int

const (
	OpEq Op = iota
	OpGt
	OpLt
)

func (o Op) String() string {
	switch o {
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	default:
		return "="
	}
}

// Predicate is a filter expression over songs. Stores translate it to their
// own query language.
type Predicate interface {
	predicate()
}

// And matches when every child matches
type And []Predicate

// Or matches when at least one child matches
type Or []Predicate

// Compare matches when Field <Op> Value
type Compare struct {
	Field Field
	Op    Op
	Value any
}

// Contains matches when Field contains Substr, ignoring case
type Contains struct {
	Field  Field
	Substr string
}

// Intersects matches when the set-valued Field shares at least one element
// with Values
type Intersects struct {
	Field  Field
	Values []string
}

func (And) predicate()        {}
func (Or) predicate()         {}
func (Compare) predicate()    {}
func (Contains) predicate()   {}
func (Intersects) predicate() {}

// allOf ANDs the non-nil predicates, collapsing trivial cases. It returns nil
// when there is nothing to filter on.
func allOf(ps ...Predicate) Predicate {
	kept := compact(ps)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return And(kept)
}

// anyOf ORs the non-nil predicates, collapsing trivial cases
func anyOf(ps ...Predicate) Predicate {
	kept := compact(ps)
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return Or(kept)
}

func compact(ps []Predicate) []Predicate {
	kept := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return kept
}

// rangePredicate selects the songs strictly after c in the given sort. For
// non-unique keys the id breaks ties so that songs sharing the cursor's value
// are neither skipped nor repeated.
func rangePredicate(s Sort, c *Cursor) Predicate {
	if c == nil {
		return nil
	}
	op := s.Order.after()
	primary := Compare{Field: s.Key.field, Op: op, Value: c.Value}
	if s.Key.unique {
		return primary
	}
	return Or{
		primary,
		And{
			Compare{Field: s.Key.field, Op: OpEq, Value: c.Value},
			Compare{Field: FieldID, Op: op, Value: c.ID},
		},
	}
}
