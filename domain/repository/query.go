// Package repository defines storage-agnostic query options shared by stores.
package repository

// Op is a filter comparison.
type Op int

// Supported comparisons.
const (
	OpEqual Op = iota
	OpIn
)

// Filter restricts results to rows whose column compares to value.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Sort orders results by a column.
type Sort struct {
	Column     string
	Descending bool
}

// Query is the accumulated effect of a list of options. A zero Limit means
// no limit.
type Query struct {
	Filters []Filter
	Sorts   []Sort
	Limit   int
	Offset  int
}

// Option adds to a Query.
type Option func(*Query)

// Build applies options in order to an empty Query.
func Build(options ...Option) Query {
	var q Query
	for _, opt := range options {
		opt(&q)
	}
	return q
}

// Sorted reports whether any ordering was requested.
func (q Query) Sorted() bool { return len(q.Sorts) > 0 }

// WithCondition keeps rows where column equals value. Domain packages wrap
// it in typed options such as page.WithURL.
func WithCondition(column string, value any) Option {
	return func(q *Query) {
		q.Filters = append(q.Filters, Filter{Column: column, Op: OpEqual, Value: value})
	}
}

// WithConditionIn keeps rows where column is one of values, a slice.
func WithConditionIn(column string, values any) Option {
	return func(q *Query) {
		q.Filters = append(q.Filters, Filter{Column: column, Op: OpIn, Value: values})
	}
}

// WithID selects one row by primary key.
func WithID(id int64) Option { return WithCondition("id", id) }

// WithLimit caps the number of rows.
func WithLimit(n int) Option {
	return func(q *Query) { q.Limit = n }
}

// WithOffset skips the first n rows.
func WithOffset(n int) Option {
	return func(q *Query) { q.Offset = n }
}

// WithOrderAsc sorts by column, smallest first. Later sorts break ties.
func WithOrderAsc(column string) Option {
	return func(q *Query) { q.Sorts = append(q.Sorts, Sort{Column: column}) }
}

// WithOrderDesc sorts by column, largest first.
func WithOrderDesc(column string) Option {
	return func(q *Query) { q.Sorts = append(q.Sorts, Sort{Column: column, Descending: true}) }
}
