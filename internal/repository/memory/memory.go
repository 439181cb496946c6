// Package memory implements repository.Store with in-process maps.
//
// This is the default backend: data lives for the lifetime of the process
// and is lost on restart.
//
// LAYOUT:
// Each entity kind gets its own table: a map from ID to record plus a slice
// of IDs in insertion order, so lists come back oldest first without
// sorting. IDs come from a per-table counter that only ever grows, which
// keeps IDs unique even after a delete.
//
// LOCKING:
// net/http serves every request on its own goroutine, so one RWMutex guards
// all tables. Reads take the read lock and copy records out; writes take
// the write lock. Records never leave the package by pointer, callers
// always get a Clone.
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/sakif/social-pulse/internal/model"
	"github.com/sakif/social-pulse/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// table is one insertion-ordered entity map.
type table[T any] struct {
	rows  map[int64]*T
	order []int64
	next  int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]*T)}
}

// insert stores row under the next ID and returns that ID.
func (t *table[T]) insert(row *T) int64 {
	t.next++
	t.rows[t.next] = row
	t.order = append(t.order, t.next)
	return t.next
}

func (t *table[T]) get(id int64) (*T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

// find returns the first row (in insertion order) matching pred.
func (t *table[T]) find(pred func(*T) bool) (*T, bool) {
	for _, id := range t.order {
		if row := t.rows[id]; pred(row) {
			return row, true
		}
	}
	return nil, false
}

// filter returns every row matching pred, in insertion order.
func (t *table[T]) filter(pred func(*T) bool) []*T {
	var out []*T
	for _, id := range t.order {
		if row := t.rows[id]; pred(row) {
			out = append(out, row)
		}
	}
	return out
}

func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v int64) bool { return v == id })
	return true
}

// Store is the in-memory entity store.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users     *table[model.User]
	accounts  *table[model.SocialAccount]
	content   *table[model.ContentItem]
	snapshots *table[model.AnalyticsSnapshot]
	layouts   *table[model.DashboardLayout]
	insights  *table[model.AiInsight]
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		users:     newTable[model.User](),
		accounts:  newTable[model.SocialAccount](),
		content:   newTable[model.ContentItem](),
		snapshots: newTable[model.AnalyticsSnapshot](),
		layouts:   newTable[model.DashboardLayout](),
		insights:  newTable[model.AiInsight](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op; it exists to satisfy repository.Store.
func (s *Store) Close() error {
	return nil
}

// cloneAll copies rows out of the store. The result is never nil so it
// serializes as [].
func cloneAll[T any](rows []*T, clone func(T) T) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, clone(*row))
	}
	return out
}
