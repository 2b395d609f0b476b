// Package paging walks cursor-paginated results with a load-more state machine:
// idle -> loading -> loaded (more pages) | exhausted (no more pages).
// A failed load moves to failed; the next LoadMore retries the same cursor.
package paging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"perfeval/internal/platform/docstore"
)

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateExhausted State = "exhausted"
	StateFailed    State = "failed"
)

// ErrBusy is returned when a load is requested while another is in flight.
var ErrBusy = errors.New("paging: load already in progress")

// Fetcher returns one page starting after cursor ("" for the first page).
type Fetcher[T any] func(ctx context.Context, cursor string) (items []T, next string, hasMore bool, err error)

type Loader[T any] struct {
	fetch Fetcher[T]
	idOf  func(T) string

	busy atomic.Bool

	mu     sync.Mutex
	state  State
	items  []T
	cursor string
	err    error
}

func New[T any](fetch Fetcher[T], idOf func(T) string) *Loader[T] {
	return &Loader[T]{fetch: fetch, idOf: idOf, state: StateIdle}
}

// Load discards local items and fetches the first page.
func (l *Loader[T]) Load(ctx context.Context) error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer l.busy.Store(false)

	l.mu.Lock()
	l.items = nil
	l.cursor = ""
	l.mu.Unlock()
	return l.page(ctx, "")
}

// LoadMore fetches the next page. It is a no-op once exhausted.
func (l *Loader[T]) LoadMore(ctx context.Context) error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer l.busy.Store(false)

	l.mu.Lock()
	state, cursor := l.state, l.cursor
	l.mu.Unlock()
	if state == StateExhausted {
		return nil
	}
	return l.page(ctx, cursor)
}

func (l *Loader[T]) page(ctx context.Context, cursor string) error {
	l.mu.Lock()
	l.state = StateLoading
	l.mu.Unlock()

	items, next, hasMore, err := l.fetch(ctx, cursor)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state = StateFailed
		l.err = err
		return err
	}
	l.err = nil
	l.items = append(l.items, items...)
	l.cursor = next
	if hasMore && next != "" {
		l.state = StateLoaded
	} else {
		l.state = StateExhausted
	}
	return nil
}

// All loads pages until the source is exhausted and returns every item.
func (l *Loader[T]) All(ctx context.Context) ([]T, error) {
	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	for l.State() == StateLoaded {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.LoadMore(ctx); err != nil {
			return nil, err
		}
	}
	return l.Items(), nil
}

func (l *Loader[T]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loader[T]) HasMore() bool {
	return l.State() == StateLoaded
}

func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Prepend inserts an item created locally at the head of the list.
func (l *Loader[T]) Prepend(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]T{item}, l.items...)
}

// Patch replaces the item with the given id by fn(item).
func (l *Loader[T]) Patch(id string, fn func(T) T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, item := range l.items {
		if l.idOf(item) == id {
			l.items[i] = fn(item)
			return true
		}
	}
	return false
}

func (l *Loader[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, item := range l.items {
		if l.idOf(item) == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Reset returns the loader to idle with no items.
func (l *Loader[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
	l.cursor = ""
	l.err = nil
	l.state = StateIdle
}

// Documents adapts a document-store query to a Fetcher.
func Documents(s docstore.Store, q docstore.Query) Fetcher[docstore.Document] {
	return func(ctx context.Context, cursor string) ([]docstore.Document, string, bool, error) {
		page := q
		page.Cursor = cursor
		res, err := s.FindPage(ctx, page)
		if err != nil {
			return nil, "", false, err
		}
		return res.Items, res.NextCursor, res.HasMore, nil
	}
}

// DocumentID is the idOf function for document loaders.
func DocumentID(d docstore.Document) string {
	return d.ID
}
