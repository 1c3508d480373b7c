// Package console holds the record lists and forms behind the purchasing
// console. Lists own the authoritative collections; forms own private drafts
// and push successful saves back into their list by reloading it.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrDeleteCancelled indicates the operator declined a delete prompt.
	ErrDeleteCancelled = errors.New("console: delete cancelled")
	// ErrRefreshFailed indicates the record was deleted but the collection
	// could not be reloaded afterwards. The reload error is wrapped too.
	ErrRefreshFailed = errors.New("console: list refresh failed")
)

// Source lists and deletes records of one family.
type Source[R any] interface {
	List(ctx context.Context) ([]R, error)
	Delete(ctx context.Context, id int64) error
}

// Confirmer asks the operator whether a record may be deleted.
type Confirmer interface {
	Confirm(ctx context.Context, id int64) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, id int64) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, id int64) bool {
	return f(ctx, id)
}

// List is the authoritative in-memory collection of one record family. It
// is only replaced by a completed reload; reloads never overlap.
type List[R any] struct {
	name    string
	source  Source[R]
	idOf    func(R) int64
	confirm Confirmer
	logger  *slog.Logger

	reloading sync.Mutex

	mu     sync.RWMutex
	items  []R
	loaded bool
	err    error
}

// NewList builds an empty list. idOf extracts the record id.
func NewList[R any](name string, source Source[R], idOf func(R) int64, logger *slog.Logger) *List[R] {
	if logger == nil {
		logger = slog.Default()
	}
	return &List[R]{name: name, source: source, idOf: idOf, logger: logger}
}

// SetConfirmer installs the delete prompt. A nil confirmer deletes without
// asking.
func (l *List[R]) SetConfirmer(c Confirmer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirm = c
}

// Activate loads the collection.
func (l *List[R]) Activate(ctx context.Context) error {
	return l.Reload(ctx)
}

// Reload replaces the collection with a fresh copy from the API. On failure
// the previous collection is kept and the error is returned and retained.
func (l *List[R]) Reload(ctx context.Context) error {
	l.reloading.Lock()
	defer l.reloading.Unlock()

	items, err := l.source.List(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
	if err != nil {
		l.logger.Error("reload list", slog.String("list", l.name), slog.Any("error", err))
		return err
	}
	l.items = items
	l.loaded = true
	return nil
}

// Loaded reports whether at least one reload succeeded.
func (l *List[R]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Err returns the error of the last reload, if it failed.
func (l *List[R]) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Items returns a copy of the collection.
func (l *List[R]) Items() []R {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]R(nil), l.items...)
}

// Len returns the collection size.
func (l *List[R]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Lookup finds a loaded record by id.
func (l *List[R]) Lookup(id int64) (R, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if l.idOf(item) == id {
			return item, true
		}
	}
	var zero R
	return zero, false
}

// Delete removes a record after confirmation and reloads. On failure the
// collection is left as it was. A failed reload after a successful delete
// returns an error matching ErrRefreshFailed.
func (l *List[R]) Delete(ctx context.Context, id int64) error {
	l.mu.RLock()
	confirm := l.confirm
	l.mu.RUnlock()
	if confirm != nil && !confirm.Confirm(ctx, id) {
		return ErrDeleteCancelled
	}
	if err := l.source.Delete(ctx, id); err != nil {
		l.logger.Error("delete record", slog.String("list", l.name), slog.Int64("id", id), slog.Any("error", err))
		return err
	}
	if err := l.Reload(ctx); err != nil {
		return fmt.Errorf("%w after deleting %d: %w", ErrRefreshFailed, id, err)
	}
	return nil
}
