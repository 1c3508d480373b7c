package console

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrNotOpen indicates an operation on a closed form.
	ErrNotOpen = errors.New("console: form not open")
	// ErrBusy indicates a submission is already in flight.
	ErrBusy = errors.New("console: submission in progress")
	// ErrDiscarded indicates the form was closed or reopened while its
	// submission was in flight. The result was not applied to the form.
	ErrDiscarded = errors.New("console: submission discarded")
)

// Mode is the form state.
type Mode int

const (
	ModeClosed Mode = iota
	ModeCreating
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeCreating:
		return "creating"
	case ModeEditing:
		return "editing"
	default:
		return "closed"
	}
}

// Cloner is a draft that can be copied without sharing line storage.
type Cloner[D any] interface {
	Clone() D
}

// Binding connects a form to one record family.
type Binding[R any, D any] interface {
	// Blank returns the draft for a new record.
	Blank() D
	// FromRecord returns the record id and a draft copied from it.
	FromRecord(record R) (int64, D)
	// Validate checks the draft without touching the network. original is
	// nil when creating.
	Validate(draft D, original *R) error
	// Save creates (id 0) or updates the record.
	Save(ctx context.Context, id int64, draft D, original *R) (R, error)
}

// Reloader refreshes the list a form writes into.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Form is the create/edit controller for one record family. At most one
// draft is open at a time; every open or close starts a new generation so a
// late submission result can be recognised and dropped.
type Form[R any, D Cloner[D]] struct {
	binding Binding[R, D]
	list    Reloader
	logger  *slog.Logger

	mu         sync.Mutex
	mode       Mode
	id         int64
	original   *R
	draft      D
	generation uint64
	pending    bool
	err        error
}

// NewForm builds a closed form that reloads list after each save.
func NewForm[R any, D Cloner[D]](binding Binding[R, D], list Reloader, logger *slog.Logger) *Form[R, D] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Form[R, D]{binding: binding, list: list, logger: logger}
}

// Open starts a new record from the family defaults.
func (f *Form[R, D]) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset(ModeCreating, 0, nil, f.binding.Blank())
}

// Edit opens an existing record.
func (f *Form[R, D]) Edit(record R) {
	id, draft := f.binding.FromRecord(record)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset(ModeEditing, id, &record, draft)
}

// Close discards the draft. The list is untouched.
func (f *Form[R, D]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero D
	f.reset(ModeClosed, 0, nil, zero)
}

// Cancel is Close.
func (f *Form[R, D]) Cancel() {
	f.Close()
}

func (f *Form[R, D]) reset(mode Mode, id int64, original *R, draft D) {
	f.generation++
	f.mode = mode
	f.id = id
	f.original = original
	f.draft = draft
	f.pending = false
	f.err = nil
}

// Mode returns the current state.
func (f *Form[R, D]) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// ID returns the id of the record under edit, 0 when creating.
func (f *Form[R, D]) ID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

// Draft returns a copy of the open draft.
func (f *Form[R, D]) Draft() D {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ModeClosed {
		var zero D
		return zero
	}
	return f.draft.Clone()
}

// Update edits the open draft in place.
func (f *Form[R, D]) Update(fn func(draft *D)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == ModeClosed {
		return ErrNotOpen
	}
	fn(&f.draft)
	return nil
}

// Err returns the error of the last failed submission.
func (f *Form[R, D]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Submit validates the draft, then creates or updates the record. An
// invalid draft never reaches the network. On success the list is reloaded
// and the form closes; on failure it stays open with the draft intact.
func (f *Form[R, D]) Submit(ctx context.Context) (R, error) {
	var zero R

	f.mu.Lock()
	if f.mode == ModeClosed {
		f.mu.Unlock()
		return zero, ErrNotOpen
	}
	if f.pending {
		f.mu.Unlock()
		return zero, ErrBusy
	}
	draft := f.draft.Clone()
	id, original, gen := f.id, f.original, f.generation
	f.mu.Unlock()

	if err := f.binding.Validate(draft, original); err != nil {
		f.fail(gen, err)
		return zero, err
	}

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return zero, ErrDiscarded
	}
	f.pending = true
	f.mu.Unlock()

	saved, err := f.binding.Save(ctx, id, draft, original)

	f.mu.Lock()
	stale := f.generation != gen
	if !stale {
		f.pending = false
	}
	f.mu.Unlock()

	if err != nil {
		if stale {
			f.logger.Debug("discarded failed submission", slog.Any("error", err))
			return zero, ErrDiscarded
		}
		f.logger.Error("submit record", slog.Int64("id", id), slog.Any("error", err))
		f.fail(gen, err)
		return zero, err
	}

	if reloadErr := f.list.Reload(ctx); reloadErr != nil {
		f.logger.Error("reload after save", slog.Any("error", reloadErr))
	}
	if stale {
		return zero, ErrDiscarded
	}

	f.mu.Lock()
	if f.generation == gen {
		var none D
		f.reset(ModeClosed, 0, nil, none)
	}
	f.mu.Unlock()
	return saved, nil
}

func (f *Form[R, D]) fail(gen uint64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generation == gen {
		f.err = err
	}
}
