package console

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Text string
}

func (n note) Clone() note { return n }

type record struct {
	ID   int64
	Text string
}

var errTextRequired = errors.New("text required")

type fakeBinding struct {
	mu      sync.Mutex
	saves   int
	err     error
	started chan struct{}
	release chan struct{}
}

func (*fakeBinding) Blank() note { return note{} }

func (*fakeBinding) FromRecord(r record) (int64, note) { return r.ID, note{Text: r.Text} }

func (*fakeBinding) Validate(n note, _ *record) error {
	if n.Text == "" {
		return errTextRequired
	}
	return nil
}

func (b *fakeBinding) Save(_ context.Context, id int64, n note, _ *record) (record, error) {
	b.mu.Lock()
	b.saves++
	started, release, err := b.started, b.release, b.err
	b.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return record{}, err
	}
	if id == 0 {
		id = 100
	}
	return record{ID: id, Text: n.Text}, nil
}

func (b *fakeBinding) saveCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

type countingReloader struct {
	n atomic.Int32
}

func (r *countingReloader) Reload(context.Context) error {
	r.n.Add(1)
	return nil
}

func newTestForm() (*Form[record, note], *fakeBinding, *countingReloader) {
	b := &fakeBinding{}
	r := &countingReloader{}
	return NewForm[record, note](b, r, nil), b, r
}

func TestFormModes(t *testing.T) {
	f, _, _ := newTestForm()
	assert.Equal(t, ModeClosed, f.Mode())

	f.Open()
	assert.Equal(t, ModeCreating, f.Mode())
	assert.Zero(t, f.ID())
	assert.Equal(t, note{}, f.Draft())

	f.Edit(record{ID: 7, Text: "hello"})
	assert.Equal(t, ModeEditing, f.Mode())
	assert.Equal(t, int64(7), f.ID())
	assert.Equal(t, "hello", f.Draft().Text)
	assert.Equal(t, "editing", f.Mode().String())

	f.Cancel()
	assert.Equal(t, ModeClosed, f.Mode())
	assert.ErrorIs(t, f.Update(func(n *note) {}), ErrNotOpen)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSubmitInvalidDraftNeverSaves(t *testing.T) {
	f, b, r := newTestForm()
	f.Open()

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, errTextRequired)
	assert.Equal(t, 0, b.saveCount())
	assert.Equal(t, int32(0), r.n.Load())
	assert.Equal(t, ModeCreating, f.Mode())
	assert.ErrorIs(t, f.Err(), errTextRequired)
}

func TestSubmitSuccessReloadsAndCloses(t *testing.T) {
	f, b, r := newTestForm()
	f.Open()
	require.NoError(t, f.Update(func(n *note) { n.Text = "new" }))

	saved, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, record{ID: 100, Text: "new"}, saved)
	assert.Equal(t, 1, b.saveCount())
	assert.Equal(t, int32(1), r.n.Load())
	assert.Equal(t, ModeClosed, f.Mode())
	assert.NoError(t, f.Err())
}

func TestSubmitFailureKeepsDraftOpen(t *testing.T) {
	f, b, r := newTestForm()
	boom := errors.New("server down")
	b.err = boom
	f.Edit(record{ID: 3, Text: "keep"})
	require.NoError(t, f.Update(func(n *note) { n.Text = "edited" }))

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, ModeEditing, f.Mode())
	assert.Equal(t, "edited", f.Draft().Text)
	assert.Equal(t, int64(3), f.ID())
	assert.Equal(t, int32(0), r.n.Load())
	assert.ErrorIs(t, f.Err(), boom)
}

func TestDraftIsACopy(t *testing.T) {
	f, _, _ := newTestForm()
	f.Edit(record{ID: 1, Text: "a"})
	d := f.Draft()
	d.Text = "changed"
	assert.Equal(t, "a", f.Draft().Text)
}

func TestCloseDuringSubmitDiscardsResult(t *testing.T) {
	f, b, r := newTestForm()
	b.started = make(chan struct{})
	b.release = make(chan struct{})
	f.Edit(record{ID: 9, Text: "first"})

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-b.started
	f.Close()
	f.Open()
	require.NoError(t, f.Update(func(n *note) { n.Text = "second" }))
	close(b.release)

	assert.ErrorIs(t, <-done, ErrDiscarded)
	assert.Equal(t, ModeCreating, f.Mode())
	assert.Equal(t, "second", f.Draft().Text)
	assert.NoError(t, f.Err())
	assert.Equal(t, int32(1), r.n.Load())
}

func TestSubmitWhilePendingIsBusy(t *testing.T) {
	f, b, _ := newTestForm()
	b.started = make(chan struct{})
	b.release = make(chan struct{})
	f.Edit(record{ID: 2, Text: "x"})

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-b.started

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	close(b.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, b.saveCount())
}
