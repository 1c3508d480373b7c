// Package lineitem maintains the editable line collection of an order or
// receipt draft.
package lineitem

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoLine indicates an index outside the collection.
	ErrNoLine = errors.New("lineitem: no line at index")
	// ErrUnknownField indicates a field the line family does not have.
	ErrUnknownField = errors.New("lineitem: unknown field")
)

// Schema describes one line family.
type Schema[T any] interface {
	// Defaults returns a fresh line with the family's default values.
	Defaults() T
	// Set replaces one field of line, coercing value to the field's type.
	Set(line *T, field string, value any) error
	// Total is the line's contribution to the parent total.
	Total(line T) decimal.Decimal
}

// Editor is an ordered collection of draft lines addressed by position.
type Editor[T any] struct {
	schema Schema[T]
	lines  []T
}

// New returns an editor holding a copy of lines.
func New[T any](schema Schema[T], lines ...T) *Editor[T] {
	return &Editor[T]{schema: schema, lines: append([]T(nil), lines...)}
}

// Add appends a line carrying the family defaults and returns its index.
func (e *Editor[T]) Add() int {
	e.lines = append(e.lines, e.schema.Defaults())
	return len(e.lines) - 1
}

// Remove deletes the line at index. Removing the last line is allowed; an
// empty collection is only rejected at submission.
func (e *Editor[T]) Remove(index int) error {
	if index < 0 || index >= len(e.lines) {
		return fmt.Errorf("%w %d", ErrNoLine, index)
	}
	last := len(e.lines) - 1
	copy(e.lines[index:], e.lines[index+1:])
	var zero T
	e.lines[last] = zero
	e.lines = e.lines[:last]
	return nil
}

// Update replaces exactly one field of the line at index.
func (e *Editor[T]) Update(index int, field string, value any) error {
	if index < 0 || index >= len(e.lines) {
		return fmt.Errorf("%w %d", ErrNoLine, index)
	}
	line := e.lines[index]
	if err := e.schema.Set(&line, field, value); err != nil {
		return err
	}
	e.lines[index] = line
	return nil
}

// Line returns a copy of the line at index.
func (e *Editor[T]) Line(index int) (T, bool) {
	if index < 0 || index >= len(e.lines) {
		var zero T
		return zero, false
	}
	return e.lines[index], true
}

// Lines returns a copy of every line in order.
func (e *Editor[T]) Lines() []T {
	return append([]T(nil), e.lines...)
}

// Len returns the number of lines.
func (e *Editor[T]) Len() int {
	return len(e.lines)
}

// Total sums the line totals. It is recomputed on every call.
func (e *Editor[T]) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.lines {
		total = total.Add(e.schema.Total(line))
	}
	return total
}

// Clone returns an independent editor with the same lines.
func (e *Editor[T]) Clone() *Editor[T] {
	return New(e.schema, e.lines...)
}
