// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package cellref

import (
	"regexp"
	"strings"
)

var rangeRE = regexp.MustCompile(`^[A-Z]+[0-9]+:[A-Z]+[0-9]+$`)

// Range is a rectangular area between two cells, both inclusive.
type Range struct {
	From, To Cell
}

// NewRange returns the validated range between from and to.
func NewRange(from, to Cell) (Range, error) {
	r := Range{From: from, To: to}
	if err := r.validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// ParseRange parses "A1:B10".
func ParseRange(text string) (Range, error) {
	if !rangeRE.MatchString(text) {
		return Range{}, &SyntaxError{Input: text, Msg: "not a range"}
	}
	i := strings.IndexByte(text, ':')
	from, err := ParseCell(text[:i])
	if err != nil {
		return Range{}, err
	}
	to, err := ParseCell(text[i+1:])
	if err != nil {
		return Range{}, err
	}
	return NewRange(from, to)
}

// WithFrom returns the range starting at from.
func (r Range) WithFrom(from Cell) (Range, error) { return NewRange(from, r.To) }

// WithTo returns the range ending at to.
func (r Range) WithTo(to Cell) (Range, error) { return NewRange(r.From, to) }

func (r Range) String() string { return r.From.String() + ":" + r.To.String() }

// Valid reports whether both cells are well formed and To is neither
// left of nor above From.
func (r Range) Valid() bool { return r.validate() == nil }

func (r Range) validate() error {
	if _, err := NewCell(r.From.Col, r.From.Row); err != nil {
		return err
	}
	if _, err := NewCell(r.To.Col, r.To.Row); err != nil {
		return err
	}
	// rectangular on both axes, so A5:B1 is rejected
	if r.From.ColIndex() > r.To.ColIndex() || r.From.Row > r.To.Row {
		return &SyntaxError{Input: r.String(), Msg: "range start after its end", Err: ErrOutOfRange}
	}
	return nil
}

// AddRowsToBeginning moves the whole range n rows down.
func (r Range) AddRowsToBeginning(n int) (Range, error) {
	from, err := r.From.AddRows(n)
	if err != nil {
		return Range{}, err
	}
	to, err := r.To.AddRows(n)
	if err != nil {
		return Range{}, err
	}
	return NewRange(from, to)
}

// AddRowsToEnd extends (or shrinks, for negative n) the range at its end.
func (r Range) AddRowsToEnd(n int) (Range, error) {
	to, err := r.To.AddRows(n)
	if err != nil {
		return Range{}, err
	}
	return NewRange(r.From, to)
}

// AddColumnsToBeginning moves the whole range n columns right.
func (r Range) AddColumnsToBeginning(n int) (Range, error) {
	from, err := r.From.AddColumns(n)
	if err != nil {
		return Range{}, err
	}
	to, err := r.To.AddColumns(n)
	if err != nil {
		return Range{}, err
	}
	return NewRange(from, to)
}

// AddColumnsToEnd extends (or shrinks, for negative n) the range at its last column.
func (r Range) AddColumnsToEnd(n int) (Range, error) {
	to, err := r.To.AddColumns(n)
	if err != nil {
		return Range{}, err
	}
	return NewRange(r.From, to)
}

// Contains reports whether c lies within the range bounds.
func (r Range) Contains(c Cell) bool {
	ci := c.ColIndex()
	return ci >= r.From.ColIndex() && ci <= r.To.ColIndex() &&
		c.Row >= r.From.Row && c.Row <= r.To.Row
}

// RowLength is the number of rows covered.
func (r Range) RowLength() int { return r.To.Row - r.From.Row + 1 }

// ColumnLength is the number of columns covered.
func (r Range) ColumnLength() int { return r.To.ColIndex() - r.From.ColIndex() + 1 }

// Compare orders ranges by From, then To.
func (r Range) Compare(o Range) int {
	if c := r.From.Compare(o.From); c != 0 {
		return c
	}
	return r.To.Compare(o.To)
}
