// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package cellref implements spreadsheet address arithmetic: column letters
// and indexes, A1-style cell references and ranges.
//
// Columns use bijective base-26 numbering: A=1, Z=26, AA=27, there is no
// zero digit. Only uppercase letters are accepted.
package cellref

import (
	"errors"
	"fmt"
	"strconv"
)

// maxLetters bounds the column length so the index always fits an int.
const maxLetters = 12

// SyntaxError is returned for malformed cell or range text.
type SyntaxError struct {
	Input string
	Msg   string
	Err   error
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cellref: %q: %s: %v", e.Input, e.Msg, e.Err)
	}
	return fmt.Sprintf("cellref: %q: %s", e.Input, e.Msg)
}
func (e *SyntaxError) Unwrap() error { return e.Err }

// ErrOutOfRange is wrapped when arithmetic would leave the sheet.
var ErrOutOfRange = errors.New("address out of range")

// ColumnIndex returns the 1-based index of the column letters.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, &SyntaxError{Input: letters, Msg: "empty column"}
	}
	if len(letters) > maxLetters {
		return 0, &SyntaxError{Input: letters, Msg: "column too long"}
	}
	index := 0
	for i := 0; i < len(letters); i++ {
		ch := letters[i]
		if ch < 'A' || ch > 'Z' {
			return 0, &SyntaxError{Input: letters, Msg: fmt.Sprintf("invalid column character %q", ch)}
		}
		index = index*26 + int(ch-'A'+1)
	}
	return index, nil
}

// ColumnLetters is the inverse of ColumnIndex.
func ColumnLetters(index int) (string, error) {
	if index < 1 {
		return "", &SyntaxError{Input: strconv.Itoa(index), Msg: "column index must be >= 1", Err: ErrOutOfRange}
	}
	var buf [maxLetters + 2]byte
	pos := len(buf)
	for index > 0 {
		index--
		pos--
		buf[pos] = byte('A' + index%26)
		index /= 26
	}
	return string(buf[pos:]), nil
}

// Cell is an A1-style reference.
type Cell struct {
	Col string
	Row int
}

// NewCell validates col and row.
func NewCell(col string, row int) (Cell, error) {
	if _, err := ColumnIndex(col); err != nil {
		return Cell{}, err
	}
	if row < 1 {
		return Cell{}, &SyntaxError{Input: col + strconv.Itoa(row), Msg: "row must be >= 1", Err: ErrOutOfRange}
	}
	return Cell{Col: col, Row: row}, nil
}

// CellAt returns the cell of the 1-based column index and row.
func CellAt(colIndex, row int) (Cell, error) {
	col, err := ColumnLetters(colIndex)
	if err != nil {
		return Cell{}, err
	}
	return NewCell(col, row)
}

// ParseCell parses text such as "AA104".
// The column is everything before the first digit, the row everything from it.
func ParseCell(text string) (Cell, error) {
	i := 0
	for i < len(text) && (text[i] < '0' || text[i] > '9') {
		i++
	}
	if i == len(text) {
		return Cell{}, &SyntaxError{Input: text, Msg: "no row number"}
	}
	col := text[:i]
	if _, err := ColumnIndex(col); err != nil {
		return Cell{}, &SyntaxError{Input: text, Msg: "invalid column", Err: err}
	}
	digits := text[i:]
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return Cell{}, &SyntaxError{Input: text, Msg: "invalid row number"}
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return Cell{}, &SyntaxError{Input: text, Msg: "invalid row number", Err: err}
	}
	if row < 1 {
		return Cell{}, &SyntaxError{Input: text, Msg: "row must be >= 1", Err: ErrOutOfRange}
	}
	return Cell{Col: col, Row: row}, nil
}

// MustParseCell is like ParseCell but panics on error.
func MustParseCell(text string) Cell {
	c, err := ParseCell(text)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cell) String() string { return c.Col + strconv.Itoa(c.Row) }

// ColIndex returns the 1-based column index, 0 for an invalid column.
func (c Cell) ColIndex() int {
	i, _ := ColumnIndex(c.Col)
	return i
}

// AddRows returns the cell n rows below (above for negative n).
func (c Cell) AddRows(n int) (Cell, error) {
	if c.Row+n < 1 {
		return Cell{}, &SyntaxError{Input: c.String(), Msg: fmt.Sprintf("cannot add %d rows", n), Err: ErrOutOfRange}
	}
	return Cell{Col: c.Col, Row: c.Row + n}, nil
}

// AddColumns returns the cell n columns to the right (left for negative n).
func (c Cell) AddColumns(n int) (Cell, error) {
	idx, err := ColumnIndex(c.Col)
	if err != nil {
		return Cell{}, err
	}
	if idx+n < 1 {
		return Cell{}, &SyntaxError{Input: c.String(), Msg: fmt.Sprintf("cannot add %d columns", n), Err: ErrOutOfRange}
	}
	col, err := ColumnLetters(idx + n)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Col: col, Row: c.Row}, nil
}

// Compare orders cells by column index, then by row.
func (c Cell) Compare(o Cell) int {
	a, b := c.ColIndex(), o.ColIndex()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case c.Row < o.Row:
		return -1
	case c.Row > o.Row:
		return 1
	}
	return 0
}
