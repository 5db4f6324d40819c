// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet

import (
	"errors"
	"fmt"

	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/xlsx"
)

var (
	// ErrHeaderRowIndex is returned for a negative header row index.
	ErrHeaderRowIndex = errors.New("invalid header row index")
	// ErrSheetName is returned for empty or duplicate sheet names.
	ErrSheetName = xlsx.ErrSheetName
	// ErrTooManyRows is returned when a sheet would exceed xlsx.MaxRowCount.
	ErrTooManyRows = xlsx.ErrTooManyRows
	// ErrRequired is wrapped by every RequiredFieldError.
	ErrRequired = errors.New("required field missing")
	// ErrNoHeader is returned when the sheet has rows but none at the header index.
	ErrNoHeader = errors.New("header row not found")
)

// AddressSyntaxError is returned for malformed cell or range text.
type AddressSyntaxError = cellref.SyntaxError

// StructuralError is returned when the package cannot be used:
// missing file, workbook or worksheet part, or a malformed worksheet.
type StructuralError struct {
	Path string
	// Part is the package part at fault, if known.
	Part string
	Err  error
}

func (e *StructuralError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("%s[%s]: %v", e.Path, e.Part, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}
func (e *StructuralError) Unwrap() error { return e.Err }

// FormatError is returned when a cell cannot be converted.
type FormatError struct {
	Cell   cellref.Cell
	Column string
	Text   string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s (%s): %q: %v", e.Cell, e.Column, e.Text, e.Err)
}
func (e *FormatError) Unwrap() error { return e.Err }

// RequiredFieldError is returned when a required field has no value.
//
// Row is the worksheet row number. Cell is zero if the column is missing
// from the header. Err is the conversion failure, if that caused it.
type RequiredFieldError struct {
	Cell   cellref.Cell
	Column string
	Row    int
	Err    error
}

func (e *RequiredFieldError) Error() string {
	var s string
	if e.Cell.Col != "" {
		s = fmt.Sprintf("%s (%s): %v", e.Cell, e.Column, ErrRequired)
	} else {
		s = fmt.Sprintf("row %d (%s): %v", e.Row, e.Column, ErrRequired)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *RequiredFieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequired}
	}
	return []error{ErrRequired, e.Err}
}

// ValidationError is returned when an imported record fails validation.
type ValidationError struct {
	Row int
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }
