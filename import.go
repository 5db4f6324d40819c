// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/UNO-SOFT/recordsheet/binding"
	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/xlsx"
)

// State is the state of a Reader.
type State uint8

const (
	Opening = State(iota)
	LocatingPrimarySheet
	AwaitingHeaderRow
	StreamingDataRows
	Done
	Error
)

func (s State) String() string {
	switch s {
	case Opening:
		return "Opening"
	case LocatingPrimarySheet:
		return "LocatingPrimarySheet"
	case AwaitingHeaderRow:
		return "AwaitingHeaderRow"
	case StreamingDataRows:
		return "StreamingDataRows"
	case Done:
		return "Done"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Reader reads records of type T from the rows of a worksheet.
//
//	r, err := recordsheet.Open[Person]("people.xlsx")
//	if err != nil { ... }
//	defer r.Close()
//	for r.Next() {
//		p := r.Record()
//	}
//	if err := r.Err(); err != nil { ... }
type Reader[T any] struct {
	cfg    config
	path   string
	pkg    *xlsx.Package
	cur    *xlsx.Cursor
	dec    *rowDecoder[T]
	state  State
	dim    cellref.Range
	hasDim bool
	record T
	err    error
	closed bool
}

// Open the named xlsx file for reading records of type T.
func Open[T any](path string, opts ...Option) (*Reader[T], error) {
	r, err := newReader[T](path, opts)
	if err != nil {
		return nil, err
	}
	pkg, err := xlsx.Open(path)
	if err != nil {
		return nil, r.fail(&StructuralError{Path: path, Err: err})
	}
	if err := r.locate(pkg); err != nil {
		return nil, err
	}
	return r, nil
}

// OpenReader reads records of type T from the xlsx package in ra, which is size bytes long.
func OpenReader[T any](ra io.ReaderAt, size int64, opts ...Option) (*Reader[T], error) {
	r, err := newReader[T]("", opts)
	if err != nil {
		return nil, err
	}
	pkg, err := xlsx.OpenReader(ra, size)
	if err != nil {
		return nil, r.fail(&StructuralError{Err: err})
	}
	if err := r.locate(pkg); err != nil {
		return nil, err
	}
	return r, nil
}

func newReader[T any](path string, opts []Option) (*Reader[T], error) {
	cfg := newConfig(opts)
	if cfg.headerRow < 0 {
		return nil, fmt.Errorf("%d: %w", cfg.headerRow, ErrHeaderRowIndex)
	}
	list, err := binding.For[T](cfg.resolver)
	if err != nil {
		return nil, err
	}
	r := &Reader[T]{cfg: cfg, path: path, state: Opening}
	r.dec = newRowDecoder[T](list, &r.cfg)
	return r, nil
}

// locate the worksheet to read, leaving the reader in AwaitingHeaderRow.
// On error the reader is closed.
func (r *Reader[T]) locate(pkg *xlsx.Package) error {
	r.pkg = pkg
	r.setState(LocatingPrimarySheet)
	var err error
	if r.cfg.sheetName != "" {
		r.cur, err = pkg.SheetByName(r.cfg.sheetName)
	} else {
		r.cur, err = pkg.FirstSheet()
	}
	if err != nil {
		return r.fail(&StructuralError{Path: r.path, Part: pkg.Workbook(), Err: err})
	}
	if s := r.cur.Dimension(); s != "" {
		if dim, err := parseDimension(s); err != nil {
			r.cfg.logger.Debug("ignore dimension", "ref", s, "error", err)
		} else {
			r.dim, r.hasDim = dim, true
		}
	}
	r.setState(AwaitingHeaderRow)
	return nil
}

// parseDimension parses "A1:C10", or a single cell such as "A1".
func parseDimension(s string) (cellref.Range, error) {
	if c, err := cellref.ParseCell(s); err == nil {
		return cellref.Range{From: c, To: c}, nil
	}
	return cellref.ParseRange(s)
}

func (r *Reader[T]) setState(s State) {
	if r.state != s {
		r.cfg.logger.Debug("import", "from", r.state, "to", s, "path", r.path)
		r.state = s
	}
}

// fail records err, moves to Error and releases the resources.
func (r *Reader[T]) fail(err error) error {
	r.err = err
	r.setState(Error)
	_ = r.Close()
	return err
}

// State returns the current state.
func (r *Reader[T]) State() State { return r.state }

// Dimension returns the declared dimension of the sheet, if there is one.
// It is advisory only: the rows read are authoritative.
func (r *Reader[T]) Dimension() (cellref.Range, bool) { return r.dim, r.hasDim }

// Record returns the record read by the last successful Next.
func (r *Reader[T]) Record() T { return r.record }

// Err returns the error that stopped Next, if any.
func (r *Reader[T]) Err() error { return r.err }

// Close releases the package. It is safe to call more than once.
func (r *Reader[T]) Close() error {
	if r == nil || r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	if r.cur != nil {
		errs = append(errs, r.cur.Close())
	}
	if r.pkg != nil {
		errs = append(errs, r.pkg.Close())
	}
	if r.state != Error {
		r.setState(Done)
	}
	return errors.Join(errs...)
}

// Next reads the next record. It returns false at the end of the rows,
// or on error: check Err.
func (r *Reader[T]) Next() bool {
	if r.closed || r.state == Done || r.state == Error {
		return false
	}
	headerRow := r.cfg.headerRow + 1
	for r.cur.Next() {
		row := r.cur.Row()
		if r.state == AwaitingHeaderRow {
			if row.Index < headerRow {
				continue
			}
			if row.Index > headerRow {
				r.fail(&StructuralError{Path: r.path, Part: r.cur.Sheet.Path,
					Err: fmt.Errorf("row %d: %w", headerRow, ErrNoHeader)})
				return false
			}
			r.dec.setHeader(row.Cells)
			r.setState(StreamingDataRows)
			continue
		}
		if row.Index <= headerRow {
			continue
		}
		rec, err := r.dec.decode(row.Index, row.Cells)
		if err == nil {
			err = r.dec.validate(row.Index, rec)
		}
		if err != nil {
			r.fail(err)
			return false
		}
		r.record = rec
		return true
	}
	if err := r.cur.Err(); err != nil {
		r.fail(&StructuralError{Path: r.path, Part: r.cur.Sheet.Path, Err: err})
		return false
	}
	r.setState(Done)
	_ = r.Close()
	return false
}

// All returns the remaining records as a sequence. A failure is yielded
// once, as the last element. The reader is closed when the sequence ends,
// whether exhausted, stopped early or failed.
func (r *Reader[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.record, nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Import returns the records of the named xlsx file as a lazy sequence.
// The file is opened when the iteration starts, and closed when it ends.
func Import[T any](path string, opts ...Option) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		r, err := Open[T](path, opts...)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		r.All()(yield)
	}
}

// ImportReader is Import reading from ra.
func ImportReader[T any](ra io.ReaderAt, size int64, opts ...Option) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		r, err := OpenReader[T](ra, size, opts...)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		r.All()(yield)
	}
}
