// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx reads and writes xlsx packages row by row.
//
// Reading goes through Package and Cursor, which stream the worksheet XML
// without loading the sheet into memory. Writing goes through Writer, which
// uses the excelize stream writer.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"

	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/convert"
)

const (
	// MaxRowCount is the number of maximum rows.
	MaxRowCount = 1_048_576
	// MaxColumnCount is the number of maximum columns.
	MaxColumnCount = 16_384

	DateTimeFormat = "yyyy-mm-dd hh:mm:ss"
	CurrencyFormat = "#,##0.00"
)

var (
	ErrTooManyRows    = errors.New("too many rows")
	ErrTooManyColumns = errors.New("too many columns")
	ErrSheetName      = errors.New("invalid sheet name")
	ErrClosed         = errors.New("writer closed")
)

// Writer writes an xlsx package, one sheet after the other.
// Creating a new sheet finishes the previous one.
// The package is written to the underlying io.Writer by Close.
type Writer struct {
	w      io.Writer
	xl     *excelize.File
	styles [3]int
	sheets []string
	cur    *Sheet
	mu     sync.Mutex
}

// Sheet is a worksheet being streamed.
type Sheet struct {
	xlw  *Writer
	sw   *excelize.StreamWriter
	Name string
	row  int
	cols int
}

// NewWriter returns a Writer with the general, date-time and currency styles.
func NewWriter(w io.Writer) (*Writer, error) {
	xl := excelize.NewFile()
	xl.SetZipWriter(func(w io.Writer) excelize.ZipWriter { return zipWriter{zip.NewWriter(w)} })
	xlw := &Writer{w: w, xl: xl}
	for _, s := range []struct {
		Style  convert.Style
		Format string
	}{
		{convert.StyleDateTime, DateTimeFormat},
		{convert.StyleCurrency, CurrencyFormat},
	} {
		format := s.Format
		id, err := xl.NewStyle(&excelize.Style{CustomNumFmt: &format})
		if err != nil {
			_ = xl.Close()
			return nil, fmt.Errorf("style %q: %w", format, err)
		}
		xlw.styles[s.Style] = id
	}
	return xlw, nil
}

// Sheets returns the names of the sheets created so far.
func (xlw *Writer) Sheets() []string {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	return append([]string(nil), xlw.sheets...)
}

// Close finishes the last sheet and writes the package.
func (xlw *Writer) Close() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl, w := xlw.xl, xlw.w
	xlw.xl, xlw.w = nil, nil
	if xl == nil || w == nil {
		return nil
	}
	defer xl.Close()
	if err := xlw.flush(); err != nil {
		return err
	}
	if len(xlw.sheets) == 0 {
		return fmt.Errorf("no sheets: %w", ErrSheetName)
	}
	_, err := xl.WriteTo(w)
	return err
}

// Discard releases the resources without writing anything.
func (xlw *Writer) Discard() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	xl := xlw.xl
	if xlw.cur != nil {
		xlw.cur.sw = nil
	}
	xlw.xl, xlw.w, xlw.cur = nil, nil, nil
	if xl == nil {
		return nil
	}
	return xl.Close()
}

func (xlw *Writer) flush() error {
	cur := xlw.cur
	xlw.cur = nil
	if cur == nil || cur.sw == nil {
		return nil
	}
	sw := cur.sw
	cur.sw = nil
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("%s: %w", cur.Name, err)
	}
	return nil
}

// NewSheet finishes the previous sheet and starts a new one,
// with the declared dimension and the header row.
func (xlw *Writer) NewSheet(name string, dim cellref.Range, header []string) (*Sheet, error) {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	if xlw.xl == nil {
		return nil, ErrClosed
	}
	if len(header) > MaxColumnCount {
		return nil, fmt.Errorf("%s: %d: %w", name, len(header), ErrTooManyColumns)
	}
	if name == "" {
		return nil, fmt.Errorf("empty name: %w", ErrSheetName)
	}
	for _, s := range xlw.sheets {
		if strings.EqualFold(s, name) {
			return nil, fmt.Errorf("%q: duplicate: %w", name, ErrSheetName)
		}
	}
	if err := xlw.flush(); err != nil {
		return nil, err
	}
	if len(xlw.sheets) == 0 { // first
		if err := xlw.xl.SetSheetName("Sheet1", name); err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
	} else if _, err := xlw.xl.NewSheet(name); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	xlw.sheets = append(xlw.sheets, name)
	if dim.Valid() {
		if err := xlw.xl.SetSheetDimension(name, dim.String()); err != nil {
			return nil, fmt.Errorf("%s[%s]: %w", name, dim, err)
		}
	}
	sw, err := xlw.xl.NewStreamWriter(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	xls := &Sheet{xlw: xlw, sw: sw, Name: name, cols: len(header)}
	xlw.cur = xls
	if len(header) != 0 {
		values := make([]any, len(header))
		for i, h := range header {
			values[i] = h
		}
		if err := xls.setRow(values); err != nil {
			return nil, err
		}
	}
	return xls, nil
}

// Close finishes the sheet.
func (xls *Sheet) Close() error {
	xls.xlw.mu.Lock()
	defer xls.xlw.mu.Unlock()
	if xls.xlw.cur != xls {
		return nil
	}
	return xls.xlw.flush()
}

// AppendRow writes the next row. Cells without payload are left out.
func (xls *Sheet) AppendRow(cells ...convert.Payload) error {
	xls.xlw.mu.Lock()
	defer xls.xlw.mu.Unlock()
	if xls.sw == nil {
		return fmt.Errorf("%s: %w", xls.Name, ErrClosed)
	}
	if xls.cols != 0 && len(cells) > xls.cols {
		return fmt.Errorf("%s: %d cells for %d columns: %w", xls.Name, len(cells), xls.cols, ErrTooManyColumns)
	}
	values := make([]any, len(cells))
	for i, p := range cells {
		v, err := cellValue(p)
		if err != nil {
			ref, _ := cellref.CellAt(i+1, xls.row+1)
			return fmt.Errorf("%s[%s]: %w", xls.Name, ref, err)
		}
		if v == nil {
			continue
		}
		values[i] = excelize.Cell{StyleID: xls.xlw.styles[p.Style], Value: v}
	}
	return xls.setRow(values)
}

func (xls *Sheet) setRow(values []any) error {
	if xls.row >= MaxRowCount {
		return fmt.Errorf("%s: %w", xls.Name, ErrTooManyRows)
	}
	if len(values) > MaxColumnCount {
		return fmt.Errorf("%s: %d: %w", xls.Name, len(values), ErrTooManyColumns)
	}
	xls.row++
	axis, err := cellref.CellAt(1, xls.row)
	if err != nil {
		return fmt.Errorf("%s/%d: %w", xls.Name, xls.row, err)
	}
	if err := xls.sw.SetRow(axis.String(), values); err != nil {
		return fmt.Errorf("%s[%s]: %w", xls.Name, axis, err)
	}
	return nil
}

// cellValue returns the typed value the stream writer should emit.
func cellValue(p convert.Payload) (any, error) {
	switch p.Kind {
	case convert.KindNone:
		return nil, nil
	case convert.KindBool:
		return convert.ParseBool(p.Text)
	case convert.KindNumber:
		if i, err := strconv.ParseInt(p.Text, 10, 64); err == nil {
			return i, nil
		}
		f, err := convert.ParseFloat(p.Text, 64)
		if err != nil {
			return nil, err
		}
		if strconv.FormatFloat(f, 'f', -1, 64) == p.Text {
			return f, nil
		}
		// keep the digits that would not survive a float64
		return p.Text, nil
	default:
		return p.Text, nil
	}
}

type zipWriter struct{ *zip.Writer }

// AddFS adds the files of fsys, walking it in lexical order.
func (zw zipWriter) AddFS(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		return err
	})
}
