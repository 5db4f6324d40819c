// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/UNO-SOFT/recordsheet/binding"
	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/convert"
	"github.com/UNO-SOFT/recordsheet/xlsx"
)

// Export writes records as an xlsx package with one sheet,
// named DefaultSheetName unless WithSheetName says otherwise.
func Export[T any](w io.Writer, records []T, opts ...Option) error {
	name := newConfig(opts).sheetName
	if name == "" {
		name = DefaultSheetName
	}
	return ExportSheets(w, []Group[T]{{Sheet: name, Records: records}}, opts...)
}

// ExportFile is Export into the named file.
func ExportFile[T any](path string, records []T, opts ...Option) error {
	return exportFile(path, func(w io.Writer) error { return Export(w, records, opts...) })
}

// ExportSheets writes each group as a sheet of an xlsx package, in order.
// Nothing is written to w if an error occurs.
func ExportSheets[T any](w io.Writer, groups []Group[T], opts ...Option) error {
	if err := checkSheetNames(groups); err != nil {
		return err
	}
	xw, err := NewXLSXWriter(w)
	if err != nil {
		return err
	}
	if err := WriteSheets(xw, groups, opts...); err != nil {
		_ = xw.Discard()
		return err
	}
	return xw.Close()
}

// ExportSheetsFile is ExportSheets into the named file.
func ExportSheetsFile[T any](path string, groups []Group[T], opts ...Option) error {
	return exportFile(path, func(w io.Writer) error { return ExportSheets(w, groups, opts...) })
}

func exportFile(path string, export func(io.Writer) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = export(fh); err == nil {
		err = fh.Close()
	} else {
		_ = fh.Close()
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func checkSheetNames[T any](groups []Group[T]) error {
	if len(groups) == 0 {
		return fmt.Errorf("no groups: %w", ErrSheetName)
	}
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g.Sheet == "" {
			return fmt.Errorf("empty name: %w", ErrSheetName)
		}
		// sheet names are case-insensitive
		k := strings.ToLower(g.Sheet)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%q: duplicate: %w", g.Sheet, ErrSheetName)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// WriteSheets writes the groups into w, one sheet each.
// It does not Close w.
func WriteSheets[T any](w Writer, groups []Group[T], opts ...Option) error {
	cfg := newConfig(opts)
	list, err := binding.For[T](cfg.resolver)
	if err != nil {
		return err
	}
	if err := checkSheetNames(groups); err != nil {
		return err
	}
	for _, g := range groups {
		if err := writeSheet(w, list, g, &cfg); err != nil {
			return err
		}
	}
	return nil
}

func writeSheet[T any](w Writer, list *binding.List, g Group[T], cfg *config) error {
	cfg.logger.Debug("export", "sheet", g.Sheet, "records", len(g.Records), "columns", list.Len())
	if len(g.Records)+1 > xlsx.MaxRowCount {
		return fmt.Errorf("%s: %d records: %w", g.Sheet, len(g.Records), ErrTooManyRows)
	}
	to, err := cellref.CellAt(list.Len(), len(g.Records)+1)
	if err != nil {
		return err
	}
	dim, err := cellref.NewRange(cellref.Cell{Col: "A", Row: 1}, to)
	if err != nil {
		return err
	}
	sh, err := w.NewSheet(g.Sheet, dim, list.Names())
	if err != nil {
		return err
	}
	cells := make([]convert.Payload, list.Len())
	for i := range g.Records {
		row := i + 2
		if err := encodeRecord(cells, list, reflect.ValueOf(&g.Records[i]).Elem(), row); err != nil {
			_ = sh.Close()
			return fmt.Errorf("%s: %w", g.Sheet, err)
		}
		if err := sh.AppendRow(cells...); err != nil {
			_ = sh.Close()
			return err
		}
	}
	return sh.Close()
}

// encodeRecord fills cells with the payloads of the fields of rv,
// written to the row-th row.
func encodeRecord(cells []convert.Payload, list *binding.List, rv reflect.Value, row int) error {
	for j := range list.Fields {
		f := &list.Fields[j]
		cells[j] = convert.Payload{}
		v, ok := f.Value(rv)
		if ok {
			p, err := f.Converter.Format(v)
			if err != nil {
				cell, _ := cellref.CellAt(j+1, row)
				return &FormatError{Cell: cell, Column: f.Name, Text: fmt.Sprint(v), Err: err}
			}
			cells[j] = p
		}
		if f.Required && cells[j].IsZero() {
			cell, _ := cellref.CellAt(j+1, row)
			return &RequiredFieldError{Cell: cell, Column: f.Name, Row: row}
		}
	}
	return nil
}
