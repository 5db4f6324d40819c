// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet

import (
	"reflect"

	"github.com/UNO-SOFT/recordsheet/binding"
	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/xlsx"
)

// rowDecoder turns rows into records, by the column names of the header row.
type rowDecoder[T any] struct {
	list   *binding.List
	cfg    *config
	byCol  map[int]int // column index -> field index
	colOf  []int       // field index -> column index, 0 if absent
	seen   []bool
	header bool
}

func newRowDecoder[T any](list *binding.List, cfg *config) *rowDecoder[T] {
	return &rowDecoder[T]{
		list:  list,
		cfg:   cfg,
		byCol: make(map[int]int, list.Len()),
		colOf: make([]int, list.Len()),
		seen:  make([]bool, list.Len()),
	}
}

// setHeader maps the header cells to the bindings. Unknown columns are ignored.
func (d *rowDecoder[T]) setHeader(cells []xlsx.Cell) {
	d.header = true
	for _, c := range cells {
		fi := d.list.Index(c.Text)
		if fi < 0 {
			d.cfg.logger.Debug("ignore column", "col", c.Col, "header", c.Text)
			continue
		}
		if d.colOf[fi] != 0 {
			d.cfg.logger.Debug("duplicate column", "col", c.Col, "header", c.Text, "first", d.colOf[fi])
			continue
		}
		d.colOf[fi] = c.Col
		d.byCol[c.Col] = fi
	}
	d.cfg.logger.Debug("header", "columns", d.byCol, "type", d.list.Type)
}

// decode the cells of the row-th row.
func (d *rowDecoder[T]) decode(row int, cells []xlsx.Cell) (T, error) {
	var rec T
	rv := reflect.ValueOf(&rec).Elem()
	clear(d.seen)
	for _, c := range cells {
		fi, ok := d.byCol[c.Col]
		if !ok {
			continue
		}
		d.seen[fi] = true
		if err := d.setField(rv, &d.list.Fields[fi], c, row); err != nil {
			return rec, err
		}
	}
	for fi := range d.list.Fields {
		f := &d.list.Fields[fi]
		if !f.Required || d.seen[fi] {
			continue
		}
		var cell cellref.Cell
		if col := d.colOf[fi]; col != 0 {
			cell, _ = cellref.CellAt(col, row)
		}
		return rec, &RequiredFieldError{Cell: cell, Column: f.Name, Row: row}
	}
	return rec, nil
}

func (d *rowDecoder[T]) setField(rv reflect.Value, f *binding.Field, c xlsx.Cell, row int) error {
	if c.Text == "" {
		if f.Required {
			cell, _ := cellref.CellAt(c.Col, row)
			return &RequiredFieldError{Cell: cell, Column: f.Name, Row: row}
		}
		return nil
	}
	if f.Text {
		return f.Set(rv, c.Text)
	}
	v, err := f.Converter.Parse(c.Text)
	if err == nil && v == nil && f.Required {
		cell, _ := cellref.CellAt(c.Col, row)
		return &RequiredFieldError{Cell: cell, Column: f.Name, Row: row}
	}
	if err == nil {
		err = f.Set(rv, v)
	}
	if err != nil {
		cell, _ := cellref.CellAt(c.Col, row)
		fe := &FormatError{Cell: cell, Column: f.Name, Text: c.Text, Err: err}
		if f.Required {
			return &RequiredFieldError{Cell: cell, Column: f.Name, Row: row, Err: fe}
		}
		return fe
	}
	return nil
}

// validate the record, if a validator is configured.
func (d *rowDecoder[T]) validate(row int, rec T) error {
	if d.cfg.validate == nil {
		return nil
	}
	if err := d.cfg.validate.Struct(rec); err != nil {
		return &ValidationError{Row: row, Err: err}
	}
	return nil
}
