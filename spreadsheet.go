// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package recordsheet maps struct records to and from spreadsheets.
//
// Struct fields are bound to columns with the xlsx struct tag
// (see the binding package). Import streams the rows of the first
// worksheet of an xlsx file as records; Export writes records as rows,
// one worksheet per Group.
package recordsheet

import (
	"io"

	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/convert"
	"github.com/UNO-SOFT/recordsheet/xlsx"
)

// Writer writes the spreadsheet consisting of the sheets created
// with NewSheet. The write finishes when Close is called.
//
// Sheets are written one after the other: NewSheet finishes the previous one.
type Writer interface {
	io.Closer
	NewSheet(name string, dim cellref.Range, header []string) (Sheet, error)
}

// Sheet should be Closed when finished.
type Sheet interface {
	io.Closer
	AppendRow(cells ...convert.Payload) error
}

// Group is a named list of records, written to its own sheet.
type Group[T any] struct {
	Sheet   string
	Records []T
}

var _ = (Writer)(xlsxWriter{})

// NewXLSXWriter returns a Writer streaming an xlsx package into w.
func NewXLSXWriter(w io.Writer) (*XLSXWriter, error) {
	xw, err := xlsx.NewWriter(w)
	if err != nil {
		return nil, err
	}
	return &XLSXWriter{xlsxWriter{xw}}, nil
}

// XLSXWriter is the Writer of xlsx packages.
type XLSXWriter struct{ xlsxWriter }

type xlsxWriter struct{ *xlsx.Writer }

func (w xlsxWriter) NewSheet(name string, dim cellref.Range, header []string) (Sheet, error) {
	sh, err := w.Writer.NewSheet(name, dim, header)
	if err != nil {
		return nil, err
	}
	return sh, nil
}
