// Copyright 2020, 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/UNO-SOFT/recordsheet/binding"
	"github.com/UNO-SOFT/recordsheet/cellref"
	"github.com/UNO-SOFT/recordsheet/convert"
	"github.com/UNO-SOFT/recordsheet/xlsx"
)

// EncName is the charset of the environment (from LANG), utf-8 by default.
var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	} else {
		EncName = ""
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

// GetEncoding returns the encoding named encName, nil for UTF-8.
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

type csvReadCloser struct {
	*csv.Reader
	io.Closer
}

// OpenCsv opens the named csv file (stdin for "" or "-") in the encName charset.
// The separator is guessed from the first line.
func OpenCsv(fn, encName string) (csvReadCloser, error) {
	var enc encoding.Encoding
	if encName != "" {
		var err error
		if enc, err = GetEncoding(encName); err != nil {
			return csvReadCloser{}, err
		}
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return csvReadCloser{}, err
		}
	}
	r := io.ReadCloser(fh)
	if enc != nil {
		r = struct {
			io.Reader
			io.Closer
		}{enc.NewDecoder().Reader(r), r}
	}
	br := bufio.NewReaderSize(r, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		_ = r.Close()
		return csvReadCloser{}, err
	}
	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.Comma = guessSeparator(b)
	return csvReadCloser{cr, r}, nil
}

// guessSeparator returns the first rune of b that cannot be part of a
// column name, or a comma.
func guessSeparator(b []byte) rune {
	for _, r := range string(b) {
		if r == '"' || r == '_' || r == ' ' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		if r == '\r' || r == '\n' {
			break
		}
		return r
	}
	return ','
}

type csvWriteCloser struct {
	*csv.Writer
	closer io.Closer
}

// Close flushes the csv data and closes the underlying file.
func (w csvWriteCloser) Close() error {
	w.Writer.Flush()
	err := w.Writer.Error()
	if w.closer != nil {
		if closeErr := w.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// CreateCsv creates the named csv file (stdout for "" or "-"), writing in the encName charset.
func CreateCsv(fn, encName string) (csvWriteCloser, error) {
	enc, err := GetEncoding(encName)
	if err != nil {
		return csvWriteCloser{}, err
	}
	var w io.Writer = os.Stdout
	var closer io.Closer
	if !(fn == "" || fn == "-") {
		fh, err := os.Create(fn)
		if err != nil {
			return csvWriteCloser{}, err
		}
		w, closer = fh, fh
	}
	if enc != nil {
		w = enc.NewEncoder().Writer(w)
	}
	return csvWriteCloser{Writer: csv.NewWriter(w), closer: closer}, nil
}

// DecodeCsv returns the records of r as a sequence, the same way as Import:
// the header row is found by WithHeaderRowIndex, and each following line is a record.
// Cell addresses in errors are computed from the line and field numbers.
// Lines may differ in width, so preamble lines before the header are skipped
// whatever their field count: DecodeCsv sets r.FieldsPerRecord to -1.
func DecodeCsv[T any](r *csv.Reader, opts ...Option) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		r.FieldsPerRecord = -1
		var zero T
		cfg := newConfig(opts)
		if cfg.headerRow < 0 {
			yield(zero, fmt.Errorf("%d: %w", cfg.headerRow, ErrHeaderRowIndex))
			return
		}
		list, err := binding.For[T](cfg.resolver)
		if err != nil {
			yield(zero, err)
			return
		}
		dec := newRowDecoder[T](list, &cfg)
		var cells []xlsx.Cell
		for row := 1; ; row++ {
			rec, err := r.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(zero, &StructuralError{Part: "csv", Err: err})
				}
				return
			}
			if row <= cfg.headerRow {
				continue
			}
			cells = cells[:0]
			for i, s := range rec {
				cells = append(cells, xlsx.Cell{Col: i + 1, Text: s})
			}
			if !dec.header {
				dec.setHeader(cells)
				continue
			}
			v, err := dec.decode(row, cells)
			if err == nil {
				err = dec.validate(row, v)
			}
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// EncodeCsv writes the header and the records to w, and flushes it.
func EncodeCsv[T any](w *csv.Writer, records []T, opts ...Option) error {
	cw := NewCSVWriter(w)
	if err := WriteSheets(cw, []Group[T]{{Sheet: DefaultSheetName, Records: records}}, opts...); err != nil {
		return err
	}
	return cw.Close()
}

var errOneSheet = errors.New("csv holds one sheet only")

// CSVWriter is a Writer of a single sheet of csv. Cells are written as
// their payload text.
type CSVWriter struct {
	w     *csv.Writer
	sheet *csvSheet
}

var _ = (Writer)((*CSVWriter)(nil))

// NewCSVWriter returns a Writer of w.
func NewCSVWriter(w *csv.Writer) *CSVWriter { return &CSVWriter{w: w} }

// NewSheet writes the header. The name and the dimension are not stored.
func (cw *CSVWriter) NewSheet(name string, dim cellref.Range, header []string) (Sheet, error) {
	if cw.sheet != nil {
		return nil, fmt.Errorf("%q: %w", name, errOneSheet)
	}
	if err := cw.w.Write(header); err != nil {
		return nil, err
	}
	cw.sheet = &csvSheet{w: cw.w, record: make([]string, 0, len(header))}
	return cw.sheet, nil
}

// Close flushes the writer.
func (cw *CSVWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}

type csvSheet struct {
	w      *csv.Writer
	record []string
}

func (sh *csvSheet) AppendRow(cells ...convert.Payload) error {
	sh.record = sh.record[:0]
	for _, c := range cells {
		sh.record = append(sh.record, c.Text)
	}
	return sh.w.Write(sh.record)
}

func (sh *csvSheet) Close() error {
	sh.w.Flush()
	return sh.w.Error()
}
