// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/recordsheet"
	"github.com/UNO-SOFT/recordsheet/cellref"
)

func decodeAll[T any](t *testing.T, r *csv.Reader, opts ...recordsheet.Option) ([]T, error) {
	t.Helper()
	var recs []T
	for rec, err := range recordsheet.DecodeCsv[T](r, opts...) {
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func TestCsvRoundTrip(t *testing.T) {
	want := []person{{"John", 30, 95.5}, {"Jane, Jr.", 41, 0}}
	var buf bytes.Buffer
	require.NoError(t, recordsheet.EncodeCsv(csv.NewWriter(&buf), want))
	assert.Equal(t, "Name,Age,Score\nJohn,30,95.5\n\"Jane, Jr.\",41,0\n", buf.String())

	got, err := decodeAll[person](t, csv.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeCsv(t *testing.T) {
	const data = "report\nAge,Name\n30,John\n31,\n"
	r := csv.NewReader(strings.NewReader(data))
	got, err := decodeAll[person](t, r, recordsheet.WithHeaderRowIndex(1))
	assert.Equal(t, []person{{Name: "John", Age: 30}}, got)
	var rfe *recordsheet.RequiredFieldError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "B4", rfe.Cell.String())
	assert.Equal(t, 4, rfe.Row)

	// the preamble is narrower than the header
	r = csv.NewReader(strings.NewReader("Bank statement\nName,Age\nx,1\n"))
	got, err = decodeAll[person](t, r, recordsheet.WithHeaderRowIndex(1))
	require.NoError(t, err)
	assert.Equal(t, []person{{Name: "x", Age: 1}}, got)

	r = csv.NewReader(strings.NewReader("Name,Age\nJohn,x\n"))
	_, err = decodeAll[person](t, r)
	var fe *recordsheet.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "B2", fe.Cell.String())

	r = csv.NewReader(strings.NewReader("Name,Age\n\"John\n"))
	_, err = decodeAll[person](t, r)
	var se *recordsheet.StructuralError
	assert.ErrorAs(t, err, &se)
}

func TestCsvFiles(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "people.csv")
	w, err := recordsheet.CreateCsv(fn, "iso-8859-2")
	require.NoError(t, err)
	w.Comma = ';'
	want := []person{{"Tűzoltó Árpád", 30, 1.5}}
	require.NoError(t, recordsheet.EncodeCsv(w.Writer, want))
	require.NoError(t, w.Close())

	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "Tűzoltó", "not encoded")

	r, err := recordsheet.OpenCsv(fn, "iso-8859-2")
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, ';', r.Comma)
	assert.Equal(t, -1, r.FieldsPerRecord)
	got, err := decodeAll[person](t, r.Reader)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetEncoding(t *testing.T) {
	enc, err := recordsheet.GetEncoding("UTF-8")
	require.NoError(t, err)
	assert.Nil(t, enc)
	enc, err = recordsheet.GetEncoding("windows-1250")
	require.NoError(t, err)
	assert.NotNil(t, enc)
	_, err = recordsheet.GetEncoding("no-such-charset")
	assert.Error(t, err)
}

func TestCSVWriterOneSheet(t *testing.T) {
	var buf bytes.Buffer
	w := recordsheet.NewCSVWriter(csv.NewWriter(&buf))
	sh, err := w.NewSheet("a", cellref.Range{}, []string{"x"})
	require.NoError(t, err)
	require.NoError(t, sh.Close())
	_, err = w.NewSheet("b", cellref.Range{}, []string{"x"})
	assert.Error(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "x\n", buf.String())
}
