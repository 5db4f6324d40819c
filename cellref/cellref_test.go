// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package cellref_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/UNO-SOFT/recordsheet/cellref"
)

func TestColumnIndex(t *testing.T) {
	for _, tc := range []struct {
		Letters string
		Index   int
	}{
		{"A", 1}, {"B", 2}, {"Z", 26}, {"AA", 27}, {"AB", 28}, {"AZ", 52},
		{"BA", 53}, {"ZZ", 702}, {"AAA", 703}, {"AAB", 704}, {"XFD", 16384},
	} {
		got, err := cellref.ColumnIndex(tc.Letters)
		require.NoError(t, err, tc.Letters)
		assert.Equal(t, tc.Index, got, tc.Letters)

		letters, err := cellref.ColumnLetters(tc.Index)
		require.NoError(t, err, tc.Index)
		assert.Equal(t, tc.Letters, letters, tc.Index)
	}
}

func TestColumnIndexInvalid(t *testing.T) {
	for _, in := range []string{"", "a", "Ab", "A1", "Á", "-", "AAAAAAAAAAAAA"} {
		_, err := cellref.ColumnIndex(in)
		var se *cellref.SyntaxError
		assert.ErrorAs(t, err, &se, "%q", in)
	}
	for _, idx := range []int{0, -1} {
		_, err := cellref.ColumnLetters(idx)
		assert.ErrorIs(t, err, cellref.ErrOutOfRange, "%d", idx)
	}
}

func TestColumnRoundTrip(t *testing.T) {
	for i := 1; i <= 1000; i++ {
		letters, err := cellref.ColumnLetters(i)
		require.NoError(t, err)
		want, err := excelize.ColumnNumberToName(i)
		require.NoError(t, err)
		require.Equal(t, want, letters, "%d", i)
		idx, err := cellref.ColumnIndex(letters)
		require.NoError(t, err)
		require.Equal(t, i, idx, letters)
	}
}

func TestParseCell(t *testing.T) {
	for _, tc := range []struct {
		In  string
		Col string
		Row int
	}{
		{"A1", "A", 1}, {"Z10", "Z", 10}, {"AA1", "AA", 1},
		{"ZZ99", "ZZ", 99}, {"AAA100", "AAA", 100}, {"AB123", "AB", 123},
	} {
		c, err := cellref.ParseCell(tc.In)
		require.NoError(t, err, tc.In)
		assert.Equal(t, tc.Col, c.Col)
		assert.Equal(t, tc.Row, c.Row)
		assert.Equal(t, tc.In, c.String())
	}
}

func TestParseCellInvalid(t *testing.T) {
	for _, in := range []string{"", "A", "1", "A0", "a1", "A1B", "A-1", " A1"} {
		_, err := cellref.ParseCell(in)
		var se *cellref.SyntaxError
		assert.ErrorAs(t, err, &se, "%q", in)
	}
}

func TestAddColumns(t *testing.T) {
	for _, tc := range []struct {
		Start string
		N     int
		Want  string
	}{
		{"A10", 0, "A10"},
		{"A10", 10, "K10"},
		{"A10", 30, "AE10"},
		{"D10", 22, "Z10"},
		{"D10", 23, "AA10"},
		{"AA10", 10, "AK10"},
		{"D10", -3, "A10"},
		{"AA10", 26, "BA10"},
		{"BA10", 649, "ZZ10"},
		{"ZZ10", 1, "AAA10"},
		{"ZZ10", 1379, "CBA10"},
		{"A10", 1, "B10"},
	} {
		got, err := cellref.MustParseCell(tc.Start).AddColumns(tc.N)
		require.NoError(t, err)
		assert.Equal(t, tc.Want, got.String(), "%s%+d", tc.Start, tc.N)
	}

	_, err := cellref.MustParseCell("D10").AddColumns(-4)
	assert.ErrorIs(t, err, cellref.ErrOutOfRange)
}

func TestAddRows(t *testing.T) {
	for _, tc := range []struct {
		Start string
		N     int
		Want  string
	}{
		{"A1", 0, "A1"}, {"A1", 1, "A2"}, {"A1", 10, "A11"},
		{"A10", -5, "A5"}, {"B5", 100, "B105"},
	} {
		got, err := cellref.MustParseCell(tc.Start).AddRows(tc.N)
		require.NoError(t, err)
		assert.Equal(t, tc.Want, got.String())
	}
	_, err := cellref.MustParseCell("A1").AddRows(-1)
	assert.True(t, errors.Is(err, cellref.ErrOutOfRange))
}

func TestAddLaws(t *testing.T) {
	c := cellref.MustParseCell("C7")
	for _, n := range []int{0, 1, 5, 26, 700} {
		a, err := c.AddColumns(n)
		require.NoError(t, err)
		b, err := a.AddColumns(-n)
		require.NoError(t, err)
		assert.Equal(t, c, b)

		a, err = c.AddRows(n)
		require.NoError(t, err)
		b, err = a.AddRows(-n)
		require.NoError(t, err)
		assert.Equal(t, c, b)
	}
	ab, err := c.AddColumns(3)
	require.NoError(t, err)
	ab, err = ab.AddColumns(4)
	require.NoError(t, err)
	direct, err := c.AddColumns(7)
	require.NoError(t, err)
	assert.Equal(t, direct, ab)
}

func TestCellCompare(t *testing.T) {
	for _, tc := range []struct {
		A, B string
		Want int
	}{
		{"A1", "A2", -1}, {"A2", "A1", 1}, {"A1", "B1", -1},
		{"B1", "A1", 1}, {"A1", "A1", 0}, {"Z99", "AA1", -1},
	} {
		assert.Equal(t, tc.Want, cellref.MustParseCell(tc.A).Compare(cellref.MustParseCell(tc.B)), "%s<>%s", tc.A, tc.B)
	}
}

func TestParseRange(t *testing.T) {
	for _, tc := range []struct {
		In, From, To string
	}{
		{"A1:B10", "A1", "B10"},
		{"AA1:ZZ100", "AA1", "ZZ100"},
		{"C5:E20", "C5", "E20"},
	} {
		r, err := cellref.ParseRange(tc.In)
		require.NoError(t, err, tc.In)
		assert.Equal(t, tc.From, r.From.String())
		assert.Equal(t, tc.To, r.To.String())
		assert.Equal(t, tc.In, r.String())
		assert.True(t, r.Valid())
	}
	for _, in := range []string{"A1B10", "A1:", ":B10", "invalid", "", "a1:b2", "A0:B1", "B10:A1"} {
		_, err := cellref.ParseRange(in)
		assert.Error(t, err, "%q", in)
	}

	// ordered by (column, row) but not rectangular
	_, err := cellref.ParseRange("A5:B1")
	assert.ErrorIs(t, err, cellref.ErrOutOfRange)
	_, err = cellref.NewRange(cellref.MustParseCell("A5"), cellref.MustParseCell("B1"))
	assert.ErrorIs(t, err, cellref.ErrOutOfRange)
}

func TestRangeLengths(t *testing.T) {
	r, err := cellref.ParseRange("A1:A10")
	require.NoError(t, err)
	assert.Equal(t, 10, r.RowLength())
	assert.Equal(t, 1, r.ColumnLength())

	r, err = cellref.ParseRange("A1:Z1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.RowLength())
	assert.Equal(t, 26, r.ColumnLength())
}

func TestRangeArithmetic(t *testing.T) {
	type op func(cellref.Range, int) (cellref.Range, error)
	for _, tc := range []struct {
		Name string
		Op   op
		In   string
		N    int
		Want string
	}{
		{"rowsBegin", cellref.Range.AddRowsToBeginning, "A1:B10", 1, "A2:B11"},
		{"rowsBegin", cellref.Range.AddRowsToBeginning, "C5:E20", 5, "C10:E25"},
		{"rowsEnd", cellref.Range.AddRowsToEnd, "A1:B10", 1, "A1:B11"},
		{"rowsEnd", cellref.Range.AddRowsToEnd, "C5:E20", 5, "C5:E25"},
		{"colsBegin", cellref.Range.AddColumnsToBeginning, "A1:B10", 1, "B1:C10"},
		{"colsBegin", cellref.Range.AddColumnsToBeginning, "C5:E20", 2, "E5:G20"},
		{"colsEnd", cellref.Range.AddColumnsToEnd, "A1:B10", 1, "A1:C10"},
		{"colsEnd", cellref.Range.AddColumnsToEnd, "C5:E20", 2, "C5:G20"},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			r, err := cellref.ParseRange(tc.In)
			require.NoError(t, err)
			got, err := tc.Op(r, tc.N)
			require.NoError(t, err)
			assert.Equal(t, tc.Want, got.String())
		})
	}

	r, err := cellref.ParseRange("A1:B10")
	require.NoError(t, err)
	_, err = r.AddRowsToEnd(-10)
	assert.Error(t, err)
	_, err = r.AddColumnsToBeginning(-1)
	assert.Error(t, err)
}

func TestRangeContains(t *testing.T) {
	r, err := cellref.ParseRange("A1:B10")
	require.NoError(t, err)
	for _, tc := range []struct {
		Cell string
		Want bool
	}{
		{"A1", true}, {"B10", true}, {"A5", true}, {"C1", false}, {"A11", false},
	} {
		assert.Equal(t, tc.Want, r.Contains(cellref.MustParseCell(tc.Cell)), tc.Cell)
	}
}

func TestRangeWithAndCompare(t *testing.T) {
	r, err := cellref.ParseRange("A1:B10")
	require.NoError(t, err)
	r2, err := r.WithFrom(cellref.MustParseCell("B5"))
	require.NoError(t, err)
	assert.Equal(t, "B5:B10", r2.String())
	r3, err := r.WithTo(cellref.MustParseCell("Z99"))
	require.NoError(t, err)
	assert.Equal(t, "A1:Z99", r3.String())
	_, err = r.WithFrom(cellref.MustParseCell("C1"))
	assert.Error(t, err)

	other, err := cellref.ParseRange("C1:D10")
	require.NoError(t, err)
	assert.Equal(t, -1, r.Compare(other))
	assert.Equal(t, 1, other.Compare(r))
	assert.Equal(t, 0, r.Compare(r))
}
