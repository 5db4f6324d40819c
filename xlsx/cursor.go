// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/UNO-SOFT/recordsheet/cellref"
)

// ErrRowIndex is returned for a row carrying an invalid r attribute (such as 0).
var ErrRowIndex = errors.New("invalid row index")

// Cell types as found in the t attribute.
const (
	TypeNumber       = "n"
	TypeSharedString = "s"
	TypeInlineString = "inlineStr"
	TypeString       = "str"
	TypeBool         = "b"
	TypeError        = "e"
	TypeDate         = "d"
)

// Cell is a cell of a worksheet row, with its text resolved.
type Cell struct {
	// Col is the 1-based column index.
	Col int
	// Ref is the r attribute, possibly empty.
	Ref  string
	Type string
	// Text is the value: shared and inline strings are resolved,
	// booleans are TRUE or FALSE.
	Text string
}

// Row is a worksheet row. Its Cells are reused by the next call of Cursor.Next.
type Row struct {
	// Index is the 1-based row number.
	Index int
	Cells []Cell
}

// Cursor is a forward-only reader of worksheet rows.
type Cursor struct {
	Sheet SheetEntry

	rc        io.ReadCloser
	dec       *xml.Decoder
	shared    func() ([]string, error)
	dimension string
	row       Row
	lastRow   int
	done      bool
	err       error
}

func newCursor(sheet SheetEntry, rc io.ReadCloser, shared func() ([]string, error)) (*Cursor, error) {
	c := &Cursor{Sheet: sheet, rc: rc, dec: xml.NewDecoder(rc), shared: shared}
	if err := c.seekSheetData(); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return c, nil
}

// Dimension returns the declared dimension reference ("A1:C10"), if any.
// It is advisory only.
func (c *Cursor) Dimension() string { return c.dimension }

// Err returns the first error met by Next.
func (c *Cursor) Err() error { return c.err }

// Row returns the row read by the last successful Next.
func (c *Cursor) Row() *Row { return &c.row }

// Close releases the worksheet reader. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c == nil || c.rc == nil {
		return nil
	}
	rc := c.rc
	c.rc, c.done = nil, true
	return rc.Close()
}

// seekSheetData reads up to the sheetData start element,
// collecting the dimension on the way.
func (c *Cursor) seekSheetData() error {
	for {
		tok, err := c.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.done = true
				return nil
			}
			return fmt.Errorf("%s: %w", c.Sheet.Path, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "dimension":
			c.dimension = attr(se, "ref")
		case "sheetData":
			return nil
		}
	}
}

// Next reads the next row. It returns false at the end of the sheet data
// or on error; check Err.
func (c *Cursor) Next() bool {
	if c.done || c.err != nil {
		return false
	}
	for {
		tok, err := c.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.err = fmt.Errorf("%s: %w", c.Sheet.Path, err)
			}
			c.done = true
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "row" {
				if err := c.dec.Skip(); err != nil {
					c.err = fmt.Errorf("%s: %w", c.Sheet.Path, err)
					return false
				}
				continue
			}
			if err := c.readRow(t); err != nil {
				c.err = fmt.Errorf("%s: %w", c.Sheet.Path, err)
				return false
			}
			return true
		case xml.EndElement:
			if t.Name.Local == "sheetData" {
				c.done = true
				return false
			}
		}
	}
}

func (c *Cursor) readRow(se xml.StartElement) error {
	c.row.Cells = c.row.Cells[:0]
	c.row.Index = c.lastRow + 1
	if r := attr(se, "r"); r != "" {
		n, err := strconv.Atoi(r)
		if err != nil || n < 1 {
			return fmt.Errorf("row r=%q: %w", r, ErrRowIndex)
		}
		c.row.Index = n
	}
	c.lastRow = c.row.Index
	lastCol := 0
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "c" {
				if err := c.dec.Skip(); err != nil {
					return err
				}
				continue
			}
			cell, err := c.readCell(t, lastCol)
			if err != nil {
				return err
			}
			lastCol = cell.Col
			c.row.Cells = append(c.row.Cells, cell)
		case xml.EndElement:
			if t.Name.Local == "row" {
				return nil
			}
		}
	}
}

func (c *Cursor) readCell(se xml.StartElement, lastCol int) (Cell, error) {
	cell := Cell{Col: lastCol + 1, Ref: attr(se, "r"), Type: attr(se, "t")}
	if cell.Ref != "" {
		ref, err := cellref.ParseCell(cell.Ref)
		if err != nil {
			return cell, err
		}
		cell.Col = ref.ColIndex()
	}
	if cell.Type == "" {
		cell.Type = TypeNumber
	}
	var value, inline strings.Builder
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return cell, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "v":
				var s string
				if err := c.dec.DecodeElement(&s, &t); err != nil {
					return cell, err
				}
				value.WriteString(s)
			case "is":
				if err := c.readInline(&inline); err != nil {
					return cell, err
				}
			default:
				if err := c.dec.Skip(); err != nil {
					return cell, err
				}
			}
		case xml.EndElement:
			if t.Name.Local != "c" {
				continue
			}
			text, err := c.resolve(cell, value.String(), inline.String())
			if err != nil {
				return cell, err
			}
			cell.Text = text
			return cell, nil
		}
	}
}

// readInline collects the t elements of an is element, skipping phonetic runs.
func (c *Cursor) readInline(buf *strings.Builder) error {
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var s string
				if err := c.dec.DecodeElement(&s, &t); err != nil {
					return err
				}
				buf.WriteString(s)
			case "rPh":
				if err := c.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "is" {
				return nil
			}
		}
	}
}

func (c *Cursor) resolve(cell Cell, value, inline string) (string, error) {
	switch cell.Type {
	case TypeInlineString:
		return inline, nil
	case TypeSharedString:
		if value == "" {
			return "", nil
		}
		idx, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%s: shared string index %q: %w", c.ref(cell), value, err)
		}
		sst, err := c.shared()
		if err != nil {
			return "", err
		}
		if sst == nil {
			return "", fmt.Errorf("%s: %w", c.ref(cell), ErrNoSharedStrings)
		}
		if idx < 0 || idx >= len(sst) {
			return "", fmt.Errorf("%s: shared string index %d out of range [0, %d)", c.ref(cell), idx, len(sst))
		}
		return sst[idx], nil
	case TypeBool:
		switch value {
		case "1":
			return "TRUE", nil
		case "0":
			return "FALSE", nil
		}
	}
	return value, nil
}

func (c *Cursor) ref(cell Cell) string {
	if cell.Ref != "" {
		return cell.Ref
	}
	if ref, err := cellref.CellAt(cell.Col, c.row.Index); err == nil {
		return ref.String()
	}
	return strconv.Itoa(cell.Col)
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
