// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrNoWorkbook is returned when the package has no workbook part.
	ErrNoWorkbook = errors.New("no workbook part")
	// ErrNoWorksheet is returned when the workbook lists no worksheet.
	ErrNoWorksheet = errors.New("no worksheet part")
	// ErrNoSharedStrings is returned when a cell refers to a missing shared string table.
	ErrNoSharedStrings = errors.New("no shared string table")
)

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeWorksheet      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relTypeSharedStrings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
)

type xmlRelationships struct {
	Relationships []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type xmlWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type xmlSST struct {
	SI []struct {
		T string `xml:"t"`
		R []struct {
			T string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// SheetEntry is a worksheet of the workbook, in workbook order.
type SheetEntry struct {
	Name string
	Path string
}

// Package is an opened xlsx package.
//
// It reads only what is asked for: the workbook part at open,
// the shared strings table on first use, and worksheets as cursors.
type Package struct {
	zr           *zip.ReadCloser // non-nil when opened by file name
	zf           *zip.Reader
	files        map[string]*zip.File
	workbookPath string
	sheets       []SheetEntry
	sstPath      string
	sst          []string
	sstLoaded    bool
}

// Open the named xlsx file. The caller must Close the returned Package.
func Open(name string) (*Package, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	p := &Package{zr: rc, zf: &rc.Reader}
	if err := p.parse(); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return p, nil
}

// OpenReader reads an xlsx package from r, which has size bytes.
func OpenReader(r io.ReaderAt, size int64) (*Package, error) {
	zf, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	p := &Package{zf: zf}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p, nil
}

// Close releases the underlying file, if the package was opened by name.
func (p *Package) Close() error {
	if p == nil || p.zr == nil {
		return nil
	}
	zr := p.zr
	p.zr = nil
	return zr.Close()
}

// Workbook returns the path of the workbook part.
func (p *Package) Workbook() string { return p.workbookPath }

// Sheets returns the worksheets in workbook order.
func (p *Package) Sheets() []SheetEntry { return p.sheets }

func (p *Package) parse() error {
	p.files = make(map[string]*zip.File, len(p.zf.File))
	for _, f := range p.zf.File {
		p.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	p.workbookPath = "xl/workbook.xml"
	if rels, err := p.readRels("_rels/.rels"); err == nil {
		for _, rel := range rels {
			if rel.Type == relTypeOfficeDocument {
				p.workbookPath = resolveTarget("", rel.Target)
				break
			}
		}
	}
	var wb xmlWorkbook
	if err := p.unmarshal(p.workbookPath, &wb); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", p.workbookPath, ErrNoWorkbook)
		}
		return err
	}

	dir := path.Dir(p.workbookPath)
	relsPath := path.Join(dir, "_rels", path.Base(p.workbookPath)+".rels")
	rels, err := p.readRels(relsPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	byID := make(map[string]xmlRelationship, len(rels))
	for _, rel := range rels {
		byID[rel.ID] = rel
		if rel.Type == relTypeSharedStrings {
			p.sstPath = resolveTarget(dir, rel.Target)
		}
	}
	if p.sstPath == "" {
		if _, ok := p.files[path.Join(dir, "sharedStrings.xml")]; ok {
			p.sstPath = path.Join(dir, "sharedStrings.xml")
		}
	}
	for i, s := range wb.Sheets {
		var target string
		if rel, ok := byID[s.RID]; ok && (rel.Type == "" || rel.Type == relTypeWorksheet) {
			target = resolveTarget(dir, rel.Target)
		} else if rel.Type == "" {
			target = path.Join(dir, "worksheets", fmt.Sprintf("sheet%d.xml", i+1))
		}
		if _, ok := p.files[target]; !ok {
			continue
		}
		p.sheets = append(p.sheets, SheetEntry{Name: s.Name, Path: target})
	}
	if len(p.sheets) == 0 {
		return fmt.Errorf("%s: %w", p.workbookPath, ErrNoWorksheet)
	}
	return nil
}

// resolveTarget resolves a relationship target relative to dir.
func resolveTarget(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(dir, target))
}

func (p *Package) open(name string) (io.ReadCloser, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rc, nil
}

func (p *Package) unmarshal(name string, v any) error {
	rc, err := p.open(name)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (p *Package) readRels(name string) ([]xmlRelationship, error) {
	var rels xmlRelationships
	if err := p.unmarshal(name, &rels); err != nil {
		return nil, err
	}
	return rels.Relationships, nil
}

// SharedStrings returns the shared string table, loading it on first call.
// It returns nil without error when the package has none.
func (p *Package) SharedStrings() ([]string, error) {
	if p.sstLoaded {
		return p.sst, nil
	}
	if p.sstPath == "" {
		p.sstLoaded = true
		return nil, nil
	}
	var sst xmlSST
	if err := p.unmarshal(p.sstPath, &sst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			p.sstLoaded = true
			return nil, nil
		}
		return nil, err
	}
	p.sst = make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if len(si.R) == 0 {
			p.sst[i] = si.T
			continue
		}
		var buf strings.Builder
		buf.WriteString(si.T)
		for _, r := range si.R {
			buf.WriteString(r.T)
		}
		p.sst[i] = buf.String()
	}
	p.sstLoaded = true
	return p.sst, nil
}

// FirstSheet opens a cursor on the first worksheet.
func (p *Package) FirstSheet() (*Cursor, error) { return p.OpenSheet(0) }

// SheetByName opens a cursor on the named worksheet, ignoring case.
func (p *Package) SheetByName(name string) (*Cursor, error) {
	for i, s := range p.sheets {
		if strings.EqualFold(s.Name, name) {
			return p.OpenSheet(i)
		}
	}
	return nil, fmt.Errorf("sheet %q: %w", name, ErrNoWorksheet)
}

// OpenSheet opens a cursor on the idx-th (0-based) worksheet.
func (p *Package) OpenSheet(idx int) (*Cursor, error) {
	if idx < 0 || idx >= len(p.sheets) {
		return nil, fmt.Errorf("sheet index %d out of range [0, %d): %w", idx, len(p.sheets), ErrNoWorksheet)
	}
	rc, err := p.open(p.sheets[idx].Path)
	if err != nil {
		return nil, err
	}
	return newCursor(p.sheets[idx], rc, p.SharedStrings)
}
