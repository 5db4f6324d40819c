// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package binding resolves the column bindings of struct types.
//
// A field takes part if it is exported and carries an xlsx tag:
//
//	Name  string  `xlsx:"Name,pos=1,required"`
//	Total decimal.Decimal `xlsx:"Total,conv=amount"`
//
// The first tag element is the column name (the field name if empty),
// "pos=N" orders the column, "required" makes it mandatory and "conv=name"
// selects a converter registered with convert.Registry.RegisterNamed,
// which must convert the type of the field.
// Fields promoted from embedded structs are included, but not through
// embedded pointers.
package binding

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/UNO-SOFT/recordsheet/convert"
)

// TagName is the struct tag key.
const TagName = "xlsx"

// Unordered is the position of fields without pos=; they sort last.
const Unordered = math.MaxInt

var (
	ErrNotStruct        = errors.New("not a struct")
	ErrNoColumns        = errors.New("no tagged fields")
	ErrDuplicateColumn  = errors.New("duplicate column")
	ErrUnknownConverter = errors.New("unknown named converter")
	ErrTag              = errors.New("invalid tag")
)

// Field binds one struct field to a column.
type Field struct {
	// Name is the column name, matched case-insensitively.
	Name string
	// GoName is the name of the struct field.
	GoName   string
	Index    []int
	Position int
	Required bool
	// Type is the declared type of the field.
	Type reflect.Type
	// ConverterName is the conv= override, if any.
	ConverterName string
	Converter     convert.Converter
	// Text fields get the raw cell text.
	Text bool
	// Ptr is true for pointer fields, which may be nil.
	Ptr bool
}

// Value returns the value of the field in the struct v.
// ok is false for nil pointer fields.
func (f *Field) Value(v reflect.Value) (value any, ok bool) {
	fv := v.FieldByIndex(f.Index)
	if f.Ptr {
		if fv.IsNil() {
			return nil, false
		}
		fv = fv.Elem()
	}
	return fv.Interface(), true
}

// Set sets the field in the addressable struct v.
func (f *Field) Set(v reflect.Value, value any) error {
	fv := v.FieldByIndex(f.Index)
	rv := reflect.ValueOf(value)
	want := f.Type
	if f.Ptr {
		want = want.Elem()
	}
	if !rv.IsValid() {
		fv.SetZero()
		return nil
	}
	if rv.Type() != want {
		if !rv.Type().ConvertibleTo(want) {
			return fmt.Errorf("%s: cannot assign %s to %s: %w", f.GoName, rv.Type(), want, convert.ErrType)
		}
		rv = rv.Convert(want)
	}
	if f.Ptr {
		p := reflect.New(want)
		p.Elem().Set(rv)
		rv = p
	}
	fv.Set(rv)
	return nil
}

// List is the ordered list of bindings of a struct type.
type List struct {
	Type   reflect.Type
	Fields []Field
	byName map[string]int
}

// Len returns the number of columns.
func (l *List) Len() int { return len(l.Fields) }

// Lookup returns the field bound to the column name, ignoring case.
func (l *List) Lookup(name string) (*Field, bool) {
	i, ok := l.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &l.Fields[i], true
}

// Index returns the index of the field bound to the column name
// (ignoring case), or -1.
func (l *List) Index(name string) int {
	if i, ok := l.byName[strings.ToLower(name)]; ok {
		return i
	}
	return -1
}

// Names returns the column names in order.
func (l *List) Names() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// Resolver builds and caches binding lists.
// It is safe for concurrent use.
type Resolver struct {
	reg   *convert.Registry
	cache sync.Map // reflect.Type -> *List
}

// Default uses convert.Default.
var Default = NewResolver(nil)

// NewResolver returns a Resolver using reg (convert.Default if nil).
func NewResolver(reg *convert.Registry) *Resolver {
	if reg == nil {
		reg = convert.Default
	}
	return &Resolver{reg: reg}
}

// Registry returns the converter registry of the resolver.
func (r *Resolver) Registry() *convert.Registry { return r.reg }

// For returns the binding list of T.
func For[T any](r *Resolver) (*List, error) {
	if r == nil {
		r = Default
	}
	return r.Resolve(reflect.TypeFor[T]())
}

// Resolve returns the binding list of the struct type t.
//
// Lists are built once per type; a racing duplicate build is discarded.
func (r *Resolver) Resolve(t reflect.Type) (*List, error) {
	if l, ok := r.cache.Load(t); ok {
		return l.(*List), nil
	}
	l, err := r.build(t)
	if err != nil {
		return nil, err
	}
	actual, _ := r.cache.LoadOrStore(t, l)
	return actual.(*List), nil
}

var stringType = reflect.TypeFor[string]()

func (r *Resolver) build(t reflect.Type) (*List, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%v: %w", t, ErrNotStruct)
	}
	l := List{Type: t, byName: make(map[string]int)}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() || throughPointer(t, sf.Index) {
			continue
		}
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		f, err := parseTag(sf, tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, sf.Name, err)
		}
		if err := r.bindConverter(&f); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, sf.Name, err)
		}
		key := strings.ToLower(f.Name)
		if _, dup := l.byName[key]; dup {
			return nil, fmt.Errorf("%s.%s: %q: %w", t, sf.Name, f.Name, ErrDuplicateColumn)
		}
		l.byName[key] = len(l.Fields)
		l.Fields = append(l.Fields, f)
	}
	if len(l.Fields) == 0 {
		return nil, fmt.Errorf("%s: %w", t, ErrNoColumns)
	}
	slices.SortStableFunc(l.Fields, func(a, b Field) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})
	for i, f := range l.Fields {
		l.byName[strings.ToLower(f.Name)] = i
	}
	return &l, nil
}

func (r *Resolver) bindConverter(f *Field) error {
	elem := f.Type
	if f.Ptr {
		elem = elem.Elem()
	}
	if f.ConverterName != "" {
		c, ok := r.reg.Named(f.ConverterName)
		if !ok {
			return fmt.Errorf("%q: %w", f.ConverterName, ErrUnknownConverter)
		}
		if vt := convert.ValueType(c); vt != nil && vt != elem {
			return fmt.Errorf("conv=%s converts %s, not %s: %w", f.ConverterName, vt, elem, ErrTag)
		}
		f.Converter = c
		return nil
	}
	c, err := r.reg.Lookup(elem)
	if err != nil {
		return err
	}
	f.Converter = c
	f.Text = elem == stringType
	return nil
}

// throughPointer reports whether the field at index is promoted through an
// embedded pointer.
func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		sf := t.Field(i)
		if sf.Type.Kind() == reflect.Pointer {
			return true
		}
		t = sf.Type
	}
	return false
}

func parseTag(sf reflect.StructField, tag string) (Field, error) {
	name, rest, _ := strings.Cut(tag, ",")
	f := Field{
		Name: strings.TrimSpace(name), GoName: sf.Name,
		Index: sf.Index, Position: Unordered,
		Type: sf.Type, Ptr: sf.Type.Kind() == reflect.Pointer,
	}
	if f.Name == "" {
		f.Name = sf.Name
	}
	for rest != "" {
		var opt string
		opt, rest, _ = strings.Cut(rest, ",")
		k, v, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch k {
		case "required":
			f.Required = true
		case "pos":
			p, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("pos=%q: %w", v, ErrTag)
			}
			f.Position = p
		case "conv":
			if v == "" {
				return f, fmt.Errorf("empty conv: %w", ErrTag)
			}
			f.ConverterName = v
		case "":
		default:
			return f, fmt.Errorf("unknown option %q: %w", opt, ErrTag)
		}
	}
	return f, nil
}
