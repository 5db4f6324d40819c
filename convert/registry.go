// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

// Registry maps types and names to converters.
//
// It is safe for concurrent use. Converters synthesized for types without
// a registration are cached, so each type is inspected at most a few times.
type Registry struct {
	types sync.Map // reflect.Type -> Converter
	named sync.Map // string -> Converter
}

// Default is the process-wide registry.
var Default = NewRegistry()

// NewRegistry returns a registry with the built-in converters:
// int, int32, int64, float32, float64, decimal.Decimal, bool, string and
// time.Time; and the named "amount" (currency styled decimal) and "text".
func NewRegistry() *Registry {
	r := new(Registry)
	registerBuiltins(r)
	return r
}

// Register sets the converter for t, replacing any previous one.
func (r *Registry) Register(t reflect.Type, c Converter) { r.types.Store(t, c) }

// RegisterFor is Register for the type T.
func RegisterFor[T any](r *Registry, c Converter) {
	r.Register(reflect.TypeFor[T](), c)
}

// RegisterNamed sets a converter which fields can select by name.
func (r *Registry) RegisterNamed(name string, c Converter) { r.named.Store(name, c) }

// Named returns the converter registered under name.
func (r *Registry) Named(name string) (Converter, bool) {
	c, ok := r.named.Load(name)
	if !ok {
		return nil, false
	}
	return c.(Converter), true
}

// Lookup returns the converter for t.
//
// Pointer types use the converter of their element type.
// For unregistered types a converter is synthesized from
// encoding.TextMarshaler + encoding.TextUnmarshaler, or from the kind of t.
func (r *Registry) Lookup(t reflect.Type) (Converter, error) {
	if c, ok := r.types.Load(t); ok {
		return c.(Converter), nil
	}
	if t.Kind() == reflect.Pointer {
		return r.Lookup(t.Elem())
	}
	c, err := synthesize(t)
	if err != nil {
		return nil, err
	}
	actual, _ := r.types.LoadOrStore(t, c)
	return actual.(Converter), nil
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func synthesize(t reflect.Type) (Converter, error) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) &&
		(t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)) {
		return textConverter{typ: t}, nil
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindConverter{typ: t}, nil
	}
	return nil, fmt.Errorf("%s: %w", t, ErrUnsupported)
}

type textConverter struct{ typ reflect.Type }

func (c textConverter) valueType() reflect.Type { return c.typ }

func (c textConverter) Parse(text string) (any, error) {
	p := reflect.New(c.typ)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}

func (c textConverter) Format(value any) (Payload, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Type() != c.typ {
		return Payload{}, fmt.Errorf("%w: got %T, want %s", ErrType, value, c.typ)
	}
	m, ok := value.(encoding.TextMarshaler)
	if !ok {
		p := reflect.New(c.typ)
		p.Elem().Set(rv)
		m = p.Interface().(encoding.TextMarshaler)
	}
	b, err := m.MarshalText()
	if err != nil {
		return Payload{}, err
	}
	return Text(string(b)), nil
}

type kindConverter struct{ typ reflect.Type }

func (c kindConverter) valueType() reflect.Type { return c.typ }

func (c kindConverter) Parse(text string) (any, error) {
	v := reflect.New(c.typ).Elem()
	switch c.typ.Kind() {
	case reflect.String:
		v.SetString(text)
	case reflect.Bool:
		b, err := ParseBool(text)
		if err != nil {
			return nil, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := ParseInt(text, c.typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := ParseUint(text, c.typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := ParseFloat(text, c.typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetFloat(f)
	}
	return v.Interface(), nil
}

func (c kindConverter) Format(value any) (Payload, error) {
	v := reflect.ValueOf(value)
	if !v.IsValid() || v.Type() != c.typ {
		return Payload{}, fmt.Errorf("%w: got %T, want %s", ErrType, value, c.typ)
	}
	switch c.typ.Kind() {
	case reflect.String:
		return Text(v.String()), nil
	case reflect.Bool:
		return Payload{Text: strconv.FormatBool(v.Bool()), Kind: KindBool}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(strconv.FormatInt(v.Int(), 10), StyleGeneral), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(strconv.FormatUint(v.Uint(), 10), StyleGeneral), nil
	default:
		return FormatFloat(v.Float(), c.typ.Bits())
	}
}
