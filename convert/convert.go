// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package convert turns cell text into typed Go values and back.
//
// A Converter is stateless and may be shared between goroutines.
// Parse receives the raw cell text (shared strings already resolved);
// Format returns the Payload to be written into a cell.
package convert

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnsupported is returned by Lookup for types no converter can handle.
	ErrUnsupported = errors.New("unsupported type")
	// ErrSyntax is wrapped by Parse errors for malformed text.
	ErrSyntax = errors.New("invalid syntax")
	// ErrType is returned by Format when it receives a value of the wrong type.
	ErrType = errors.New("wrong value type")
)

// Kind is the declared type of a cell.
type Kind uint8

const (
	// KindNone means no payload: the cell is omitted.
	KindNone = Kind(iota)
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "none"
	}
}

// Style is one of the fixed numeric formats.
type Style uint8

const (
	StyleGeneral = Style(iota)
	StyleDateTime
	StyleCurrency
)

// Payload is the formatted content of a cell.
type Payload struct {
	Text  string
	Kind  Kind
	Style Style
}

// IsZero reports whether there is nothing to write.
func (p Payload) IsZero() bool { return p.Kind == KindNone }

// Text returns a text payload, or no payload for the empty string.
func Text(s string) Payload {
	if s == "" {
		return Payload{}
	}
	return Payload{Text: s, Kind: KindText}
}

// Number returns a number payload with the given style.
func Number(s string, style Style) Payload {
	return Payload{Text: s, Kind: KindNumber, Style: style}
}

// Converter converts between cell text and a typed value.
type Converter interface {
	Parse(text string) (any, error)
	Format(value any) (Payload, error)
}

// Func returns a Converter from typed parse and format functions.
func Func[T any](parse func(string) (T, error), format func(T) (Payload, error)) Converter {
	return funcConverter[T]{parse: parse, format: format}
}

// ValueType returns the Go type c parses into and formats from,
// or nil if c does not tell.
func ValueType(c Converter) reflect.Type {
	if vt, ok := c.(interface{ valueType() reflect.Type }); ok {
		return vt.valueType()
	}
	return nil
}

type funcConverter[T any] struct {
	parse  func(string) (T, error)
	format func(T) (Payload, error)
}

func (f funcConverter[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (f funcConverter[T]) Parse(text string) (any, error) {
	v, err := f.parse(text)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (f funcConverter[T]) Format(value any) (Payload, error) {
	v, ok := value.(T)
	if !ok {
		var want T
		return Payload{}, fmt.Errorf("%w: got %T, want %T", ErrType, value, want)
	}
	return f.format(v)
}
