// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	numeralRE = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]+)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
	integerRE = regexp.MustCompile(`^[+-]?[0-9]+$`)
)

func syntaxError(what, text string) error {
	return fmt.Errorf("%s %q: %w", what, text, ErrSyntax)
}

// ParseInt parses a base-10 integer of the given bit size.
func ParseInt(text string, bitSize int) (int64, error) {
	if !integerRE.MatchString(text) {
		return 0, syntaxError("integer", text)
	}
	return strconv.ParseInt(text, 10, bitSize)
}

// ParseUint parses an unsigned base-10 integer of the given bit size.
func ParseUint(text string, bitSize int) (uint64, error) {
	if !integerRE.MatchString(text) || text[0] == '-' {
		return 0, syntaxError("unsigned integer", text)
	}
	return strconv.ParseUint(strings.TrimPrefix(text, "+"), 10, bitSize)
}

// ParseFloat parses a plain numeral: optional sign, digits with an optional
// dot-separated fraction and an optional exponent. No grouping, hex, inf or nan.
func ParseFloat(text string, bitSize int) (float64, error) {
	if !numeralRE.MatchString(text) {
		return 0, syntaxError("number", text)
	}
	return strconv.ParseFloat(text, bitSize)
}

// FormatFloat formats f in the shortest plain decimal form.
func FormatFloat(f float64, bitSize int) (Payload, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Payload{}, fmt.Errorf("%v: %w", f, ErrUnsupported)
	}
	return Number(strconv.FormatFloat(f, 'f', -1, bitSize), StyleGeneral), nil
}

// ParseBool accepts only "true" and "false", ignoring case.
func ParseBool(text string) (bool, error) {
	switch {
	case strings.EqualFold(text, "true"):
		return true, nil
	case strings.EqualFold(text, "false"):
		return false, nil
	}
	return false, syntaxError("bool", text)
}

// serialEpoch is serial day 0.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

const (
	secondsPerDay = 24 * 60 * 60
	maxSerialDays = 10_000_000
)

// ParseSerialDate parses a serial date: days since 1899-12-30 with the time of
// day as the fraction. Serial dates carry no zone, so the result is the
// wall clock in UTC, rounded to the second.
func ParseSerialDate(text string) (time.Time, error) {
	f, err := ParseFloat(text, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.Abs(f) > maxSerialDays {
		return time.Time{}, fmt.Errorf("date %q: %w", text, ErrUnsupported)
	}
	secs := int64(math.Round(f * secondsPerDay))
	return serialEpoch.AddDate(0, 0, int(secs/secondsPerDay)).
		Add(time.Duration(secs%secondsPerDay) * time.Second), nil
}

// FormatSerialDate formats the wall clock of t as a serial date,
// truncating the sub-second part. The zone of t is dropped:
// 12:30 CET and 12:30 UTC give the same serial date.
func FormatSerialDate(t time.Time) string {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	secs := wall.Unix() - serialEpoch.Unix()
	return strconv.FormatFloat(float64(secs)/secondsPerDay, 'f', -1, 64)
}

func registerBuiltins(r *Registry) {
	RegisterFor[int](r, Func(
		func(s string) (int, error) { i, err := ParseInt(s, strconv.IntSize); return int(i), err },
		func(i int) (Payload, error) { return Number(strconv.Itoa(i), StyleGeneral), nil }))
	RegisterFor[int32](r, Func(
		func(s string) (int32, error) { i, err := ParseInt(s, 32); return int32(i), err },
		func(i int32) (Payload, error) { return Number(strconv.FormatInt(int64(i), 10), StyleGeneral), nil }))
	RegisterFor[int64](r, Func(
		func(s string) (int64, error) { return ParseInt(s, 64) },
		func(i int64) (Payload, error) { return Number(strconv.FormatInt(i, 10), StyleGeneral), nil }))
	RegisterFor[float32](r, Func(
		func(s string) (float32, error) { f, err := ParseFloat(s, 32); return float32(f), err },
		func(f float32) (Payload, error) { return FormatFloat(float64(f), 32) }))
	RegisterFor[float64](r, Func(
		func(s string) (float64, error) { return ParseFloat(s, 64) },
		func(f float64) (Payload, error) { return FormatFloat(f, 64) }))
	RegisterFor[decimal.Decimal](r, Func(parseDecimal,
		func(d decimal.Decimal) (Payload, error) { return Number(d.String(), StyleGeneral), nil }))
	RegisterFor[bool](r, Func(ParseBool,
		func(b bool) (Payload, error) { return Payload{Text: strconv.FormatBool(b), Kind: KindBool}, nil }))
	RegisterFor[string](r, Func(
		func(s string) (string, error) { return s, nil },
		func(s string) (Payload, error) { return Text(s), nil }))
	// time.Time is a serial date of its wall clock, read back in UTC.
	RegisterFor[time.Time](r, Func(ParseSerialDate,
		func(t time.Time) (Payload, error) {
			if t.IsZero() {
				return Payload{}, nil
			}
			return Number(FormatSerialDate(t), StyleDateTime), nil
		}))

	r.RegisterNamed("amount", Func(parseDecimal,
		func(d decimal.Decimal) (Payload, error) { return Number(d.String(), StyleCurrency), nil }))
	r.RegisterNamed("text", Func(
		func(s string) (string, error) { return s, nil },
		func(s string) (Payload, error) { return Text(s), nil }))
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if !numeralRE.MatchString(s) {
		return decimal.Decimal{}, syntaxError("decimal", s)
	}
	return decimal.NewFromString(s)
}
