// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package convert_test

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/recordsheet/convert"
)

func lookup[T any](t *testing.T, reg *convert.Registry) convert.Converter {
	t.Helper()
	c, err := reg.Lookup(reflect.TypeFor[T]())
	require.NoError(t, err)
	return c
}

func TestBool(t *testing.T) {
	c := lookup[bool](t, convert.NewRegistry())
	for in, want := range map[string]bool{"true": true, "TRUE": true, "True": true, "false": false, "FaLsE": false} {
		v, err := c.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v, in)
	}
	for _, in := range []string{"1", "0", "yes", "no", "", " true"} {
		_, err := c.Parse(in)
		assert.ErrorIs(t, err, convert.ErrSyntax, "%q", in)
	}
	p, err := c.Format(true)
	require.NoError(t, err)
	assert.Equal(t, convert.KindBool, p.Kind)
	assert.Equal(t, "true", p.Text)
}

func TestNumerals(t *testing.T) {
	reg := convert.NewRegistry()
	f := lookup[float64](t, reg)
	for in, want := range map[string]float64{
		"95.5": 95.5, "-1": -1, "+2.25": 2.25, ".5": 0.5, "1e3": 1000, "1.5E-2": 0.015,
	} {
		v, err := f.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, v, in)
	}
	for _, in := range []string{"", "1,5", "1 000", "0x10", "inf", "NaN", "1.", "e5", "--1"} {
		_, err := f.Parse(in)
		assert.Error(t, err, "%q", in)
	}

	i := lookup[int](t, reg)
	v, err := i.Parse("30")
	require.NoError(t, err)
	assert.Equal(t, 30, v)
	for _, in := range []string{"30.0", "3e1", "", "1_000"} {
		_, err = i.Parse(in)
		assert.Error(t, err, "%q", in)
	}

	i32 := lookup[int32](t, reg)
	_, err = i32.Parse("2147483648")
	assert.Error(t, err)

	p, err := f.Format(95.5)
	require.NoError(t, err)
	assert.Equal(t, convert.Payload{Text: "95.5", Kind: convert.KindNumber}, p)
	p, err = f.Format(1e21)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", p.Text)
}

func TestDecimal(t *testing.T) {
	reg := convert.NewRegistry()
	c := lookup[decimal.Decimal](t, reg)
	v, err := c.Parse("-1234.50")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-1234.5").Equal(v.(decimal.Decimal)))
	_, err = c.Parse("1,5")
	assert.ErrorIs(t, err, convert.ErrSyntax)

	amount, ok := reg.Named("amount")
	require.True(t, ok)
	p, err := amount.Format(decimal.RequireFromString("12.30"))
	require.NoError(t, err)
	assert.Equal(t, convert.StyleCurrency, p.Style)
	assert.Equal(t, "12.3", p.Text)
}

func TestSerialDate(t *testing.T) {
	c := lookup[time.Time](t, convert.NewRegistry())
	for _, tc := range []struct {
		Text string
		Time time.Time
	}{
		{"0", time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)},
		{"1", time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"45658", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"45658.5", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)},
	} {
		v, err := c.Parse(tc.Text)
		require.NoError(t, err, tc.Text)
		assert.True(t, tc.Time.Equal(v.(time.Time)), "%s: got %v", tc.Text, v)

		p, err := c.Format(tc.Time)
		require.NoError(t, err)
		assert.Equal(t, tc.Text, p.Text)
		assert.Equal(t, convert.StyleDateTime, p.Style)
		assert.Equal(t, convert.KindNumber, p.Kind)
	}

	// exact to the second both ways
	for _, tm := range []time.Time{
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC),
		time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2038, 7, 15, 13, 37, 42, 999_000_000, time.UTC),
		time.Date(1850, 6, 1, 6, 30, 0, 0, time.UTC),
	} {
		p, err := c.Format(tm)
		require.NoError(t, err)
		v, err := c.Parse(p.Text)
		require.NoError(t, err)
		assert.True(t, tm.Truncate(time.Second).Equal(v.(time.Time)), "%v != %v (%s)", tm, v, p.Text)
	}

	// the wall clock survives, the zone does not
	cet := time.Date(2025, 1, 1, 12, 30, 45, 0, time.FixedZone("CET", 3600))
	p, err := c.Format(cet)
	require.NoError(t, err)
	assert.Equal(t, "45658.52135416667", p.Text)
	v, err := c.Parse(p.Text)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 1, 1, 12, 30, 45, 0, time.UTC).Equal(v.(time.Time)), "got %v", v)
	assert.False(t, cet.Equal(v.(time.Time)))

	p, err = c.Format(time.Time{})
	require.NoError(t, err)
	assert.True(t, p.IsZero())
}

func TestString(t *testing.T) {
	c := lookup[string](t, convert.NewRegistry())
	v, err := c.Parse(" John ")
	require.NoError(t, err)
	assert.Equal(t, " John ", v)
	p, err := c.Format("")
	require.NoError(t, err)
	assert.True(t, p.IsZero())
	_, err = c.Format(1)
	assert.ErrorIs(t, err, convert.ErrType)
}

type level int

type color struct{ name string }

func (c color) MarshalText() ([]byte, error) { return []byte(strings.ToUpper(c.name)), nil }
func (c *color) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty color")
	}
	c.name = strings.ToLower(string(b))
	return nil
}

func TestSynthesized(t *testing.T) {
	reg := convert.NewRegistry()

	lv := lookup[level](t, reg)
	v, err := lv.Parse("3")
	require.NoError(t, err)
	assert.Equal(t, level(3), v)
	p, err := lv.Format(level(-2))
	require.NoError(t, err)
	assert.Equal(t, "-2", p.Text)
	assert.Equal(t, convert.KindNumber, p.Kind)

	u := lookup[uint16](t, reg)
	_, err = u.Parse("-1")
	assert.Error(t, err)
	v, err = u.Parse("+65535")
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)

	col := lookup[color](t, reg)
	v, err = col.Parse("Red")
	require.NoError(t, err)
	assert.Equal(t, color{name: "red"}, v)
	p, err = col.Format(color{name: "blue"})
	require.NoError(t, err)
	assert.Equal(t, convert.Payload{Text: "BLUE", Kind: convert.KindText}, p)
	_, err = col.Parse("")
	assert.Error(t, err)

	_, err = reg.Lookup(reflect.TypeFor[[]int]())
	assert.ErrorIs(t, err, convert.ErrUnsupported)
	_, err = reg.Lookup(reflect.TypeFor[map[string]int]())
	assert.ErrorIs(t, err, convert.ErrUnsupported)
}

func TestPrecedence(t *testing.T) {
	reg := convert.NewRegistry()
	pi := lookup[*int](t, reg)
	v, err := pi.Parse("7")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// an exact registration wins over the synthesized converter
	custom := convert.Func(
		func(s string) (level, error) { return level(len(s)), nil },
		func(l level) (convert.Payload, error) { return convert.Text(strings.Repeat("*", int(l))), nil })
	convert.RegisterFor[level](reg, custom)
	lv := lookup[level](t, reg)
	v, err = lv.Parse("abc")
	require.NoError(t, err)
	assert.Equal(t, level(3), v)

	// registries are independent
	v, err = lookup[level](t, convert.NewRegistry()).Parse("5")
	require.NoError(t, err)
	assert.Equal(t, level(5), v)

	_, ok := reg.Named("missing")
	assert.False(t, ok)

	assert.Equal(t, reflect.TypeFor[level](), convert.ValueType(lv))
	assert.Equal(t, reflect.TypeFor[int](), convert.ValueType(pi))
	amount, ok := reg.Named("amount")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[decimal.Decimal](), convert.ValueType(amount))
}

func TestConcurrentLookup(t *testing.T) {
	reg := convert.NewRegistry()
	var wg sync.WaitGroup
	got := make([]convert.Converter, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := reg.Lookup(reflect.TypeFor[level]())
			if err == nil {
				got[i] = c
			}
		}(i)
	}
	wg.Wait()
	for _, c := range got {
		require.NotNil(t, c)
		v, err := c.Parse("12")
		require.NoError(t, err)
		assert.Equal(t, level(12), v)
	}
}
