// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package recordsheet

import (
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/UNO-SOFT/recordsheet/binding"
	"github.com/UNO-SOFT/recordsheet/convert"
)

// DefaultSheetName is the sheet name of Export.
const DefaultSheetName = "Export"

type config struct {
	headerRow int
	logger    *slog.Logger
	resolver  *binding.Resolver
	validate  *validator.Validate
	sheetName string
}

// Option configures an import or export.
type Option func(*config)

func newConfig(opts []Option) config {
	cfg := config{resolver: binding.Default}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.resolver == nil {
		cfg.resolver = binding.Default
	}
	return cfg
}

// WithHeaderRowIndex sets the number of rows before the header row.
// The default 0 means the first row is the header.
func WithHeaderRowIndex(n int) Option { return func(c *config) { c.headerRow = n } }

// WithLogger sets the logger; the default discards everything.
func WithLogger(lgr *slog.Logger) Option { return func(c *config) { c.logger = lgr } }

// WithResolver sets the binding resolver.
func WithResolver(r *binding.Resolver) Option { return func(c *config) { c.resolver = r } }

var resolvers sync.Map // *convert.Registry -> *binding.Resolver

// WithRegistry resolves bindings with converters from reg.
// Resolvers are shared between calls with the same registry.
func WithRegistry(reg *convert.Registry) Option {
	return func(c *config) {
		r, ok := resolvers.Load(reg)
		if !ok {
			r, _ = resolvers.LoadOrStore(reg, binding.NewResolver(reg))
		}
		c.resolver = r.(*binding.Resolver)
	}
}

// WithValidator validates each imported record.
func WithValidator(v *validator.Validate) Option { return func(c *config) { c.validate = v } }

// WithSheetName names the sheet to import, or the sheet written by Export.
func WithSheetName(name string) Option { return func(c *config) { c.sheetName = name } }
