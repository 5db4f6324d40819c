// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command bankxlsx reads bank statement exports,
// and writes them as csv or as an xlsx with one sheet per month.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/UNO-SOFT/recordsheet"
	"github.com/UNO-SOFT/recordsheet/bank"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		slog.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

type config struct {
	HeaderRow int
	Validate  bool
	Sheet     string
	Charset   string
	Out       string
}

func (cfg config) options() []recordsheet.Option {
	opts := []recordsheet.Option{
		recordsheet.WithLogger(logger),
		recordsheet.WithHeaderRowIndex(cfg.HeaderRow),
	}
	if cfg.Validate {
		opts = append(opts, recordsheet.WithValidator(validator.New()))
	}
	if cfg.Sheet != "" {
		opts = append(opts, recordsheet.WithSheetName(cfg.Sheet))
	}
	return opts
}

func Main() error {
	var cfg config
	newFlagSet := func(name string) *flag.FlagSet {
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		fs.Var(&verbose, "v", "logging verbosity")
		fs.IntVar(&cfg.HeaderRow, "header", 0, "number of rows before the header row")
		fs.BoolVar(&cfg.Validate, "validate", false, "validate the statement lines")
		fs.StringVar(&cfg.Sheet, "sheet", "", "sheet to read (default: the first one)")
		fs.StringVar(&cfg.Charset, "charset", recordsheet.EncName, "csv charset name")
		return fs
	}
	opts := []ff.Option{ff.WithEnvVarPrefix("BANKXLSX")}

	importFS := newFlagSet("import")
	importFS.StringVar(&cfg.Out, "o", "-", "output csv file")
	importCmd := ffcli.Command{Name: "import", FlagSet: importFS, Options: opts,
		ShortUsage: "import [flags] statement.xlsx",
		ShortHelp:  "convert the statement to csv",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return flag.ErrHelp
			}
			details, err := readDetails(ctx, args[0], cfg)
			if err != nil {
				return err
			}
			w, err := recordsheet.CreateCsv(cfg.Out, cfg.Charset)
			if err != nil {
				return err
			}
			if err := recordsheet.EncodeCsv(w.Writer, details, cfg.options()...); err != nil {
				_ = w.Close()
				return err
			}
			return w.Close()
		},
	}

	splitFS := newFlagSet("split")
	splitFS.StringVar(&cfg.Out, "o", "", "output xlsx file (default: input file + -monthly.xlsx)")
	splitCmd := ffcli.Command{Name: "split", FlagSet: splitFS, Options: opts,
		ShortUsage: "split [flags] statement.xlsx|statement.csv",
		ShortHelp:  "write the statement as an xlsx with a sheet for each month",
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return flag.ErrHelp
			}
			details, err := readDetails(ctx, args[0], cfg)
			if err != nil {
				return err
			}
			groups := bank.ByMonth(details)
			if len(groups) == 0 {
				return fmt.Errorf("%s: no statement lines", args[0])
			}
			out := cfg.Out
			if out == "" {
				out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "-monthly.xlsx"
			}
			logger.Info("split", "sheets", len(groups), "lines", len(details), "out", out)
			return recordsheet.ExportSheetsFile(out, groups, cfg.options()...)
		},
	}

	rootFS := flag.NewFlagSet("bankxlsx", flag.ContinueOnError)
	rootFS.Var(&verbose, "v", "logging verbosity")
	app := ffcli.Command{Name: "bankxlsx", FlagSet: rootFS, Options: opts,
		ShortUsage:  "bankxlsx <subcommand> [flags] <file>",
		Subcommands: []*ffcli.Command{&importCmd, &splitCmd},
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
	}
	if err := app.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// readDetails reads the statement lines from the xlsx or csv file fn.
func readDetails(ctx context.Context, fn string, cfg config) ([]bank.Detail, error) {
	var seq iter.Seq2[bank.Transaction, error]
	if strings.EqualFold(filepath.Ext(fn), ".csv") || fn == "-" {
		cr, err := recordsheet.OpenCsv(fn, cfg.Charset)
		if err != nil {
			return nil, err
		}
		defer cr.Close()
		seq = recordsheet.DecodeCsv[bank.Transaction](cr.Reader, cfg.options()...)
	} else {
		seq = recordsheet.Import[bank.Transaction](fn, cfg.options()...)
	}
	var details []bank.Detail
	for tr, err := range seq {
		if err != nil {
			return details, fmt.Errorf("%s: %w", fn, err)
		}
		if err := ctx.Err(); err != nil {
			return details, err
		}
		details = append(details, bank.NewDetail(tr))
	}
	logger.Debug("read", "file", fn, "lines", len(details))
	return details, nil
}
