// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UNO-SOFT/recordsheet"
	"github.com/UNO-SOFT/recordsheet/bank"
)

var transactions = []bank.Transaction{
	{Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Type: bank.Transfer,
		Description: "RENT", Amount: decimal.NewFromInt(-200000), Currency: "HUF"},
	{Date: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), Type: bank.Income,
		Description: "SALARY", Amount: decimal.NewFromInt(800000), Currency: "HUF"},
}

func TestReadDetails(t *testing.T) {
	dir := t.TempDir()
	xlsxName := filepath.Join(dir, "statement.xlsx")
	require.NoError(t, recordsheet.ExportFile(xlsxName, transactions))

	csvName := filepath.Join(dir, "statement.csv")
	w, err := recordsheet.CreateCsv(csvName, "windows-1250")
	require.NoError(t, err)
	require.NoError(t, recordsheet.EncodeCsv(w.Writer, transactions))
	require.NoError(t, w.Close())

	cfg := config{Validate: true, Charset: "windows-1250"}
	for _, fn := range []string{xlsxName, csvName} {
		details, err := readDetails(context.Background(), fn, cfg)
		require.NoError(t, err, fn)
		require.Len(t, details, 2, fn)
		assert.Equal(t, bank.Transfer, details[0].Type, fn)
		assert.True(t, details[0].IsExpense, fn)
		assert.True(t, details[0].Amount.Equal(decimal.NewFromInt(200000)), fn)
		assert.True(t, details[1].IsIncome, fn)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = readDetails(ctx, xlsxName, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}
