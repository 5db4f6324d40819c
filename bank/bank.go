// Copyright 2025 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package bank holds the records of bank statement exports.
//
// Importing the package registers the statement label converter
// (TypeConverterName) with convert.Default.
package bank

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/UNO-SOFT/recordsheet"
	"github.com/UNO-SOFT/recordsheet/convert"
)

// TransactionType is the kind of a statement line.
type TransactionType uint8

const (
	Unknown = TransactionType(iota)
	Card
	Transfer
	BankFeeOrInterest
	Income
)

// ErrTransactionType is returned for unknown type names and labels.
var ErrTransactionType = errors.New("unknown transaction type")

var typeNames = [...]string{"Unknown", "Card", "Transfer", "BankFeeOrInterest", "Income"}

func (t TransactionType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("TransactionType(%d)", uint8(t))
}

// IsIncome reports whether t is an income.
func (t TransactionType) IsIncome() bool { return t == Income }

func (t TransactionType) MarshalText() ([]byte, error) {
	if int(t) >= len(typeNames) {
		return nil, fmt.Errorf("%d: %w", uint8(t), ErrTransactionType)
	}
	return []byte(typeNames[t]), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	for i, s := range typeNames {
		if strings.EqualFold(s, string(b)) {
			*t = TransactionType(i)
			return nil
		}
	}
	return fmt.Errorf("%q: %w", b, ErrTransactionType)
}

// TypeConverterName is the name of the converter of statement labels.
const TypeConverterName = "bank.type"

// labels of the statement, the first one of each type is used when writing.
var labels = []struct {
	Label string
	Type  TransactionType
}{
	{"KÁRTYATRANZAKCIÓ", Card},
	{"ÁTUTALÁS", Transfer},
	{"EGYÉB TERHELÉS", Transfer},
	{"DÍJ, KAMAT", BankFeeOrInterest},
	{"JÖVEDELEM", Income},
	{"EGYÉB JÓVÁÍRÁS", Income},
}

// ParseLabel returns the type of the statement label.
func ParseLabel(s string) (TransactionType, error) {
	for _, l := range labels {
		if l.Label == s {
			return l.Type, nil
		}
	}
	return Unknown, fmt.Errorf("%q: %w", s, ErrTransactionType)
}

// Label returns the statement label of t; empty for Unknown.
func (t TransactionType) Label() string {
	for _, l := range labels {
		if l.Type == t {
			return l.Label
		}
	}
	return ""
}

// Register the statement label converter with reg.
func Register(reg *convert.Registry) {
	reg.RegisterNamed(TypeConverterName, convert.Func(ParseLabel,
		func(t TransactionType) (convert.Payload, error) {
			if t != Unknown && t.Label() == "" {
				return convert.Payload{}, fmt.Errorf("%d: %w", uint8(t), ErrTransactionType)
			}
			return convert.Text(t.Label()), nil
		}))
}

func init() { Register(convert.Default) }

// Transaction is a line of the statement.
type Transaction struct {
	Date        time.Time       `xlsx:"DÁTUM,pos=1,required"`
	Type        TransactionType `xlsx:"TRANZAKCIÓTÍPUS,pos=2,required,conv=bank.type"`
	Description string          `xlsx:"KÖZLEMÉNY,pos=3"`
	Amount      decimal.Decimal `xlsx:"ÖSSZEG,pos=4,required"`
	Currency    string          `xlsx:"DEVIZANEM,pos=5" validate:"omitempty,len=3,uppercase"`
}

// Detail is the exported form of a Transaction.
type Detail struct {
	Date        time.Time       `xlsx:"Dátum,pos=1"`
	Type        TransactionType `xlsx:"Típus,pos=2"`
	Description string          `xlsx:"Közlemény,pos=3"`
	Amount      decimal.Decimal `xlsx:"Összeg,pos=4,conv=amount"`
	Currency    string          `xlsx:"Deviza,pos=5"`
	IsExpense   bool            `xlsx:"Kiadás,pos=6"`
	IsIncome    bool            `xlsx:"Jövedelem,pos=7"`
}

// NewDetail returns the Detail of t. The amount changes sign:
// a debit on the statement is a positive expense.
func NewDetail(t Transaction) Detail {
	return Detail{
		Date:        t.Date,
		Type:        t.Type,
		Description: t.Description,
		Amount:      t.Amount.Neg(),
		Currency:    t.Currency,
		IsExpense:   t.Amount.IsNegative(),
		IsIncome:    t.Type.IsIncome(),
	}
}

// MonthLayout is the time layout of the sheet names of ByMonth.
const MonthLayout = "2006 January"

// ByMonth groups the details by month, in date order.
// The details are sorted in place.
func ByMonth(details []Detail) []recordsheet.Group[Detail] {
	slices.SortStableFunc(details, func(a, b Detail) int { return a.Date.Compare(b.Date) })
	var groups []recordsheet.Group[Detail]
	for i := 0; i < len(details); {
		name := details[i].Date.Format(MonthLayout)
		j := i + 1
		for j < len(details) && details[j].Date.Format(MonthLayout) == name {
			j++
		}
		groups = append(groups, recordsheet.Group[Detail]{Sheet: name, Records: details[i:j:j]})
		i = j
	}
	return groups
}
