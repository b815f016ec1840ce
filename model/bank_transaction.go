/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "debit"
	TransactionTypeCredit TransactionType = "credit"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDebit || t == TransactionTypeCredit
}

// TransactionSource records how a bank transaction entered the system.
// Manual and CSV entries are book-side records; statement entries come
// from an uploaded bank statement.
type TransactionSource string

const (
	SourceManual    TransactionSource = "manual"
	SourceCSV       TransactionSource = "csv"
	SourceStatement TransactionSource = "statement"
)

func (s TransactionSource) IsValid() bool {
	switch s {
	case SourceManual, SourceCSV, SourceStatement:
		return true
	}
	return false
}

type BankTransaction struct {
	ID                  int64             `json:"-"`
	TransactionID       string            `json:"transaction_id"`
	Date                civil.Date        `json:"date"`
	Description         string            `json:"description"`
	Amount              decimal.Decimal   `json:"amount"`
	Type                TransactionType   `json:"type"`
	CheckNumber         string            `json:"check_number,omitempty"`
	MatchedCheckID      string            `json:"matched_check_id,omitempty"`
	Validated           bool              `json:"validated"`
	PurchaseOrderID     string            `json:"purchase_order_id,omitempty"`
	StatementID         string            `json:"statement_id,omitempty"`
	Source              TransactionSource `json:"source"`
	PairedTransactionID string            `json:"paired_transaction_id,omitempty"`
	RawLine             string            `json:"raw_line,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

func (t *BankTransaction) IsDebit() bool {
	return t.Type == TransactionTypeDebit
}

func (t *BankTransaction) IsCredit() bool {
	return t.Type == TransactionTypeCredit
}

func (t *BankTransaction) IsMatched() bool {
	return t.MatchedCheckID != ""
}

// IsBookCredit reports whether t is a credit recorded on the book side.
func (t *BankTransaction) IsBookCredit() bool {
	return t.IsCredit() && (t.Source == SourceManual || t.Source == SourceCSV)
}

// InTransit reports whether t is a book credit no statement has confirmed yet.
func (t *BankTransaction) InTransit() bool {
	return t.IsBookCredit() && t.StatementID == ""
}

// Clone returns a copy of the transaction.
func (t *BankTransaction) Clone() *BankTransaction {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// BankTransactionFilter narrows a transaction listing. Zero values mean "any".
type BankTransactionFilter struct {
	Type        TransactionType
	Source      TransactionSource
	Matched     *bool
	StatementID string
	OnOrBefore  *civil.Date
}

// Matches reports whether t satisfies the filter.
func (f BankTransactionFilter) Matches(t *BankTransaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	if f.Matched != nil && t.IsMatched() != *f.Matched {
		return false
	}
	if f.StatementID != "" && t.StatementID != f.StatementID {
		return false
	}
	if f.OnOrBefore != nil && t.Date.After(*f.OnOrBefore) {
		return false
	}
	return true
}
