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

package tally

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/database/memdb"
	"github.com/blnkfinance/tally/model"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestTally(t *testing.T, overrides func(*config.Configuration)) (*Tally, *memdb.Store) {
	t.Helper()
	config.MockDefaults(overrides)
	store := memdb.New()
	tl, err := NewTally(store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tl.Close() })
	return tl, store
}

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func registerCheck(t *testing.T, tl *Tally, number, amount string, issued civil.Date) *model.Check {
	t.Helper()
	chk, _, err := tl.RegisterCheck(context.Background(), &model.Check{
		CheckNumber: number,
		DateIssued:  issued,
		Amount:      dec(amount),
		Payee:       gofakeit.Company(),
	})
	require.NoError(t, err)
	return chk
}

// seedTransaction stores a transaction directly, bypassing the source rules of RecordBankTransaction.
func seedTransaction(t *testing.T, store *memdb.Store, txnType model.TransactionType, source model.TransactionSource, amount string, date civil.Date, checkNumber string) *model.BankTransaction {
	t.Helper()
	txn := &model.BankTransaction{
		TransactionID: model.GenerateUUIDWithSuffix("btx"),
		Date:          date,
		Description:   gofakeit.Sentence(3),
		Amount:        dec(amount),
		Type:          txnType,
		CheckNumber:   checkNumber,
		Validated:     true,
		Source:        source,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.RecordBankTransaction(context.Background(), txn))
	return txn
}

func seedDebit(t *testing.T, store *memdb.Store, amount string, date civil.Date, checkNumber string) *model.BankTransaction {
	return seedTransaction(t, store, model.TransactionTypeDebit, model.SourceStatement, amount, date, checkNumber)
}
