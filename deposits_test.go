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

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmDeposit(t *testing.T) {
	tl, store := newTestTally(t, nil)
	ctx := context.Background()

	book := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceManual, "300.00", day(2024, 1, 5), "")
	bank := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceStatement, "300.00", day(2024, 1, 7), "")

	inTransit, err := tl.DepositsInTransit(ctx, nil)
	require.NoError(t, err)
	require.Len(t, inTransit, 1)

	res, err := tl.ConfirmDeposit(ctx, book.TransactionID, bank.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, bank.TransactionID, res.BookTransaction.PairedTransactionID)
	assert.Equal(t, book.TransactionID, res.StatementTransaction.PairedTransactionID)
	assert.False(t, res.BookTransaction.InTransit())

	inTransit, err = tl.DepositsInTransit(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, inTransit)

	_, err = tl.ConfirmDeposit(ctx, book.TransactionID, bank.TransactionID)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
}

func TestConfirmDeposit_Preconditions(t *testing.T) {
	tl, store := newTestTally(t, nil)
	ctx := context.Background()

	book := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceCSV, "300.00", day(2024, 1, 5), "")
	otherBook := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceManual, "300.00", day(2024, 1, 5), "")
	debit := seedDebit(t, store, "300.00", day(2024, 1, 6), "")

	_, err := tl.ConfirmDeposit(ctx, book.TransactionID, otherBook.TransactionID)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))

	_, err = tl.ConfirmDeposit(ctx, debit.TransactionID, book.TransactionID)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))

	_, err = tl.ConfirmDeposit(ctx, book.TransactionID, "btx_missing")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestAutoMatch_ConfirmsDeposits(t *testing.T) {
	tl, store := newTestTally(t, nil)
	ctx := context.Background()

	book := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceManual, "300.00", day(2024, 1, 5), "")
	bank := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceStatement, "300.00", day(2024, 1, 7), "")
	seedTransaction(t, store, model.TransactionTypeCredit, model.SourceStatement, "300.00", day(2024, 1, 2), "")

	res, err := tl.AutoMatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DepositsConfirmedCount)
	require.Len(t, res.Deposits, 1)
	assert.Equal(t, model.DepositConfirmation{BookTransactionID: book.TransactionID, StatementTransactionID: bank.TransactionID}, res.Deposits[0])

	again, err := tl.AutoMatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.DepositsConfirmedCount)
}

func TestAutoMatch_AmbiguousDeposit(t *testing.T) {
	tl, store := newTestTally(t, nil)

	book := seedTransaction(t, store, model.TransactionTypeCredit, model.SourceManual, "300.00", day(2024, 1, 5), "")
	seedTransaction(t, store, model.TransactionTypeCredit, model.SourceStatement, "300.00", day(2024, 1, 7), "")
	seedTransaction(t, store, model.TransactionTypeCredit, model.SourceStatement, "300.00", day(2024, 1, 8), "")

	res, err := tl.AutoMatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.DepositsConfirmedCount)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, book.TransactionID, res.Skipped[0].TransactionID)
	assert.Len(t, res.Skipped[0].CandidateIDs, 2)
}
