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
package database

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debitRow(id, matched string) *sqlmock.Rows {
	var matchedCheck interface{}
	if matched != "" {
		matchedCheck = matched
	}
	return sqlmock.NewRows(bankTransactionRowColumns).AddRow(
		id, day(2024, 1, 15), "CHECK 1001", "150.00", "debit", "1001", matchedCheck,
		true, "", "stm_1", "statement", nil, "", time.Now(),
	)
}

func checkRow(id string, status model.CheckStatus) *sqlmock.Rows {
	var cleared interface{}
	if status == model.CheckStatusCleared {
		cleared = day(2024, 1, 15)
	}
	now := time.Now()
	return sqlmock.NewRows(checkRowColumns).AddRow(
		id, "1001", day(2024, 1, 10), "150.00", "Acme", "", string(status), cleared, "", now, now,
	)
}

func TestApplyMatch_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tally.bank_transactions WHERE transaction_id = \$1 FOR UPDATE`).
		WithArgs("btx_1").WillReturnRows(debitRow("btx_1", ""))
	mock.ExpectQuery(`FROM tally.checks\s+WHERE check_id = \$1\s+FOR UPDATE`).
		WithArgs("chk_1").WillReturnRows(checkRow("chk_1", model.CheckStatusPending))
	mock.ExpectExec("UPDATE tally.checks").
		WithArgs("chk_1", "2024-01-15").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tally.bank_transactions").
		WithArgs("btx_1", "chk_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	txn, chk, err := ds.ApplyMatch(context.Background(), "btx_1", "chk_1")
	require.NoError(t, err)
	assert.Equal(t, "chk_1", txn.MatchedCheckID)
	assert.Equal(t, model.CheckStatusCleared, chk.Status)
	require.NotNil(t, chk.DateCleared)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 15}, *chk.DateCleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMatch_CheckNotPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_1").WillReturnRows(debitRow("btx_1", ""))
	mock.ExpectQuery("FROM tally.checks").WithArgs("chk_1").WillReturnRows(checkRow("chk_1", model.CheckStatusCancelled))
	mock.ExpectRollback()

	_, _, err = ds.ApplyMatch(context.Background(), "btx_1", "chk_1")
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMatch_TransactionAlreadyMatched(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_1").WillReturnRows(debitRow("btx_1", "chk_9"))
	mock.ExpectQuery("FROM tally.checks").WithArgs("chk_1").WillReturnRows(checkRow("chk_1", model.CheckStatusPending))
	mock.ExpectRollback()

	_, _, err = ds.ApplyMatch(context.Background(), "btx_1", "chk_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chk_9")
}

func TestApplyMatch_LostRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_1").WillReturnRows(debitRow("btx_1", ""))
	mock.ExpectQuery("FROM tally.checks").WithArgs("chk_1").WillReturnRows(checkRow("chk_1", model.CheckStatusPending))
	mock.ExpectExec("UPDATE tally.checks").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tally.bank_transactions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err = ds.ApplyMatch(context.Background(), "btx_1", "chk_1")
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMatch_CheckNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_1").WillReturnRows(debitRow("btx_1", ""))
	mock.ExpectQuery("FROM tally.checks").WithArgs("chk_missing").WillReturnRows(sqlmock.NewRows(checkRowColumns))
	mock.ExpectRollback()

	_, _, err = ds.ApplyMatch(context.Background(), "btx_1", "chk_missing")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestRevertMatch_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_1").WillReturnRows(debitRow("btx_1", "chk_1"))
	mock.ExpectQuery("FROM tally.checks").WithArgs("chk_1").WillReturnRows(checkRow("chk_1", model.CheckStatusCleared))
	mock.ExpectExec("UPDATE tally.checks").WithArgs("chk_1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tally.bank_transactions").WithArgs("btx_1", "chk_1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	txn, chk, err := ds.RevertMatch(context.Background(), "btx_1")
	require.NoError(t, err)
	assert.Empty(t, txn.MatchedCheckID)
	assert.Equal(t, model.CheckStatusPending, chk.Status)
	assert.Nil(t, chk.DateCleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevertMatch_NotMatched(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_1").WillReturnRows(debitRow("btx_1", ""))
	mock.ExpectRollback()

	_, _, err = ds.RevertMatch(context.Background(), "btx_1")
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func creditRow(id string, source model.TransactionSource, statementID string) *sqlmock.Rows {
	var stmtID interface{}
	if statementID != "" {
		stmtID = statementID
	}
	return sqlmock.NewRows(bankTransactionRowColumns).AddRow(
		id, day(2024, 1, 20), "DEPOSIT", "500.00", "credit", "", nil,
		true, "", stmtID, string(source), nil, "", time.Now(),
	)
}

func TestConfirmDeposit_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_book").
		WillReturnRows(creditRow("btx_book", model.SourceManual, ""))
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_stmt").
		WillReturnRows(creditRow("btx_stmt", model.SourceStatement, "stm_1"))
	mock.ExpectExec("UPDATE tally.bank_transactions").
		WithArgs("btx_book", "stm_1", "btx_stmt").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tally.bank_transactions").
		WithArgs("btx_stmt", "btx_book").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	book, stmt, err := ds.ConfirmDeposit(context.Background(), "btx_book", "btx_stmt")
	require.NoError(t, err)
	assert.Equal(t, "stm_1", book.StatementID)
	assert.False(t, book.InTransit())
	assert.Equal(t, "btx_book", stmt.PairedTransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmDeposit_NotABookCredit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_a").
		WillReturnRows(creditRow("btx_a", model.SourceStatement, "stm_1"))
	mock.ExpectQuery("FROM tally.bank_transactions").WithArgs("btx_b").
		WillReturnRows(creditRow("btx_b", model.SourceStatement, "stm_1"))
	mock.ExpectRollback()

	_, _, err = ds.ConfirmDeposit(context.Background(), "btx_a", "btx_b")
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}
