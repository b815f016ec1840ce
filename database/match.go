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
	"database/sql"
	"fmt"

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"go.opentelemetry.io/otel"
)

func getCheckForUpdate(ctx context.Context, q querier, id string) (*model.Check, error) {
	chk, err := scanCheck(q.QueryRowContext(ctx, `
		SELECT `+checkColumns+`
		FROM tally.checks
		WHERE check_id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, checkNotFound(id, err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve check", err)
	}
	return chk, nil
}

// execGuarded runs an UPDATE whose WHERE clause encodes a precondition.
// Zero affected rows means a concurrent writer got there first.
func execGuarded(ctx context.Context, tx *sql.Tx, conflict string, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	if n == 0 {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition, conflict, nil)
	}
	return nil
}

// ApplyMatch clears a pending check against an unmatched debit in one database transaction.
// Both rows are locked, the preconditions are re-checked under the lock, and each UPDATE
// is guarded so that a concurrent match of the same check or transaction fails cleanly.
//
// Parameters:
// - ctx: The context for the operation.
// - transactionID: The debit that clears the check.
// - checkID: The pending check being cleared.
//
// Returns:
// - *model.BankTransaction: The transaction after the match.
// - *model.Check: The check after the match, cleared on the transaction date.
// - error: NotFound, InvalidStateTransition or an internal error. Nothing is written on error.
func (d Datasource) ApplyMatch(ctx context.Context, transactionID, checkID string) (*model.BankTransaction, *model.Check, error) {
	ctx, span := otel.Tracer("Match").Start(ctx, "Applying match")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	txn, err := getBankTransaction(ctx, tx, transactionID, true)
	if err != nil {
		return nil, nil, err
	}
	chk, err := getCheckForUpdate(ctx, tx, checkID)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateMatch(txn, chk); err != nil {
		return nil, nil, err
	}

	err = execGuarded(ctx, tx, fmt.Sprintf("check %s is no longer pending", checkID), `
		UPDATE tally.checks
		SET status = 'cleared', date_cleared = $2, updated_at = NOW()
		WHERE check_id = $1 AND status = 'pending'
	`, checkID, dateArg(txn.Date))
	if err != nil {
		return nil, nil, err
	}

	err = execGuarded(ctx, tx, fmt.Sprintf("transaction %s is already matched", transactionID), `
		UPDATE tally.bank_transactions
		SET matched_check_id = $2
		WHERE transaction_id = $1 AND matched_check_id IS NULL AND type = 'debit'
	`, transactionID, checkID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit match", err)
	}

	cleared := txn.Date
	chk.Status = model.CheckStatusCleared
	chk.DateCleared = &cleared
	txn.MatchedCheckID = checkID
	return txn, chk, nil
}

// RevertMatch undoes a match: the transaction is released and the check returns to pending.
func (d Datasource) RevertMatch(ctx context.Context, transactionID string) (*model.BankTransaction, *model.Check, error) {
	ctx, span := otel.Tracer("Match").Start(ctx, "Reverting match")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	txn, err := getBankTransaction(ctx, tx, transactionID, true)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateUnmatch(txn); err != nil {
		return nil, nil, err
	}
	chk, err := getCheckForUpdate(ctx, tx, txn.MatchedCheckID)
	if err != nil {
		return nil, nil, err
	}

	err = execGuarded(ctx, tx, fmt.Sprintf("check %s is not cleared", chk.CheckID), `
		UPDATE tally.checks
		SET status = 'pending', date_cleared = NULL, updated_at = NOW()
		WHERE check_id = $1 AND status = 'cleared'
	`, chk.CheckID)
	if err != nil {
		return nil, nil, err
	}

	err = execGuarded(ctx, tx, fmt.Sprintf("transaction %s is no longer matched to %s", transactionID, chk.CheckID), `
		UPDATE tally.bank_transactions
		SET matched_check_id = NULL
		WHERE transaction_id = $1 AND matched_check_id = $2
	`, transactionID, chk.CheckID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit unmatch", err)
	}

	chk.Status = model.CheckStatusPending
	chk.DateCleared = nil
	txn.MatchedCheckID = ""
	return txn, chk, nil
}

// ConfirmDeposit pairs a book credit with the statement credit that shows it reached the bank.
// The book credit inherits the statement ID, which takes it out of deposits in transit.
func (d Datasource) ConfirmDeposit(ctx context.Context, bookTransactionID, statementTransactionID string) (*model.BankTransaction, *model.BankTransaction, error) {
	ctx, span := otel.Tracer("Match").Start(ctx, "Confirming deposit")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	book, err := getBankTransaction(ctx, tx, bookTransactionID, true)
	if err != nil {
		return nil, nil, err
	}
	stmt, err := getBankTransaction(ctx, tx, statementTransactionID, true)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateDepositPair(book, stmt); err != nil {
		return nil, nil, err
	}

	err = execGuarded(ctx, tx, fmt.Sprintf("deposit %s is already confirmed", bookTransactionID), `
		UPDATE tally.bank_transactions
		SET statement_id = $2, paired_transaction_id = $3
		WHERE transaction_id = $1 AND paired_transaction_id IS NULL AND statement_id IS NULL
	`, bookTransactionID, stmt.StatementID, statementTransactionID)
	if err != nil {
		return nil, nil, err
	}

	err = execGuarded(ctx, tx, fmt.Sprintf("statement credit %s is already paired", statementTransactionID), `
		UPDATE tally.bank_transactions
		SET paired_transaction_id = $2
		WHERE transaction_id = $1 AND paired_transaction_id IS NULL
	`, statementTransactionID, bookTransactionID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit deposit confirmation", err)
	}

	book.StatementID = stmt.StatementID
	book.PairedTransactionID = statementTransactionID
	stmt.PairedTransactionID = bookTransactionID
	return book, stmt, nil
}
