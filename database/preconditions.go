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
	"fmt"

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
)

// ValidateMatch checks that txn and chk can be matched to each other.
func ValidateMatch(txn *model.BankTransaction, chk *model.Check) error {
	if !txn.IsDebit() {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is a %s; only debits can clear a check", txn.TransactionID, txn.Type), nil)
	}
	if txn.IsMatched() {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is already matched to check %s", txn.TransactionID, txn.MatchedCheckID), nil)
	}
	if !chk.IsPending() {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("check %s is %s; only pending checks can be matched", chk.CheckID, chk.Status), nil)
	}
	return nil
}

// ValidateUnmatch checks that txn currently holds a match that can be reverted.
func ValidateUnmatch(txn *model.BankTransaction) error {
	if !txn.IsMatched() {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is not matched to any check", txn.TransactionID), nil)
	}
	return nil
}

// ValidateDepositPair checks that book can be confirmed by stmt.
func ValidateDepositPair(book, stmt *model.BankTransaction) error {
	if !book.IsBookCredit() {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is not a book credit", book.TransactionID), nil)
	}
	if !stmt.IsCredit() || stmt.Source != model.SourceStatement {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is not a statement credit", stmt.TransactionID), nil)
	}
	if book.PairedTransactionID != "" || book.StatementID != "" {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("deposit %s is already confirmed", book.TransactionID), nil)
	}
	if stmt.PairedTransactionID != "" {
		return apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("statement credit %s already confirms deposit %s", stmt.TransactionID, stmt.PairedTransactionID), nil)
	}
	return nil
}

func checkNotFound(id string, err error) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("check with ID '%s' not found", id), err)
}

func transactionNotFound(id string, err error) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("bank transaction with ID '%s' not found", id), err)
}

func statementNotFound(id string, err error) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("statement with ID '%s' not found", id), err)
}
