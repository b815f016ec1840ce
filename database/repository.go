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

	"github.com/blnkfinance/tally/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	check           // Interface for check-related operations
	bankTransaction // Interface for bank transaction operations
	statement       // Interface for statement batch operations
	matching        // Interface for operations that change both sides of a match
}

// check defines methods for handling issued checks.
type check interface {
	// Persists a new check
	RecordCheck(ctx context.Context, chk *model.Check) error
	// Retrieves a check by ID
	GetCheckByID(ctx context.Context, id string) (*model.Check, error)
	// Lists checks in issue order
	GetChecks(ctx context.Context, filter model.CheckFilter) ([]*model.Check, error)
	// Moves a check between statuses if it is still in from
	UpdateCheckStatus(ctx context.Context, id string, from, to model.CheckStatus) (*model.Check, error)
	// Counts pending checks sharing a check number
	CountPendingChecksByNumber(ctx context.Context, checkNumber string) (int, error)
}

// bankTransaction defines methods for handling bank transactions.
type bankTransaction interface {
	// Persists a single transaction
	RecordBankTransaction(ctx context.Context, txn *model.BankTransaction) error
	// Retrieves a transaction by ID
	GetBankTransactionByID(ctx context.Context, id string) (*model.BankTransaction, error)
	// Lists transactions in date order
	GetBankTransactions(ctx context.Context, filter model.BankTransactionFilter) ([]*model.BankTransaction, error)
	// Links a purchase order to a transaction
	LinkPurchaseOrder(ctx context.Context, transactionID, purchaseOrderID string) (*model.BankTransaction, error)
}

// statement defines methods for handling uploaded statement batches.
type statement interface {
	// Persists a statement and all its transactions atomically
	RecordStatementBatch(ctx context.Context, stmt *model.Statement, txns []*model.BankTransaction) error
	// Retrieves a statement by ID
	GetStatementByID(ctx context.Context, id string) (*model.Statement, error)
	// Lists statements, newest first
	GetStatements(ctx context.Context) ([]*model.Statement, error)
}

// matching defines the atomic two-sided mutations.
type matching interface {
	// Clears a check against a debit
	ApplyMatch(ctx context.Context, transactionID, checkID string) (*model.BankTransaction, *model.Check, error)
	// Reverses a match
	RevertMatch(ctx context.Context, transactionID string) (*model.BankTransaction, *model.Check, error)
	// Pairs a book credit with a statement credit
	ConfirmDeposit(ctx context.Context, bookTransactionID, statementTransactionID string) (*model.BankTransaction, *model.BankTransaction, error)
}
