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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
)

const bankTransactionColumns = `transaction_id, date, description, amount, type, check_number, matched_check_id, validated, purchase_order_id, statement_id, source, paired_transaction_id, raw_line, created_at`

const insertBankTransaction = `
	INSERT INTO tally.bank_transactions(
		transaction_id, date, description, amount, type, check_number, matched_check_id, validated,
		purchase_order_id, statement_id, source, paired_transaction_id, raw_line, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

func bankTransactionArgs(txn *model.BankTransaction) []interface{} {
	return []interface{}{
		txn.TransactionID, dateArg(txn.Date), txn.Description, txn.Amount, txn.Type, txn.CheckNumber,
		nullString(txn.MatchedCheckID), txn.Validated, txn.PurchaseOrderID, nullString(txn.StatementID),
		txn.Source, nullString(txn.PairedTransactionID), txn.RawLine, txn.CreatedAt,
	}
}

func scanBankTransaction(row rowScanner) (*model.BankTransaction, error) {
	txn := &model.BankTransaction{}
	var date time.Time
	var matchedCheckID, statementID, pairedID sql.NullString
	err := row.Scan(
		&txn.TransactionID, &date, &txn.Description, &txn.Amount, &txn.Type, &txn.CheckNumber,
		&matchedCheckID, &txn.Validated, &txn.PurchaseOrderID, &statementID, &txn.Source,
		&pairedID, &txn.RawLine, &txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	txn.Date = dateFromTime(date)
	txn.MatchedCheckID = matchedCheckID.String
	txn.StatementID = statementID.String
	txn.PairedTransactionID = pairedID.String
	return txn, nil
}

// RecordBankTransaction inserts a single bank transaction
func (d Datasource) RecordBankTransaction(ctx context.Context, txn *model.BankTransaction) error {
	ctx, span := otel.Tracer("BankTransaction").Start(ctx, "Saving bank transaction to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, insertBankTransaction, bankTransactionArgs(txn)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apierror.NewAPIError(apierror.ErrConflict, "Bank transaction with this ID already exists", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record bank transaction", err)
	}

	return nil
}

// GetBankTransactionByID retrieves a bank transaction by its ID
func (d Datasource) GetBankTransactionByID(ctx context.Context, id string) (*model.BankTransaction, error) {
	ctx, span := otel.Tracer("BankTransaction").Start(ctx, "Fetching bank transaction from db")
	defer span.End()

	txn, err := getBankTransaction(ctx, d.Conn, id, false)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func getBankTransaction(ctx context.Context, q querier, id string, forUpdate bool) (*model.BankTransaction, error) {
	query := `SELECT ` + bankTransactionColumns + ` FROM tally.bank_transactions WHERE transaction_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	txn, err := scanBankTransaction(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transactionNotFound(id, err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve bank transaction", err)
	}
	return txn, nil
}

// GetBankTransactions lists bank transactions ordered by date and ID
func (d Datasource) GetBankTransactions(ctx context.Context, filter model.BankTransactionFilter) ([]*model.BankTransaction, error) {
	ctx, span := otel.Tracer("BankTransaction").Start(ctx, "Fetching bank transactions from db")
	defer span.End()

	var conditions []string
	var args []interface{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.Matched != nil {
		if *filter.Matched {
			conditions = append(conditions, "matched_check_id IS NOT NULL")
		} else {
			conditions = append(conditions, "matched_check_id IS NULL")
		}
	}
	if filter.StatementID != "" {
		args = append(args, filter.StatementID)
		conditions = append(conditions, fmt.Sprintf("statement_id = $%d", len(args)))
	}
	if filter.OnOrBefore != nil {
		args = append(args, dateArg(*filter.OnOrBefore))
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}

	query := `SELECT ` + bankTransactionColumns + ` FROM tally.bank_transactions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY date, transaction_id`

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve bank transactions", err)
	}
	defer rows.Close()

	txns := []*model.BankTransaction{}
	for rows.Next() {
		txn, err := scanBankTransaction(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan bank transaction data", err)
		}
		txns = append(txns, txn)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over bank transactions", err)
	}

	return txns, nil
}

// LinkPurchaseOrder records the purchase order a bank transaction pays for
func (d Datasource) LinkPurchaseOrder(ctx context.Context, transactionID, purchaseOrderID string) (*model.BankTransaction, error) {
	ctx, span := otel.Tracer("BankTransaction").Start(ctx, "Linking purchase order")
	defer span.End()

	txn, err := scanBankTransaction(d.Conn.QueryRowContext(ctx, `
		UPDATE tally.bank_transactions
		SET purchase_order_id = $2
		WHERE transaction_id = $1
		RETURNING `+bankTransactionColumns, transactionID, purchaseOrderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, transactionNotFound(transactionID, err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to link purchase order", err)
	}

	return txn, nil
}
