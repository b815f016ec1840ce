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
	"time"

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const statementColumns = `statement_id, file_name, period_start, period_end, starting_balance, ending_balance, transactions_count, unvalidated_count, extraction_error, archive_key, created_at`

func scanStatement(row rowScanner) (*model.Statement, error) {
	stmt := &model.Statement{}
	var start, end time.Time
	err := row.Scan(
		&stmt.StatementID, &stmt.FileName, &start, &end, &stmt.StartingBalance, &stmt.EndingBalance,
		&stmt.TransactionsCount, &stmt.UnvalidatedCount, &stmt.ExtractionError, &stmt.ArchiveKey, &stmt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	stmt.PeriodStart = dateFromTime(start)
	stmt.PeriodEnd = dateFromTime(end)
	return stmt, nil
}

// RecordStatementBatch persists a statement together with every transaction parsed from it.
// Either all rows are committed or none are; a cancelled context rolls the batch back.
//
// Parameters:
// - ctx: The context for the operation. Cancelling it aborts the batch.
// - stmt: The statement audit record.
// - txns: The transactions extracted from the statement.
//
// Returns:
// - error: An APIError if any insert or the commit fails.
func (d Datasource) RecordStatementBatch(ctx context.Context, stmt *model.Statement, txns []*model.BankTransaction) error {
	ctx, span := otel.Tracer("Statement").Start(ctx, "Saving statement batch to db")
	defer span.End()
	span.SetAttributes(attribute.Int("statement.transactions", len(txns)))

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tally.statements(
			statement_id, file_name, period_start, period_end, starting_balance, ending_balance,
			transactions_count, unvalidated_count, extraction_error, archive_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		stmt.StatementID, stmt.FileName, dateArg(stmt.PeriodStart), dateArg(stmt.PeriodEnd),
		stmt.StartingBalance, stmt.EndingBalance, stmt.TransactionsCount, stmt.UnvalidatedCount,
		stmt.ExtractionError, stmt.ArchiveKey, stmt.CreatedAt,
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record statement", err)
	}

	for _, txn := range txns {
		if err := ctx.Err(); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Statement batch cancelled", err)
		}
		if _, err := tx.ExecContext(ctx, insertBankTransaction, bankTransactionArgs(txn)...); err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record statement transaction", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit statement batch", err)
	}

	return nil
}

// GetStatementByID retrieves a statement by its ID
func (d Datasource) GetStatementByID(ctx context.Context, id string) (*model.Statement, error) {
	ctx, span := otel.Tracer("Statement").Start(ctx, "Fetching statement from db")
	defer span.End()

	stmt, err := scanStatement(d.Conn.QueryRowContext(ctx, `
		SELECT `+statementColumns+`
		FROM tally.statements
		WHERE statement_id = $1
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, statementNotFound(id, err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve statement", err)
	}

	return stmt, nil
}

// GetStatements lists statements, newest first
func (d Datasource) GetStatements(ctx context.Context) ([]*model.Statement, error) {
	ctx, span := otel.Tracer("Statement").Start(ctx, "Fetching statements from db")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+statementColumns+`
		FROM tally.statements
		ORDER BY created_at DESC, statement_id
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve statements", err)
	}
	defer rows.Close()

	statements := []*model.Statement{}
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan statement data", err)
		}
		statements = append(statements, stmt)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over statements", err)
	}

	return statements, nil
}
