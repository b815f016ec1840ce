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

const checkColumns = `check_id, check_number, date_issued, amount, payee, description, status, date_cleared, purchase_order_id, created_at, updated_at`

func scanCheck(row rowScanner) (*model.Check, error) {
	chk := &model.Check{}
	var issued time.Time
	var cleared sql.NullTime
	err := row.Scan(
		&chk.CheckID, &chk.CheckNumber, &issued, &chk.Amount, &chk.Payee, &chk.Description,
		&chk.Status, &cleared, &chk.PurchaseOrderID, &chk.CreatedAt, &chk.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	chk.DateIssued = dateFromTime(issued)
	chk.DateCleared = dateFromNullTime(cleared)
	return chk, nil
}

// RecordCheck inserts a new check
func (d Datasource) RecordCheck(ctx context.Context, chk *model.Check) error {
	ctx, span := otel.Tracer("Check").Start(ctx, "Saving check to db")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO tally.checks(
			check_id, check_number, check_number_normalized, date_issued, amount, payee,
			description, status, date_cleared, purchase_order_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		chk.CheckID, chk.CheckNumber, model.NormalizeCheckNumber(chk.CheckNumber), dateArg(chk.DateIssued),
		chk.Amount, chk.Payee, chk.Description, chk.Status, nullDateArg(chk.DateCleared),
		chk.PurchaseOrderID, chk.CreatedAt, chk.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return apierror.NewAPIError(apierror.ErrConflict, "Check with this ID already exists", err)
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record check", err)
	}

	return nil
}

// GetCheckByID retrieves a check by its ID
func (d Datasource) GetCheckByID(ctx context.Context, id string) (*model.Check, error) {
	ctx, span := otel.Tracer("Check").Start(ctx, "Fetching check from db")
	defer span.End()

	chk, err := scanCheck(d.Conn.QueryRowContext(ctx, `
		SELECT `+checkColumns+`
		FROM tally.checks
		WHERE check_id = $1
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, checkNotFound(id, err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve check", err)
	}

	return chk, nil
}

// GetChecks lists checks ordered by issue date, check number and ID
func (d Datasource) GetChecks(ctx context.Context, filter model.CheckFilter) ([]*model.Check, error) {
	ctx, span := otel.Tracer("Check").Start(ctx, "Fetching checks from db")
	defer span.End()

	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CheckNumber != "" {
		args = append(args, model.NormalizeCheckNumber(filter.CheckNumber))
		conditions = append(conditions, fmt.Sprintf("check_number_normalized = $%d", len(args)))
	}
	if filter.IssuedOnOrBefore != nil {
		args = append(args, dateArg(*filter.IssuedOnOrBefore))
		conditions = append(conditions, fmt.Sprintf("date_issued <= $%d", len(args)))
	}

	query := `SELECT ` + checkColumns + ` FROM tally.checks`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY date_issued, check_number, check_id`

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve checks", err)
	}
	defer rows.Close()

	checks := []*model.Check{}
	for rows.Next() {
		chk, err := scanCheck(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan check data", err)
		}
		checks = append(checks, chk)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over checks", err)
	}

	return checks, nil
}

// UpdateCheckStatus moves a check from one status to another. The update only
// applies while the check is still in from; otherwise the current status is reported.
func (d Datasource) UpdateCheckStatus(ctx context.Context, id string, from, to model.CheckStatus) (*model.Check, error) {
	ctx, span := otel.Tracer("Check").Start(ctx, "Updating check status")
	defer span.End()

	chk, err := scanCheck(d.Conn.QueryRowContext(ctx, `
		UPDATE tally.checks
		SET status = $3, updated_at = NOW()
		WHERE check_id = $1 AND status = $2
		RETURNING `+checkColumns, id, from, to))
	if err == nil {
		return chk, nil
	}
	if err != sql.ErrNoRows {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update check status", err)
	}

	current, getErr := d.GetCheckByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, apierror.NewAPIError(apierror.ErrInvalidStateTransition,
		fmt.Sprintf("check %s is %s; cannot move it to %s", id, current.Status, to), nil)
}

// CountPendingChecksByNumber counts pending checks carrying the same check number
func (d Datasource) CountPendingChecksByNumber(ctx context.Context, checkNumber string) (int, error) {
	ctx, span := otel.Tracer("Check").Start(ctx, "Counting pending checks by number")
	defer span.End()

	var count int
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tally.checks
		WHERE check_number_normalized = $1 AND status = 'pending'
	`, model.NormalizeCheckNumber(checkNumber)).Scan(&count)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count checks", err)
	}

	return count, nil
}
