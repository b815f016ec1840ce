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

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// ReportRequest holds the inputs of a reconciliation report. StatementBalance
// may be left nil when StatementID names a statement, whose ending balance and
// period end are then used.
type ReportRequest struct {
	StatementBalance *decimal.Decimal
	BookBalance      *decimal.Decimal
	AsOf             *civil.Date
	StatementID      string
}

// BuildReconciliationReport reconciles the bank balance against outstanding
// checks and deposits in transit:
//
//	reconciled = statement + deposits in transit - outstanding checks
//
// When a book balance is supplied the difference to it is reported.
func (t *Tally) BuildReconciliationReport(ctx context.Context, req ReportRequest) (*model.ReconciliationReport, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "BuildReconciliationReport")
	defer span.End()

	if req.StatementID != "" {
		stmt, err := t.datasource.GetStatementByID(ctx, req.StatementID)
		if err != nil {
			return nil, err
		}
		if req.StatementBalance == nil {
			balance := stmt.EndingBalance
			req.StatementBalance = &balance
		}
		if req.AsOf == nil {
			end := stmt.PeriodEnd
			req.AsOf = &end
		}
	}
	if req.StatementBalance == nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "statement_balance or statement_id is required", nil)
	}
	if req.AsOf != nil && !req.AsOf.IsValid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "as_of must be a valid date", nil)
	}

	checks, err := t.datasource.GetChecks(ctx, model.CheckFilter{Status: model.CheckStatusPending, IssuedOnOrBefore: req.AsOf})
	if err != nil {
		return nil, err
	}
	deposits, err := t.DepositsInTransit(ctx, req.AsOf)
	if err != nil {
		return nil, err
	}

	return reconcile(req, checks, deposits, t.config.Reconciliation.Tolerance()), nil
}

// reconcile computes the report from already loaded data. Equal inputs give equal reports.
func reconcile(req ReportRequest, checks []*model.Check, deposits []*model.BankTransaction, tolerance decimal.Decimal) *model.ReconciliationReport {
	outstanding := make([]*model.Check, 0, len(checks))
	for _, chk := range checks {
		if chk.IsPending() && onOrBefore(chk.DateIssued, req.AsOf) {
			outstanding = append(outstanding, chk)
		}
	}
	sortChecks(outstanding)

	inTransit := make([]*model.BankTransaction, 0, len(deposits))
	for _, txn := range deposits {
		if txn.InTransit() && onOrBefore(txn.Date, req.AsOf) {
			inTransit = append(inTransit, txn)
		}
	}
	sortTransactions(inTransit)

	report := &model.ReconciliationReport{
		StatementID:            req.StatementID,
		AsOf:                   req.AsOf,
		StatementBalance:       *req.StatementBalance,
		BookBalance:            req.BookBalance,
		OutstandingChecks:      outstanding,
		OutstandingChecksTotal: decimal.Zero,
		DepositsInTransit:      inTransit,
		DepositsInTransitTotal: decimal.Zero,
		Difference:             decimal.Zero,
		Tolerance:              tolerance,
	}
	for _, chk := range outstanding {
		report.OutstandingChecksTotal = report.OutstandingChecksTotal.Add(chk.Amount)
	}
	for _, txn := range inTransit {
		report.DepositsInTransitTotal = report.DepositsInTransitTotal.Add(txn.Amount)
	}

	report.ReconciledBalance = report.StatementBalance.
		Add(report.DepositsInTransitTotal).
		Sub(report.OutstandingChecksTotal)
	if req.BookBalance != nil {
		report.Difference = report.ReconciledBalance.Sub(*req.BookBalance)
	}
	report.IsReconciled = report.Difference.Abs().LessThanOrEqual(tolerance)
	return report
}
