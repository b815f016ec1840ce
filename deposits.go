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
	"github.com/blnkfinance/tally/database"
	"github.com/blnkfinance/tally/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

// ConfirmDeposit pairs a book credit with the statement credit that shows it
// reached the bank, taking it out of transit.
func (t *Tally) ConfirmDeposit(ctx context.Context, bookTransactionID, statementTransactionID string) (*model.DepositResult, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "ConfirmDeposit")
	defer span.End()

	book, err := t.datasource.GetBankTransactionByID(ctx, bookTransactionID)
	if err != nil {
		return nil, err
	}
	stmt, err := t.datasource.GetBankTransactionByID(ctx, statementTransactionID)
	if err != nil {
		return nil, err
	}
	if err := database.ValidateDepositPair(book, stmt); err != nil {
		return nil, err
	}

	book, stmt, err = t.datasource.ConfirmDeposit(ctx, bookTransactionID, statementTransactionID)
	if err != nil {
		return nil, err
	}
	result := &model.DepositResult{BookTransaction: book, StatementTransaction: stmt}
	logrus.WithFields(logrus.Fields{"book_transaction_id": bookTransactionID, "statement_transaction_id": statementTransactionID}).Info("deposit confirmed")

	t.emit(ctx, EventDepositConfirmed, result)
	return result, nil
}

// DepositsInTransit lists book credits no statement has confirmed, dated on or
// before asOf when it is given.
func (t *Tally) DepositsInTransit(ctx context.Context, asOf *civil.Date) ([]*model.BankTransaction, error) {
	credits, err := t.datasource.GetBankTransactions(ctx, model.BankTransactionFilter{Type: model.TransactionTypeCredit, OnOrBefore: asOf})
	if err != nil {
		return nil, err
	}
	var out []*model.BankTransaction
	for _, txn := range credits {
		if txn.InTransit() && onOrBefore(txn.Date, asOf) {
			out = append(out, txn)
		}
	}
	sortTransactions(out)
	return out, nil
}

// confirmDeposits pairs each deposit in transit with the only unpaired
// statement credit of the same amount dated within the window after it.
func (t *Tally) confirmDeposits(ctx context.Context, res *model.AutoMatchResult) error {
	credits, err := t.datasource.GetBankTransactions(ctx, model.BankTransactionFilter{Type: model.TransactionTypeCredit})
	if err != nil {
		return err
	}
	sortTransactions(credits)

	var book, statement []*model.BankTransaction
	for _, txn := range credits {
		switch {
		case txn.InTransit():
			book = append(book, txn)
		case txn.Source == model.SourceStatement && txn.PairedTransactionID == "":
			statement = append(statement, txn)
		}
	}

	tol := t.config.Reconciliation.Tolerance()
	window := t.config.Reconciliation.DateWindowDays
	claimed := make(map[string]bool)

	for _, deposit := range book {
		latest := deposit.Date.AddDays(window)
		var candidates []*model.BankTransaction
		for _, credit := range statement {
			if claimed[credit.TransactionID] || credit.Date.Before(deposit.Date) || credit.Date.After(latest) {
				continue
			}
			if model.WithinTolerance(deposit.Amount, credit.Amount, tol) {
				candidates = append(candidates, credit)
			}
		}

		switch len(candidates) {
		case 0:
			continue
		case 1:
		default:
			ids := make([]string, 0, len(candidates))
			for _, c := range candidates {
				ids = append(ids, c.TransactionID)
			}
			res.SkippedCount++
			res.Skipped = append(res.Skipped, model.SkippedTransaction{
				TransactionID: deposit.TransactionID,
				Reason:        reasonAmbiguousDeposit,
				CandidateIDs:  ids,
			})
			continue
		}

		credit := candidates[0]
		claimed[credit.TransactionID] = true
		if _, err := t.ConfirmDeposit(ctx, deposit.TransactionID, credit.TransactionID); err != nil {
			if !isConcurrentChange(err) {
				return err
			}
			logrus.WithError(err).WithField("transaction_id", deposit.TransactionID).Warn("deposit confirmation conflict")
			res.SkippedCount++
			res.Skipped = append(res.Skipped, model.SkippedTransaction{
				TransactionID: deposit.TransactionID,
				Reason:        reasonConcurrentChange,
				CandidateIDs:  []string{credit.TransactionID},
			})
			continue
		}
		res.DepositsConfirmedCount++
		res.Deposits = append(res.Deposits, model.DepositConfirmation{
			BookTransactionID:      deposit.TransactionID,
			StatementTransactionID: credit.TransactionID,
		})
	}
	return nil
}
