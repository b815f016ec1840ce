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
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/database"
	"github.com/blnkfinance/tally/internal/apierror"
	redlock "github.com/blnkfinance/tally/internal/lock"
	"github.com/blnkfinance/tally/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	lockTTL  = 10 * time.Second
	lockWait = 3 * time.Second

	reasonAmbiguousCheckNumber = "more than one pending check carries this check number and amount"
	reasonAmbiguousAmountDate  = "more than one pending check has this amount within the date window"
	reasonAmbiguousDeposit     = "more than one statement credit can confirm this deposit"
	reasonConcurrentChange     = "transaction or check changed while matching"
)

// withCheckLock serializes work on one check across processes when Redis is
// configured. The store's guarded updates remain authoritative.
func (t *Tally) withCheckLock(ctx context.Context, checkID string, fn func(ctx context.Context) error) error {
	if t.redis == nil {
		return fn(ctx)
	}
	holder := model.GenerateUUIDWithSuffix("lock")
	return redlock.WithLock(ctx, t.redis, redlock.CheckKey(checkID), holder, lockTTL, lockWait, fn)
}

func (t *Tally) applyMatch(ctx context.Context, transactionID, checkID string) (*model.BankTransaction, *model.Check, error) {
	var (
		txn *model.BankTransaction
		chk *model.Check
	)
	err := t.withCheckLock(ctx, checkID, func(ctx context.Context) error {
		var err error
		txn, chk, err = t.datasource.ApplyMatch(ctx, transactionID, checkID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	delta := txn.Amount.Sub(chk.Amount)
	t.emit(ctx, EventCheckCleared, model.MatchResult{Transaction: txn, Check: chk, AmountDelta: delta, AmountsMatch: delta.IsZero()})
	return txn, chk, nil
}

// MatchCheck clears a pending check against an unmatched debit. Differing
// amounts are accepted; the result reports the difference.
func (t *Tally) MatchCheck(ctx context.Context, transactionID, checkID string) (*model.MatchResult, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "MatchCheck")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", transactionID), attribute.String("check.id", checkID))

	txn, err := t.datasource.GetBankTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	chk, err := t.datasource.GetCheckByID(ctx, checkID)
	if err != nil {
		return nil, err
	}
	if err := database.ValidateMatch(txn, chk); err != nil {
		return nil, err
	}

	txn, chk, err = t.applyMatch(ctx, transactionID, checkID)
	if err != nil {
		return nil, err
	}

	delta := txn.Amount.Sub(chk.Amount)
	logrus.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"check_id":       checkID,
		"amount_delta":   delta.String(),
	}).Info("check matched")

	return &model.MatchResult{
		Transaction:  txn,
		Check:        chk,
		AmountDelta:  delta,
		AmountsMatch: delta.IsZero(),
	}, nil
}

// UnmatchCheck reverses a match, returning the check to pending.
func (t *Tally) UnmatchCheck(ctx context.Context, transactionID string) (*model.UnmatchResult, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "UnmatchCheck")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", transactionID))

	current, err := t.datasource.GetBankTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := database.ValidateUnmatch(current); err != nil {
		return nil, err
	}

	var result model.UnmatchResult
	err = t.withCheckLock(ctx, current.MatchedCheckID, func(ctx context.Context) error {
		txn, chk, err := t.datasource.RevertMatch(ctx, transactionID)
		if err != nil {
			return err
		}
		result = model.UnmatchResult{Transaction: txn, Check: chk}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"transaction_id": transactionID, "check_id": result.Check.CheckID}).Info("check unmatched")

	t.emit(ctx, EventCheckUncleared, result)
	return &result, nil
}

// matchRun is the state of one AutoMatch call.
type matchRun struct {
	t       *Tally
	result  *model.AutoMatchResult
	checks  []*model.Check
	claimed map[string]bool
}

// AutoMatch clears every pending check that can be paired with exactly one
// unmatched debit, first by check number and then by amount within the date
// window, and confirms deposits in transit against statement credits.
// Ambiguous candidates are skipped and reported, never guessed. Running it
// again without new data matches nothing further.
func (t *Tally) AutoMatch(ctx context.Context) (*model.AutoMatchResult, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "AutoMatch")
	defer span.End()

	checks, err := t.datasource.GetChecks(ctx, model.CheckFilter{Status: model.CheckStatusPending})
	if err != nil {
		return nil, err
	}
	unmatched := false
	debits, err := t.datasource.GetBankTransactions(ctx, model.BankTransactionFilter{Type: model.TransactionTypeDebit, Matched: &unmatched})
	if err != nil {
		return nil, err
	}
	sortChecks(checks)
	sortTransactions(debits)

	run := &matchRun{
		t: t,
		result: &model.AutoMatchResult{
			Matches:  []model.AutoMatchEntry{},
			Skipped:  []model.SkippedTransaction{},
			Deposits: []model.DepositConfirmation{},
		},
		checks:  checks,
		claimed: make(map[string]bool),
	}

	var withoutNumber []*model.BankTransaction
	for _, txn := range debits {
		if model.NormalizeCheckNumber(txn.CheckNumber) == "" {
			withoutNumber = append(withoutNumber, txn)
			continue
		}
		if err := run.matchOne(ctx, txn, run.byCheckNumber(txn), model.RuleCheckNumber, reasonAmbiguousCheckNumber); err != nil {
			return nil, err
		}
	}
	for _, txn := range withoutNumber {
		if err := run.matchOne(ctx, txn, run.byAmountAndDate(txn), model.RuleAmountDate, reasonAmbiguousAmountDate); err != nil {
			return nil, err
		}
	}

	if err := t.confirmDeposits(ctx, run.result); err != nil {
		return nil, err
	}

	res := run.result
	res.Message = fmt.Sprintf("Matched %d transactions, skipped %d ambiguous, %d left unmatched, confirmed %d deposits",
		res.MatchedCount, res.SkippedCount, res.UnmatchedCount, res.DepositsConfirmedCount)
	span.SetAttributes(attribute.Int("matched", res.MatchedCount), attribute.Int("skipped", res.SkippedCount))
	logrus.WithFields(logrus.Fields{
		"matched":   res.MatchedCount,
		"skipped":   res.SkippedCount,
		"unmatched": res.UnmatchedCount,
		"deposits":  res.DepositsConfirmedCount,
	}).Info("auto-match finished")

	t.emit(ctx, EventAutoMatchFinished, res)
	return res, nil
}

func (r *matchRun) byCheckNumber(txn *model.BankTransaction) []*model.Check {
	number := model.NormalizeCheckNumber(txn.CheckNumber)
	tol := r.t.config.Reconciliation.Tolerance()
	var out []*model.Check
	for _, chk := range r.checks {
		if r.claimed[chk.CheckID] || model.NormalizeCheckNumber(chk.CheckNumber) != number {
			continue
		}
		if model.WithinTolerance(txn.Amount, chk.Amount, tol) {
			out = append(out, chk)
		}
	}
	return out
}

func (r *matchRun) byAmountAndDate(txn *model.BankTransaction) []*model.Check {
	tol := r.t.config.Reconciliation.Tolerance()
	earliest := txn.Date.AddDays(-r.t.config.Reconciliation.DateWindowDays)
	var out []*model.Check
	for _, chk := range r.checks {
		if r.claimed[chk.CheckID] {
			continue
		}
		if chk.DateIssued.Before(earliest) || chk.DateIssued.After(txn.Date) {
			continue
		}
		if model.WithinTolerance(txn.Amount, chk.Amount, tol) {
			out = append(out, chk)
		}
	}
	return out
}

// matchOne applies the single candidate, or records why it could not.
func (r *matchRun) matchOne(ctx context.Context, txn *model.BankTransaction, candidates []*model.Check, rule model.MatchRule, ambiguous string) error {
	res := r.result
	switch len(candidates) {
	case 0:
		res.UnmatchedCount++
		return nil
	case 1:
	default:
		res.SkippedCount++
		res.Skipped = append(res.Skipped, model.SkippedTransaction{
			TransactionID: txn.TransactionID,
			Reason:        ambiguous,
			CandidateIDs:  checkIDs(candidates),
		})
		return nil
	}

	chk := candidates[0]
	r.claimed[chk.CheckID] = true
	if _, _, err := r.t.applyMatch(ctx, txn.TransactionID, chk.CheckID); err != nil {
		if !isConcurrentChange(err) {
			return err
		}
		logrus.WithError(err).WithFields(logrus.Fields{"transaction_id": txn.TransactionID, "check_id": chk.CheckID}).Warn("auto-match conflict")
		res.SkippedCount++
		res.Skipped = append(res.Skipped, model.SkippedTransaction{
			TransactionID: txn.TransactionID,
			Reason:        reasonConcurrentChange,
			CandidateIDs:  []string{chk.CheckID},
		})
		return nil
	}
	res.MatchedCount++
	res.Matches = append(res.Matches, model.AutoMatchEntry{TransactionID: txn.TransactionID, CheckID: chk.CheckID, Rule: rule})
	return nil
}

// isConcurrentChange reports whether err means another writer got there first.
func isConcurrentChange(err error) bool {
	return apierror.Is(err, apierror.ErrInvalidStateTransition) ||
		apierror.Is(err, apierror.ErrNotFound) ||
		apierror.Is(err, apierror.ErrConflict)
}

func checkIDs(checks []*model.Check) []string {
	ids := make([]string, 0, len(checks))
	for _, chk := range checks {
		ids = append(ids, chk.CheckID)
	}
	return ids
}

// sortChecks orders checks by issue date, check number and id.
func sortChecks(checks []*model.Check) {
	sort.SliceStable(checks, func(i, j int) bool {
		a, b := checks[i], checks[j]
		if a.DateIssued != b.DateIssued {
			return a.DateIssued.Before(b.DateIssued)
		}
		if a.CheckNumber != b.CheckNumber {
			return a.CheckNumber < b.CheckNumber
		}
		return a.CheckID < b.CheckID
	})
}

// sortTransactions orders transactions by date and id.
func sortTransactions(txns []*model.BankTransaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.TransactionID < b.TransactionID
	})
}

func onOrBefore(d civil.Date, limit *civil.Date) bool {
	return limit == nil || !d.After(*limit)
}
