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
	"strings"

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"github.com/shopspring/decimal"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

const (
	maxSuggestions = 10

	weightAmount      = 0.35
	weightCloseAmount = 0.2
	weightCheckNumber = 0.25
	weightPayee       = 0.1

	// Suggestions scoring below this are not worth showing.
	minSuggestionScore = 0.3
)

var closeAmount = decimal.NewFromInt(1)

// dateWeights scores how far the check was issued before the transaction.
var dateWeights = []struct {
	days  int
	score float64
}{
	{0, 0.4}, {1, 0.35}, {3, 0.25}, {7, 0.15}, {14, 0.05},
}

// SuggestMatches ranks pending checks that could explain an unmatched debit.
// It changes nothing; a suggestion is taken with MatchCheck.
func (t *Tally) SuggestMatches(ctx context.Context, transactionID string) ([]model.MatchSuggestion, error) {
	txn, err := t.datasource.GetBankTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !txn.IsDebit() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is a %s; only debits can clear a check", txn.TransactionID, txn.Type), nil)
	}
	if txn.IsMatched() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("transaction %s is already matched to check %s", txn.TransactionID, txn.MatchedCheckID), nil)
	}

	checks, err := t.datasource.GetChecks(ctx, model.CheckFilter{Status: model.CheckStatusPending})
	if err != nil {
		return nil, err
	}

	tol := t.config.Reconciliation.Tolerance()
	suggestions := []model.MatchSuggestion{}
	for _, chk := range checks {
		s, ok := scoreCandidate(txn, chk, tol, t.config.Reconciliation.DateWindowDays)
		if ok {
			suggestions = append(suggestions, s)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Check.CheckID < suggestions[j].Check.CheckID
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

func scoreCandidate(txn *model.BankTransaction, chk *model.Check, tol decimal.Decimal, window int) (model.MatchSuggestion, bool) {
	s := model.MatchSuggestion{
		Check:      chk,
		AmountDiff: txn.Amount.Sub(chk.Amount),
		DaysApart:  txn.Date.DaysSince(chk.DateIssued),
		Reasons:    []string{},
	}

	diff := s.AmountDiff.Abs()
	switch {
	case diff.LessThanOrEqual(tol):
		s.Score += weightAmount
		s.Reasons = append(s.Reasons, "amount matches")
	case diff.LessThan(closeAmount):
		s.Score += weightCloseAmount
		s.Reasons = append(s.Reasons, "amount within "+closeAmount.String())
	default:
		return s, false
	}

	number := model.NormalizeCheckNumber(txn.CheckNumber)
	if number != "" {
		if number == model.NormalizeCheckNumber(chk.CheckNumber) {
			s.Score += weightCheckNumber
			s.Reasons = append(s.Reasons, "check number matches")
		} else {
			s.Score -= weightCheckNumber
		}
	}

	if s.DaysApart >= 0 && s.DaysApart <= window {
		for _, w := range dateWeights {
			if s.DaysApart <= w.days {
				s.Score += w.score
				s.Reasons = append(s.Reasons, fmt.Sprintf("issued %d days before", s.DaysApart))
				break
			}
		}
	} else if s.DaysApart < 0 {
		s.Reasons = append(s.Reasons, "issued after the transaction")
	}

	if similarity := payeeSimilarity(chk.Payee, txn.Description); similarity > 0 {
		s.Score += weightPayee * similarity
		if similarity >= 0.8 {
			s.Reasons = append(s.Reasons, "payee appears in description")
		}
	}

	s.Confidence = confidence(s.Score)
	return s, s.Score >= minSuggestionScore
}

// payeeSimilarity is 1 when the description contains the payee and otherwise
// the Levenshtein ratio of the two strings.
func payeeSimilarity(payee, description string) float64 {
	p := strings.ToUpper(strings.TrimSpace(payee))
	d := strings.ToUpper(strings.TrimSpace(description))
	if p == "" || d == "" {
		return 0
	}
	if strings.Contains(d, p) {
		return 1
	}
	return levenshtein.RatioForStrings([]rune(p), []rune(d), levenshtein.DefaultOptions)
}

func confidence(score float64) string {
	switch {
	case score >= 0.95:
		return "exact"
	case score >= 0.8:
		return "high"
	case score >= 0.6:
		return "medium"
	default:
		return "low"
	}
}
