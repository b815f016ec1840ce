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
package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type MatchRule string

const (
	RuleCheckNumber MatchRule = "check_number"
	RuleAmountDate  MatchRule = "amount_and_date"
	RuleManual      MatchRule = "manual"
)

// MatchResult describes the state of both sides after a match.
type MatchResult struct {
	Transaction  *BankTransaction `json:"transaction"`
	Check        *Check           `json:"check"`
	AmountDelta  decimal.Decimal  `json:"amount_delta"`
	AmountsMatch bool             `json:"amounts_match"`
}

// UnmatchResult describes the state of both sides after a match was reverted.
type UnmatchResult struct {
	Transaction *BankTransaction `json:"transaction"`
	Check       *Check           `json:"check"`
}

type AutoMatchEntry struct {
	TransactionID string    `json:"transaction_id"`
	CheckID       string    `json:"check_id"`
	Rule          MatchRule `json:"rule"`
}

type SkippedTransaction struct {
	TransactionID string   `json:"transaction_id"`
	Reason        string   `json:"reason"`
	CandidateIDs  []string `json:"candidate_ids,omitempty"`
}

type DepositConfirmation struct {
	BookTransactionID      string `json:"book_transaction_id"`
	StatementTransactionID string `json:"statement_transaction_id"`
}

type AutoMatchResult struct {
	MatchedCount           int                   `json:"matched_count"`
	SkippedCount           int                   `json:"skipped_count"`
	UnmatchedCount         int                   `json:"unmatched_count"`
	DepositsConfirmedCount int                   `json:"deposits_confirmed_count"`
	Matches                []AutoMatchEntry      `json:"matches"`
	Skipped                []SkippedTransaction  `json:"skipped"`
	Deposits               []DepositConfirmation `json:"deposits"`
	Message                string                `json:"message"`
}

// MatchSuggestion is a ranked candidate check for a single bank transaction.
type MatchSuggestion struct {
	Check      *Check          `json:"check"`
	Score      float64         `json:"score"`
	Confidence string          `json:"confidence"`
	AmountDiff decimal.Decimal `json:"amount_difference"`
	DaysApart  int             `json:"days_apart"`
	Reasons    []string        `json:"reasons"`
}

// DepositResult describes both sides of a confirmed deposit.
type DepositResult struct {
	BookTransaction      *BankTransaction `json:"book_transaction"`
	StatementTransaction *BankTransaction `json:"statement_transaction"`
}

type ReconciliationReport struct {
	StatementID            string             `json:"statement_id,omitempty"`
	AsOf                   *civil.Date        `json:"as_of,omitempty"`
	StatementBalance       decimal.Decimal    `json:"statement_balance"`
	BookBalance            *decimal.Decimal   `json:"book_balance,omitempty"`
	OutstandingChecks      []*Check           `json:"outstanding_checks"`
	OutstandingChecksTotal decimal.Decimal    `json:"outstanding_checks_total"`
	DepositsInTransit      []*BankTransaction `json:"deposits_in_transit"`
	DepositsInTransitTotal decimal.Decimal    `json:"deposits_in_transit_total"`
	ReconciledBalance      decimal.Decimal    `json:"reconciled_balance"`
	Difference             decimal.Decimal    `json:"difference"`
	Tolerance              decimal.Decimal    `json:"tolerance"`
	IsReconciled           bool               `json:"is_reconciled"`
}
