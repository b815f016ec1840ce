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

// Package memdb is an in-memory implementation of database.IDataSource.
// Every mutation runs under a single mutex, so multi-row operations are atomic.
// Records are copied on the way in and on the way out.
package memdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blnkfinance/tally/database"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
)

type Store struct {
	mu           sync.Mutex
	checks       map[string]*model.Check
	transactions map[string]*model.BankTransaction
	statements   map[string]*model.Statement
}

var _ database.IDataSource = (*Store)(nil)

func New() *Store {
	return &Store{
		checks:       map[string]*model.Check{},
		transactions: map[string]*model.BankTransaction{},
		statements:   map[string]*model.Statement{},
	}
}

func (s *Store) RecordCheck(ctx context.Context, chk *model.Check) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checks[chk.CheckID]; ok {
		return apierror.NewAPIError(apierror.ErrConflict, "Check with this ID already exists", nil)
	}
	s.checks[chk.CheckID] = chk.Clone()
	return nil
}

func (s *Store) GetCheckByID(ctx context.Context, id string) (*model.Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	chk, ok := s.checks[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("check with ID '%s' not found", id), nil)
	}
	return chk.Clone(), nil
}

func (s *Store) GetChecks(ctx context.Context, filter model.CheckFilter) ([]*model.Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	checks := []*model.Check{}
	for _, chk := range s.checks {
		if filter.Matches(chk) {
			checks = append(checks, chk.Clone())
		}
	}
	sort.Slice(checks, func(i, j int) bool {
		a, b := checks[i], checks[j]
		if a.DateIssued != b.DateIssued {
			return a.DateIssued.Before(b.DateIssued)
		}
		if a.CheckNumber != b.CheckNumber {
			return a.CheckNumber < b.CheckNumber
		}
		return a.CheckID < b.CheckID
	})
	return checks, nil
}

func (s *Store) UpdateCheckStatus(ctx context.Context, id string, from, to model.CheckStatus) (*model.Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	chk, ok := s.checks[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("check with ID '%s' not found", id), nil)
	}
	if chk.Status != from {
		return nil, apierror.NewAPIError(apierror.ErrInvalidStateTransition,
			fmt.Sprintf("check %s is %s; cannot move it to %s", id, chk.Status, to), nil)
	}
	chk.Status = to
	chk.UpdatedAt = time.Now().UTC()
	return chk.Clone(), nil
}

func (s *Store) CountPendingChecksByNumber(ctx context.Context, checkNumber string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	want := model.NormalizeCheckNumber(checkNumber)
	count := 0
	for _, chk := range s.checks {
		if chk.IsPending() && model.NormalizeCheckNumber(chk.CheckNumber) == want {
			count++
		}
	}
	return count, nil
}

func (s *Store) RecordBankTransaction(ctx context.Context, txn *model.BankTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[txn.TransactionID]; ok {
		return apierror.NewAPIError(apierror.ErrConflict, "Bank transaction with this ID already exists", nil)
	}
	s.transactions[txn.TransactionID] = txn.Clone()
	return nil
}

func (s *Store) GetBankTransactionByID(ctx context.Context, id string) (*model.BankTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[id]
	if !ok {
		return nil, transactionNotFound(id)
	}
	return txn.Clone(), nil
}

func (s *Store) GetBankTransactions(ctx context.Context, filter model.BankTransactionFilter) ([]*model.BankTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txns := []*model.BankTransaction{}
	for _, txn := range s.transactions {
		if filter.Matches(txn) {
			txns = append(txns, txn.Clone())
		}
	}
	sort.Slice(txns, func(i, j int) bool {
		a, b := txns[i], txns[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.TransactionID < b.TransactionID
	})
	return txns, nil
}

func (s *Store) LinkPurchaseOrder(ctx context.Context, transactionID, purchaseOrderID string) (*model.BankTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, transactionNotFound(transactionID)
	}
	txn.PurchaseOrderID = purchaseOrderID
	return txn.Clone(), nil
}

func (s *Store) RecordStatementBatch(ctx context.Context, stmt *model.Statement, txns []*model.BankTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statements[stmt.StatementID]; ok {
		return apierror.NewAPIError(apierror.ErrConflict, "Statement with this ID already exists", nil)
	}
	for _, txn := range txns {
		if _, ok := s.transactions[txn.TransactionID]; ok {
			return apierror.NewAPIError(apierror.ErrConflict, "Bank transaction with this ID already exists", nil)
		}
	}
	cp := *stmt
	s.statements[stmt.StatementID] = &cp
	for _, txn := range txns {
		s.transactions[txn.TransactionID] = txn.Clone()
	}
	return nil
}

func (s *Store) GetStatementByID(ctx context.Context, id string) (*model.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, ok := s.statements[id]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("statement with ID '%s' not found", id), nil)
	}
	cp := *stmt
	return &cp, nil
}

func (s *Store) GetStatements(ctx context.Context) ([]*model.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	statements := make([]*model.Statement, 0, len(s.statements))
	for _, stmt := range s.statements {
		cp := *stmt
		statements = append(statements, &cp)
	}
	sort.Slice(statements, func(i, j int) bool {
		if !statements[i].CreatedAt.Equal(statements[j].CreatedAt) {
			return statements[i].CreatedAt.After(statements[j].CreatedAt)
		}
		return statements[i].StatementID < statements[j].StatementID
	})
	return statements, nil
}

func (s *Store) ApplyMatch(ctx context.Context, transactionID, checkID string) (*model.BankTransaction, *model.Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, nil, transactionNotFound(transactionID)
	}
	chk, ok := s.checks[checkID]
	if !ok {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("check with ID '%s' not found", checkID), nil)
	}
	if err := database.ValidateMatch(txn, chk); err != nil {
		return nil, nil, err
	}
	cleared := txn.Date
	chk.Status = model.CheckStatusCleared
	chk.DateCleared = &cleared
	chk.UpdatedAt = time.Now().UTC()
	txn.MatchedCheckID = checkID
	return txn.Clone(), chk.Clone(), nil
}

func (s *Store) RevertMatch(ctx context.Context, transactionID string) (*model.BankTransaction, *model.Check, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, nil, transactionNotFound(transactionID)
	}
	if err := database.ValidateUnmatch(txn); err != nil {
		return nil, nil, err
	}
	chk, ok := s.checks[txn.MatchedCheckID]
	if !ok {
		return nil, nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("check with ID '%s' not found", txn.MatchedCheckID), nil)
	}
	if chk.Status != model.CheckStatusCleared {
		return nil, nil, apierror.NewAPIError(apierror.ErrInvalidStateTransition, fmt.Sprintf("check %s is not cleared", chk.CheckID), nil)
	}
	chk.Status = model.CheckStatusPending
	chk.DateCleared = nil
	chk.UpdatedAt = time.Now().UTC()
	txn.MatchedCheckID = ""
	return txn.Clone(), chk.Clone(), nil
}

func (s *Store) ConfirmDeposit(ctx context.Context, bookTransactionID, statementTransactionID string) (*model.BankTransaction, *model.BankTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.transactions[bookTransactionID]
	if !ok {
		return nil, nil, transactionNotFound(bookTransactionID)
	}
	stmt, ok := s.transactions[statementTransactionID]
	if !ok {
		return nil, nil, transactionNotFound(statementTransactionID)
	}
	if err := database.ValidateDepositPair(book, stmt); err != nil {
		return nil, nil, err
	}
	book.StatementID = stmt.StatementID
	book.PairedTransactionID = stmt.TransactionID
	stmt.PairedTransactionID = book.TransactionID
	return book.Clone(), stmt.Clone(), nil
}

func transactionNotFound(id string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("bank transaction with ID '%s' not found", id), nil)
}
