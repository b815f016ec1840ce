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
package mocks

import (
	"context"

	"github.com/blnkfinance/tally/model"
	"github.com/stretchr/testify/mock"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Check methods

func (m *MockDataSource) RecordCheck(ctx context.Context, chk *model.Check) error {
	args := m.Called(ctx, chk)
	return args.Error(0)
}

func (m *MockDataSource) GetCheckByID(ctx context.Context, id string) (*model.Check, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Check), args.Error(1)
}

func (m *MockDataSource) GetChecks(ctx context.Context, filter model.CheckFilter) ([]*model.Check, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Check), args.Error(1)
}

func (m *MockDataSource) UpdateCheckStatus(ctx context.Context, id string, from, to model.CheckStatus) (*model.Check, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Check), args.Error(1)
}

func (m *MockDataSource) CountPendingChecksByNumber(ctx context.Context, checkNumber string) (int, error) {
	args := m.Called(ctx, checkNumber)
	return args.Int(0), args.Error(1)
}

// Bank transaction methods

func (m *MockDataSource) RecordBankTransaction(ctx context.Context, txn *model.BankTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockDataSource) GetBankTransactionByID(ctx context.Context, id string) (*model.BankTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankTransaction), args.Error(1)
}

func (m *MockDataSource) GetBankTransactions(ctx context.Context, filter model.BankTransactionFilter) ([]*model.BankTransaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BankTransaction), args.Error(1)
}

func (m *MockDataSource) LinkPurchaseOrder(ctx context.Context, transactionID, purchaseOrderID string) (*model.BankTransaction, error) {
	args := m.Called(ctx, transactionID, purchaseOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BankTransaction), args.Error(1)
}

// Statement methods

func (m *MockDataSource) RecordStatementBatch(ctx context.Context, stmt *model.Statement, txns []*model.BankTransaction) error {
	args := m.Called(ctx, stmt, txns)
	return args.Error(0)
}

func (m *MockDataSource) GetStatementByID(ctx context.Context, id string) (*model.Statement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Statement), args.Error(1)
}

func (m *MockDataSource) GetStatements(ctx context.Context) ([]*model.Statement, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Statement), args.Error(1)
}

// Matching methods

func (m *MockDataSource) ApplyMatch(ctx context.Context, transactionID, checkID string) (*model.BankTransaction, *model.Check, error) {
	args := m.Called(ctx, transactionID, checkID)
	txn, _ := args.Get(0).(*model.BankTransaction)
	chk, _ := args.Get(1).(*model.Check)
	return txn, chk, args.Error(2)
}

func (m *MockDataSource) RevertMatch(ctx context.Context, transactionID string) (*model.BankTransaction, *model.Check, error) {
	args := m.Called(ctx, transactionID)
	txn, _ := args.Get(0).(*model.BankTransaction)
	chk, _ := args.Get(1).(*model.Check)
	return txn, chk, args.Error(2)
}

func (m *MockDataSource) ConfirmDeposit(ctx context.Context, bookTransactionID, statementTransactionID string) (*model.BankTransaction, *model.BankTransaction, error) {
	args := m.Called(ctx, bookTransactionID, statementTransactionID)
	book, _ := args.Get(0).(*model.BankTransaction)
	stmt, _ := args.Get(1).(*model.BankTransaction)
	return book, stmt, args.Error(2)
}
