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
	"strings"
	"time"

	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

func validateBankTransaction(txn *model.BankTransaction) error {
	if txn.Source == "" {
		txn.Source = model.SourceManual
	}
	txn.Description = strings.TrimSpace(txn.Description)
	txn.CheckNumber = strings.TrimSpace(txn.CheckNumber)
	err := validation.ValidateStruct(txn,
		validation.Field(&txn.Date, validDate),
		validation.Field(&txn.Amount, positiveAmount),
		validation.Field(&txn.Type, validation.Required, validation.In(model.TransactionTypeDebit, model.TransactionTypeCredit)),
		validation.Field(&txn.Source, validation.In(model.SourceManual, model.SourceCSV).Error("must be manual or csv; statement lines are created by uploads")),
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	return nil
}

// RecordBankTransaction stores a transaction entered by hand or imported from
// a CSV export. It starts unmatched and, for credits, in transit.
func (t *Tally) RecordBankTransaction(ctx context.Context, txn *model.BankTransaction) (*model.BankTransaction, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "RecordBankTransaction")
	defer span.End()

	if err := validateBankTransaction(txn); err != nil {
		return nil, err
	}
	txn.TransactionID = model.GenerateUUIDWithSuffix("btx")
	txn.MatchedCheckID = ""
	txn.StatementID = ""
	txn.PairedTransactionID = ""
	txn.Validated = true
	txn.CreatedAt = time.Now().UTC()

	if err := t.datasource.RecordBankTransaction(ctx, txn); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"transaction_id": txn.TransactionID, "type": txn.Type, "source": txn.Source}).Info("bank transaction recorded")
	return txn, nil
}

func (t *Tally) GetBankTransaction(ctx context.Context, transactionID string) (*model.BankTransaction, error) {
	return t.datasource.GetBankTransactionByID(ctx, transactionID)
}

// ListBankTransactions returns transactions ordered by date and id.
func (t *Tally) ListBankTransactions(ctx context.Context, filter model.BankTransactionFilter) ([]*model.BankTransaction, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown transaction type %q", filter.Type), nil)
	}
	if filter.Source != "" && !filter.Source.IsValid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown transaction source %q", filter.Source), nil)
	}
	return t.datasource.GetBankTransactions(ctx, filter)
}

// LinkPurchaseOrder attaches a purchase order reference to a transaction.
func (t *Tally) LinkPurchaseOrder(ctx context.Context, transactionID, purchaseOrderID string) (*model.BankTransaction, error) {
	purchaseOrderID = strings.TrimSpace(purchaseOrderID)
	if purchaseOrderID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "purchase order id is required", nil)
	}
	return t.datasource.LinkPurchaseOrder(ctx, transactionID, purchaseOrderID)
}
