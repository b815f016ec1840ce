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
	"strings"

	"cloud.google.com/go/civil"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/blnkfinance/tally/model"
)

type RecordBankTransaction struct {
	Date            string          `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	CheckNumber     string          `json:"check_number"`
	Source          string          `json:"source"`
	PurchaseOrderID string          `json:"purchase_order_id"`
}

func (r *RecordBankTransaction) ValidateRecordBankTransaction() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Date, validation.Required, dateRule),
		validation.Field(&r.Description, validation.Length(0, 500)),
		validation.Field(&r.Amount, amountRule),
		validation.Field(&r.Type, validation.Required, validation.In(string(model.TransactionTypeDebit), string(model.TransactionTypeCredit))),
		validation.Field(&r.CheckNumber, validation.Length(0, 32)),
		validation.Field(&r.Source, validation.In(string(model.SourceManual), string(model.SourceCSV))),
	)
}

// ToBankTransaction assumes ValidateRecordBankTransaction has passed.
func (r *RecordBankTransaction) ToBankTransaction() *model.BankTransaction {
	date, _ := civil.ParseDate(r.Date)
	return &model.BankTransaction{
		Date:            date,
		Description:     strings.TrimSpace(r.Description),
		Amount:          r.Amount,
		Type:            model.TransactionType(r.Type),
		CheckNumber:     strings.TrimSpace(r.CheckNumber),
		Source:          model.TransactionSource(r.Source),
		PurchaseOrderID: strings.TrimSpace(r.PurchaseOrderID),
	}
}
