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

type RegisterCheck struct {
	CheckNumber     string          `json:"check_number"`
	DateIssued      string          `json:"date_issued"`
	Amount          decimal.Decimal `json:"amount"`
	Payee           string          `json:"payee"`
	Description     string          `json:"description"`
	PurchaseOrderID string          `json:"purchase_order_id"`
}

func (r *RegisterCheck) ValidateRegisterCheck() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.CheckNumber, validation.Required, validation.Length(1, 32)),
		validation.Field(&r.DateIssued, validation.Required, dateRule),
		validation.Field(&r.Amount, amountRule),
		validation.Field(&r.Payee, validation.Required, validation.Length(1, 255)),
	)
}

// ToCheck assumes ValidateRegisterCheck has passed.
func (r *RegisterCheck) ToCheck() *model.Check {
	issued, _ := civil.ParseDate(r.DateIssued)
	return &model.Check{
		CheckNumber:     strings.TrimSpace(r.CheckNumber),
		DateIssued:      issued,
		Amount:          r.Amount,
		Payee:           strings.TrimSpace(r.Payee),
		Description:     r.Description,
		PurchaseOrderID: strings.TrimSpace(r.PurchaseOrderID),
	}
}

// RegisterCheckResponse carries the stored check plus any duplicate warnings.
type RegisterCheckResponse struct {
	*model.Check
	Warnings []string `json:"warnings,omitempty"`
}
