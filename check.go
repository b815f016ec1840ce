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
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	errAmountNotPositive = errors.New("must be greater than zero")
	errInvalidDate       = errors.New("must be a valid date")
)

// positiveAmount is an ozzo rule for decimal amounts.
var positiveAmount = validation.By(func(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok || !amount.IsPositive() {
		return errAmountNotPositive
	}
	return nil
})

var validDate = validation.By(func(value interface{}) error {
	d, ok := value.(civil.Date)
	if !ok || !d.IsValid() {
		return errInvalidDate
	}
	return nil
})

func validateCheck(chk *model.Check) error {
	chk.CheckNumber = strings.TrimSpace(chk.CheckNumber)
	chk.Payee = strings.TrimSpace(chk.Payee)
	err := validation.ValidateStruct(chk,
		validation.Field(&chk.CheckNumber, validation.Required),
		validation.Field(&chk.Payee, validation.Required),
		validation.Field(&chk.DateIssued, validDate),
		validation.Field(&chk.Amount, positiveAmount),
	)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), nil)
	}
	return nil
}

// RegisterCheck records a newly issued check as pending. When another pending
// check carries the same number the configured policy either rejects the check
// or accepts it with a warning.
func (t *Tally) RegisterCheck(ctx context.Context, chk *model.Check) (*model.Check, []string, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "RegisterCheck")
	defer span.End()

	if err := validateCheck(chk); err != nil {
		return nil, nil, err
	}

	var warnings []string
	duplicates, err := t.datasource.CountPendingChecksByNumber(ctx, chk.CheckNumber)
	if err != nil {
		return nil, nil, err
	}
	if duplicates > 0 {
		if t.config.Reconciliation.DuplicateCheckPolicy == config.DuplicatePolicyReject {
			return nil, nil, apierror.NewAPIError(apierror.ErrConflict,
				fmt.Sprintf("a pending check with number %s already exists", chk.CheckNumber), nil)
		}
		warnings = append(warnings, fmt.Sprintf("%d pending check(s) already use number %s", duplicates, chk.CheckNumber))
	}

	now := time.Now().UTC()
	chk.CheckID = model.GenerateUUIDWithSuffix("chk")
	chk.Status = model.CheckStatusPending
	chk.DateCleared = nil
	chk.CreatedAt = now
	chk.UpdatedAt = now

	if err := t.datasource.RecordCheck(ctx, chk); err != nil {
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("check.id", chk.CheckID))
	logrus.WithFields(logrus.Fields{"check_id": chk.CheckID, "check_number": chk.CheckNumber}).Info("check registered")

	t.emit(ctx, EventCheckRegistered, chk)
	return chk, warnings, nil
}

// CancelCheck voids a pending check. Cleared and cancelled checks are final.
func (t *Tally) CancelCheck(ctx context.Context, checkID string) (*model.Check, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "CancelCheck")
	defer span.End()
	span.SetAttributes(attribute.String("check.id", checkID))

	chk, err := t.datasource.UpdateCheckStatus(ctx, checkID, model.CheckStatusPending, model.CheckStatusCancelled)
	if err != nil {
		return nil, err
	}
	logrus.WithField("check_id", checkID).Info("check cancelled")

	t.emit(ctx, EventCheckCancelled, chk)
	return chk, nil
}

func (t *Tally) GetCheck(ctx context.Context, checkID string) (*model.Check, error) {
	return t.datasource.GetCheckByID(ctx, checkID)
}

// ListChecks returns checks ordered by issue date, check number and id.
func (t *Tally) ListChecks(ctx context.Context, filter model.CheckFilter) ([]*model.Check, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown check status %q", filter.Status), nil)
	}
	return t.datasource.GetChecks(ctx, filter)
}
