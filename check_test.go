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
	"testing"

	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCheck(t *testing.T) {
	tl, _ := newTestTally(t, nil)

	chk, warnings, err := tl.RegisterCheck(context.Background(), &model.Check{
		CheckNumber: " 1001 ",
		DateIssued:  day(2024, 1, 10),
		Amount:      dec("150.00"),
		Payee:       gofakeit.Name(),
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Contains(t, chk.CheckID, "chk_")
	assert.Equal(t, "1001", chk.CheckNumber)
	assert.Equal(t, model.CheckStatusPending, chk.Status)
	assert.Nil(t, chk.DateCleared)

	stored, err := tl.GetCheck(context.Background(), chk.CheckID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("150")))
}

func TestRegisterCheck_Validation(t *testing.T) {
	tl, _ := newTestTally(t, nil)

	tests := []struct {
		name  string
		check model.Check
		want  string
	}{
		{"zero amount", model.Check{CheckNumber: "1", Payee: "A", DateIssued: day(2024, 1, 1), Amount: dec("0")}, "amount"},
		{"negative amount", model.Check{CheckNumber: "1", Payee: "A", DateIssued: day(2024, 1, 1), Amount: dec("-5.00")}, "amount"},
		{"missing payee", model.Check{CheckNumber: "1", DateIssued: day(2024, 1, 1), Amount: dec("5.00")}, "payee"},
		{"missing number", model.Check{Payee: "A", DateIssued: day(2024, 1, 1), Amount: dec("5.00")}, "check_number"},
		{"missing date", model.Check{CheckNumber: "1", Payee: "A", Amount: dec("5.00")}, "date_issued"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chk := tt.check
			_, _, err := tl.RegisterCheck(context.Background(), &chk)
			require.Error(t, err)
			assert.True(t, apierror.Is(err, apierror.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegisterCheck_DuplicateWarn(t *testing.T) {
	tl, _ := newTestTally(t, nil)
	registerCheck(t, tl, "1001", "10.00", day(2024, 1, 1))

	chk, warnings, err := tl.RegisterCheck(context.Background(), &model.Check{
		CheckNumber: "#01001",
		DateIssued:  day(2024, 1, 2),
		Amount:      dec("20.00"),
		Payee:       "Acme",
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "#01001")
	assert.Equal(t, model.CheckStatusPending, chk.Status)
}

func TestRegisterCheck_DuplicateReject(t *testing.T) {
	tl, _ := newTestTally(t, func(c *config.Configuration) {
		c.Reconciliation.DuplicateCheckPolicy = config.DuplicatePolicyReject
	})
	registerCheck(t, tl, "1001", "10.00", day(2024, 1, 1))

	_, _, err := tl.RegisterCheck(context.Background(), &model.Check{
		CheckNumber: "1001",
		DateIssued:  day(2024, 1, 2),
		Amount:      dec("20.00"),
		Payee:       "Acme",
	})
	assert.True(t, apierror.Is(err, apierror.ErrConflict))
}

func TestRegisterCheck_DuplicateOfCancelledIsAllowed(t *testing.T) {
	tl, _ := newTestTally(t, func(c *config.Configuration) {
		c.Reconciliation.DuplicateCheckPolicy = config.DuplicatePolicyReject
	})
	first := registerCheck(t, tl, "1001", "10.00", day(2024, 1, 1))
	_, err := tl.CancelCheck(context.Background(), first.CheckID)
	require.NoError(t, err)

	_, warnings, err := tl.RegisterCheck(context.Background(), &model.Check{
		CheckNumber: "1001",
		DateIssued:  day(2024, 1, 2),
		Amount:      dec("10.00"),
		Payee:       "Acme",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestCancelCheck(t *testing.T) {
	tl, store := newTestTally(t, nil)
	ctx := context.Background()

	chk := registerCheck(t, tl, "1001", "150.00", day(2024, 1, 10))
	cancelled, err := tl.CancelCheck(ctx, chk.CheckID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckStatusCancelled, cancelled.Status)

	_, err = tl.CancelCheck(ctx, chk.CheckID)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
	assert.Contains(t, err.Error(), "cancelled")

	cleared := registerCheck(t, tl, "1002", "75.00", day(2024, 1, 10))
	debit := seedDebit(t, store, "75.00", day(2024, 1, 12), "")
	_, err = tl.MatchCheck(ctx, debit.TransactionID, cleared.CheckID)
	require.NoError(t, err)

	_, err = tl.CancelCheck(ctx, cleared.CheckID)
	assert.True(t, apierror.Is(err, apierror.ErrInvalidStateTransition))
	assert.Contains(t, err.Error(), "cleared")
}

func TestCancelCheck_NotFound(t *testing.T) {
	tl, _ := newTestTally(t, nil)
	_, err := tl.CancelCheck(context.Background(), "chk_missing")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestListChecks(t *testing.T) {
	tl, _ := newTestTally(t, nil)
	ctx := context.Background()

	b := registerCheck(t, tl, "1002", "20.00", day(2024, 1, 5))
	a := registerCheck(t, tl, "1001", "10.00", day(2024, 1, 5))
	c := registerCheck(t, tl, "1003", "30.00", day(2024, 1, 1))
	_, err := tl.CancelCheck(ctx, c.CheckID)
	require.NoError(t, err)

	all, err := tl.ListChecks(ctx, model.CheckFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{c.CheckID, a.CheckID, b.CheckID}, []string{all[0].CheckID, all[1].CheckID, all[2].CheckID})

	pending, err := tl.ListChecks(ctx, model.CheckFilter{Status: model.CheckStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = tl.ListChecks(ctx, model.CheckFilter{Status: "bounced"})
	assert.True(t, apierror.Is(err, apierror.ErrInvalidInput))
}
