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
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type CheckStatus string

const (
	CheckStatusPending   CheckStatus = "pending"
	CheckStatusCleared   CheckStatus = "cleared"
	CheckStatusCancelled CheckStatus = "cancelled"
)

// IsValid reports whether s is one of the known check statuses.
func (s CheckStatus) IsValid() bool {
	switch s {
	case CheckStatusPending, CheckStatusCleared, CheckStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a check in status s may move to next.
// cleared -> pending is only reachable through an unmatch.
func (s CheckStatus) CanTransitionTo(next CheckStatus) bool {
	switch s {
	case CheckStatusPending:
		return next == CheckStatusCleared || next == CheckStatusCancelled
	case CheckStatusCleared:
		return next == CheckStatusPending
	}
	return false
}

type Check struct {
	ID              int64           `json:"-"`
	CheckID         string          `json:"check_id"`
	CheckNumber     string          `json:"check_number"`
	DateIssued      civil.Date      `json:"date_issued"`
	Amount          decimal.Decimal `json:"amount"`
	Payee           string          `json:"payee"`
	Description     string          `json:"description,omitempty"`
	Status          CheckStatus     `json:"status"`
	DateCleared     *civil.Date     `json:"date_cleared,omitempty"`
	PurchaseOrderID string          `json:"purchase_order_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsPending reports whether the check is still outstanding.
func (c *Check) IsPending() bool {
	return c.Status == CheckStatusPending
}

// Clone returns a deep copy of the check.
func (c *Check) Clone() *Check {
	if c == nil {
		return nil
	}
	cp := *c
	if c.DateCleared != nil {
		d := *c.DateCleared
		cp.DateCleared = &d
	}
	return &cp
}

// CheckFilter narrows a check listing. Zero values mean "any".
type CheckFilter struct {
	Status           CheckStatus
	CheckNumber      string
	IssuedOnOrBefore *civil.Date
}

// Matches reports whether c satisfies the filter.
func (f CheckFilter) Matches(c *Check) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.CheckNumber != "" && NormalizeCheckNumber(c.CheckNumber) != NormalizeCheckNumber(f.CheckNumber) {
		return false
	}
	if f.IssuedOnOrBefore != nil && c.DateIssued.After(*f.IssuedOnOrBefore) {
		return false
	}
	return true
}
