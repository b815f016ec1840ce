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

type AgingBucket struct {
	Label   string          `json:"label"`
	MinDays int             `json:"min_days"`
	MaxDays *int            `json:"max_days"`
	Count   int             `json:"count"`
	Amount  decimal.Decimal `json:"amount"`
	Checks  []*Check        `json:"checks"`
}

// Contains reports whether a check aged days falls in the bucket.
func (b AgingBucket) Contains(days int) bool {
	if days < b.MinDays {
		return false
	}
	return b.MaxDays == nil || days <= *b.MaxDays
}

type AgingReport struct {
	AsOf        civil.Date      `json:"as_of"`
	TotalChecks int             `json:"total_checks"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Buckets     []AgingBucket   `json:"buckets"`
}
