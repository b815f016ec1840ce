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

// Statement is the audit record of one uploaded bank statement.
type Statement struct {
	ID                int64           `json:"-"`
	StatementID       string          `json:"statement_id"`
	FileName          string          `json:"file_name"`
	PeriodStart       civil.Date      `json:"period_start"`
	PeriodEnd         civil.Date      `json:"period_end"`
	StartingBalance   decimal.Decimal `json:"starting_balance"`
	EndingBalance     decimal.Decimal `json:"ending_balance"`
	TransactionsCount int             `json:"transactions_count"`
	UnvalidatedCount  int             `json:"unvalidated_count"`
	ExtractionError   string          `json:"extraction_error,omitempty"`
	ArchiveKey        string          `json:"archive_key,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// UploadResult is returned from a statement upload.
type UploadResult struct {
	StatementID       string `json:"statement_id"`
	TransactionsCount int    `json:"transactions_count"`
	UnvalidatedCount  int    `json:"unvalidated_count"`
	DiscardedCount    int    `json:"discarded_count"`
	Message           string `json:"message"`
	Warning           string `json:"warning,omitempty"`
}

// ExtractedText is the raw text pulled out of an uploaded document.
type ExtractedText struct {
	Text      string `json:"text"`
	LineCount int    `json:"line_count"`
}
