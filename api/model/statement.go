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
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// StatementUploadForm holds the non-file fields of a statement upload.
type StatementUploadForm struct {
	PeriodStart     string
	PeriodEnd       string
	StartingBalance string
	EndingBalance   string
}

func isDecimal(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return errors.New("must be a decimal number")
	}
	return nil
}

func (f *StatementUploadForm) ValidateStatementUpload() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.PeriodStart, validation.Required, dateRule),
		validation.Field(&f.PeriodEnd, validation.Required, dateRule),
		validation.Field(&f.StartingBalance, validation.Required, validation.By(isDecimal)),
		validation.Field(&f.EndingBalance, validation.Required, validation.By(isDecimal)),
	)
}

// AutoMatchAccepted is returned when an auto-match run was queued.
type AutoMatchAccepted struct {
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
	Status string `json:"status"`
}
