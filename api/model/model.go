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
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// DecodeStrict decodes a JSON body into v, rejecting fields v does not declare.
func DecodeStrict(body io.Reader, v interface{}) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func isDate(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := civil.ParseDate(s); err != nil {
		return errors.New("must be a date formatted as YYYY-MM-DD")
	}
	return nil
}

func isPositiveAmount(value interface{}) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("invalid amount")
	}
	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

var (
	dateRule   = validation.By(isDate)
	amountRule = validation.By(isPositiveAmount)
)

// ParseDate parses a YYYY-MM-DD string. Empty input yields nil.
func ParseDate(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, errors.New("dates must be formatted as YYYY-MM-DD")
	}
	return &d, nil
}

// ParseAmount parses a decimal string. Empty input yields nil.
func ParseAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.New("amounts must be decimal numbers")
	}
	return &d, nil
}
