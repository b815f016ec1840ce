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
package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern accepts money with exactly two decimals: $1,234.56, -45.00,
// (45.00), 45.00-, 45.00CR, +$10.00. Bare integers are check or reference numbers.
var amountPattern = regexp.MustCompile(`^(\()?([+-])?\$?([+-])?((?:\d{1,3}(?:,\d{3})+)|\d+)\.(\d{2})(-)?(\))?(CR|DR)?$`)

// Amount is a money token. Value is always non-negative; the sign lives in the markers.
type Amount struct {
	Value decimal.Decimal
	Index int
	// Width is 2 when a separate CR or DR token follows the number.
	Width    int
	Negative bool
	Positive bool
	Marker   string
}

// Explicit reports whether the token itself says which way the money moved.
func (a Amount) Explicit() bool {
	return a.Negative || a.Positive || a.Marker != ""
}

// ExtractAmounts returns every money token in order of appearance.
func ExtractAmounts(tokens []string) []Amount {
	var amounts []Amount
	for i := 0; i < len(tokens); i++ {
		amt, ok := parseAmount(tokens[i])
		if !ok {
			continue
		}
		amt.Index = i
		amt.Width = 1
		if amt.Marker == "" && i+1 < len(tokens) {
			if marker := strings.ToUpper(trimPunct(tokens[i+1])); marker == "CR" || marker == "DR" {
				amt.Marker = marker
				amt.Width = 2
				i++
			}
		}
		amounts = append(amounts, amt)
	}
	return amounts
}

func parseAmount(tok string) (Amount, bool) {
	m := amountPattern.FindStringSubmatch(strings.ToUpper(tok))
	if m == nil {
		return Amount{}, false
	}
	openParen, sign, innerSign, whole, cents, trailingMinus, closeParen, marker := m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]
	if (openParen == "") != (closeParen == "") {
		return Amount{}, false
	}
	if sign != "" && innerSign != "" {
		return Amount{}, false
	}
	if sign == "" {
		sign = innerSign
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(whole, ",", "") + "." + cents)
	if err != nil {
		return Amount{}, false
	}
	return Amount{
		Value:    value,
		Negative: sign == "-" || trailingMinus != "" || openParen != "",
		Positive: sign == "+",
		Marker:   marker,
	}, true
}
