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
// Package statement turns raw bank statement lines into bank transactions.
//
// Every stage is a pure function over a tokenized line. Stages report a
// missing value with a boolean or an empty result; nothing here returns an
// error for a line that simply could not be parsed.
package statement

import (
	"strings"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Line is a single statement line split on whitespace.
type Line struct {
	Raw    string
	Tokens []string
}

// Tokenize splits a line into whitespace separated tokens, keeping the original text.
func Tokenize(raw string) Line {
	return Line{Raw: raw, Tokens: strings.Fields(raw)}
}

// Options carries the statement level context a line cannot provide on its own.
type Options struct {
	PeriodStart civil.Date
	PeriodEnd   civil.Date
	// StartingBalance seeds the running balance used to infer direction.
	StartingBalance *decimal.Decimal
	// DateOrder is "MDY" or "DMY" and only applies to ambiguous numeric dates.
	DateOrder string
}

func (o Options) dayFirst() bool {
	return strings.EqualFold(o.DateOrder, "DMY")
}

// foldAccents maps the accented letters found on Spanish statements to ASCII.
func foldAccents(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'Á', 'á':
			return 'A'
		case 'É', 'é':
			return 'E'
		case 'Í', 'í':
			return 'I'
		case 'Ó', 'ó':
			return 'O'
		case 'Ú', 'ú':
			return 'U'
		case 'Ñ', 'ñ':
			return 'N'
		}
		return unicode.ToUpper(r)
	}, s)
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == ',' || r == '.' || r == ':' || r == ';'
	})
}
