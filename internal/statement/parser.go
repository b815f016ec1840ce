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
	"strings"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/model"
	"github.com/shopspring/decimal"
)

var summaryPhrases = []string{
	"BALANCE FORWARD", "SALDO ANTERIOR", "SALDO INICIAL", "SALDO FINAL",
	"OPENING BALANCE", "BEGINNING BALANCE", "ENDING BALANCE", "CLOSING BALANCE",
}

// Discard reasons.
const (
	ReasonNoDate     = "no date found"
	ReasonNoAmount   = "no amount found"
	ReasonSummary    = "balance or summary line"
	ReasonZeroAmount = "amount is zero"
)

// Parsed is a transaction recovered from one statement line.
type Parsed struct {
	LineNumber  int
	Date        civil.Date
	Description string
	Amount      decimal.Decimal
	Type        model.TransactionType
	CheckNumber string
	Validated   bool
	Evidence    Evidence
	RawLine     string
}

// Discarded is a non-blank line that did not become a transaction.
type Discarded struct {
	LineNumber int    `json:"line_number"`
	Line       string `json:"line"`
	Reason     string `json:"reason"`
}

type Result struct {
	Transactions     []Parsed
	Discarded        []Discarded
	UnvalidatedCount int
}

// ParseLines runs every line through the pipeline. A line that carries both a
// date and a non-zero amount always yields a transaction; everything else that
// is not blank is reported as discarded.
func ParseLines(lines []string, opts Options) Result {
	res := Result{Transactions: []Parsed{}, Discarded: []Discarded{}}
	var balance *decimal.Decimal
	if opts.StartingBalance != nil {
		b := *opts.StartingBalance
		balance = &b
	}

	for i, raw := range lines {
		lineNo := i + 1
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line := Tokenize(raw)

		if isSummaryLine(line) {
			res.Discarded = append(res.Discarded, Discarded{LineNumber: lineNo, Line: raw, Reason: ReasonSummary})
			if amounts := ExtractAmounts(line.Tokens); len(amounts) > 0 {
				b := signed(amounts[len(amounts)-1])
				balance = &b
			}
			continue
		}

		date, ok := ExtractDate(line.Tokens, opts)
		if !ok {
			reason := ReasonNoDate
			if isTotalsLine(line) {
				reason = ReasonSummary
			}
			res.Discarded = append(res.Discarded, Discarded{LineNumber: lineNo, Line: raw, Reason: reason})
			continue
		}
		amounts := withoutDate(ExtractAmounts(line.Tokens), date)
		if len(amounts) == 0 {
			res.Discarded = append(res.Discarded, Discarded{LineNumber: lineNo, Line: raw, Reason: ReasonNoAmount})
			continue
		}
		amounts = dropLeadingZeros(amounts)
		if len(amounts) == 0 {
			res.Discarded = append(res.Discarded, Discarded{LineNumber: lineNo, Line: raw, Reason: ReasonZeroAmount})
			continue
		}

		class := ClassifyDirection(line, amounts, balance)
		p := Parsed{
			LineNumber:  lineNo,
			Date:        date.Date,
			Description: describe(line, date, amounts),
			Amount:      amounts[0].Value,
			Type:        class.Type,
			CheckNumber: ExtractCheckNumber(line.Tokens),
			Validated:   class.Confident,
			Evidence:    class.Evidence,
			RawLine:     raw,
		}
		if !p.Validated {
			res.UnvalidatedCount++
		}
		res.Transactions = append(res.Transactions, p)

		balance = nextBalance(balance, amounts, p)
	}
	return res
}

func isSummaryLine(line Line) bool {
	text := foldAccents(strings.Join(line.Tokens, " "))
	for _, phrase := range summaryPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// isTotalsLine reports a line led by a totals label. Only consulted for
// undated lines.
func isTotalsLine(line Line) bool {
	if len(line.Tokens) == 0 {
		return false
	}
	switch strings.ToUpper(trimPunct(line.Tokens[0])) {
	case "TOTAL", "TOTALS", "SUBTOTAL":
		return true
	}
	return false
}

func withoutDate(amounts []Amount, date DateMatch) []Amount {
	out := amounts[:0:0]
	for _, a := range amounts {
		if a.Index >= date.Index && a.Index < date.Index+date.Width {
			continue
		}
		out = append(out, a)
	}
	return out
}

func dropLeadingZeros(amounts []Amount) []Amount {
	for i, a := range amounts {
		if !a.Value.IsZero() {
			return amounts[i:]
		}
	}
	return nil
}

func signed(a Amount) decimal.Decimal {
	if a.Negative || a.Marker == "DR" {
		return a.Value.Neg()
	}
	return a.Value
}

// nextBalance carries the running balance forward: a printed balance wins,
// otherwise a confidently classified amount is applied to the previous one.
func nextBalance(prev *decimal.Decimal, amounts []Amount, p Parsed) *decimal.Decimal {
	if len(amounts) > 1 {
		b := signed(amounts[len(amounts)-1])
		return &b
	}
	if prev == nil || !p.Validated {
		return nil
	}
	var b decimal.Decimal
	if p.Type == model.TransactionTypeCredit {
		b = prev.Add(p.Amount)
	} else {
		b = prev.Sub(p.Amount)
	}
	return &b
}

func describe(line Line, date DateMatch, amounts []Amount) string {
	skip := make(map[int]bool)
	for i := date.Index; i < date.Index+date.Width; i++ {
		skip[i] = true
	}
	for _, a := range amounts {
		for i := a.Index; i < a.Index+a.Width; i++ {
			skip[i] = true
		}
	}

	var words []string
	for i, tok := range line.Tokens {
		if skip[i] {
			continue
		}
		if _, ok := parseAmount(tok); ok {
			continue
		}
		words = append(words, tok)
	}
	return strings.Join(words, " ")
}
