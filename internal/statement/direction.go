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

	"github.com/blnkfinance/tally/model"
	"github.com/shopspring/decimal"
)

var creditKeywords = []string{"DEPOSIT", "DEPOSITO", "ABONO", "INTEREST", "INTERES", "CREDIT", "REFUND", "TRANSFER IN"}

var debitKeywords = []string{"CHECK", "CHEQUE", "CHK", "CHQ", "WITHDRAWAL", "RETIRO", "FEE", "COMISION", "DEBIT", "PAYMENT", "PAGO", "CARGO", "TRANSFER OUT"}

// Evidence names the signal a direction was inferred from.
type Evidence string

const (
	EvidenceMarker   Evidence = "marker"
	EvidenceBalance  Evidence = "running_balance"
	EvidenceKeyword  Evidence = "keyword"
	EvidenceNone     Evidence = "none"
	EvidenceConflict Evidence = "conflict"
)

// Classification is the inferred direction of a line. Lines without a
// confident direction are recorded as debits and left unvalidated.
type Classification struct {
	Type      model.TransactionType
	Confident bool
	Evidence  Evidence
}

func confident(t model.TransactionType, e Evidence) Classification {
	return Classification{Type: t, Confident: true, Evidence: e}
}

func ambiguous(e Evidence) Classification {
	return Classification{Type: model.TransactionTypeDebit, Evidence: e}
}

// ClassifyDirection decides whether a statement line moved money in or out.
// amounts[0] is the transaction amount; when a line carries more than one
// amount the last one is read as the running balance and compared with
// previousBalance.
func ClassifyDirection(line Line, amounts []Amount, previousBalance *decimal.Decimal) Classification {
	if len(amounts) == 0 {
		return ambiguous(EvidenceNone)
	}
	txn := amounts[0]

	var marker, balance *model.TransactionType
	if txn.Explicit() {
		t := markerDirection(txn)
		marker = &t
	}
	if len(amounts) > 1 && previousBalance != nil {
		delta := amounts[len(amounts)-1].Value.Sub(*previousBalance)
		switch {
		case delta.Equal(txn.Value):
			t := model.TransactionTypeCredit
			balance = &t
		case delta.Equal(txn.Value.Neg()):
			t := model.TransactionTypeDebit
			balance = &t
		}
	}

	switch {
	case marker != nil && balance != nil && *marker != *balance:
		return ambiguous(EvidenceConflict)
	case marker != nil:
		return confident(*marker, EvidenceMarker)
	case balance != nil:
		return confident(*balance, EvidenceBalance)
	}

	return classifyByKeyword(line.Raw)
}

func markerDirection(a Amount) model.TransactionType {
	switch {
	case a.Marker == "CR":
		return model.TransactionTypeCredit
	case a.Marker == "DR", a.Negative:
		return model.TransactionTypeDebit
	default:
		return model.TransactionTypeCredit
	}
}

func classifyByKeyword(raw string) Classification {
	text := " " + foldAccents(raw) + " "
	credit := containsAny(text, creditKeywords)
	debit := containsAny(text, debitKeywords)
	switch {
	case credit && !debit:
		return confident(model.TransactionTypeCredit, EvidenceKeyword)
	case debit && !credit:
		return confident(model.TransactionTypeDebit, EvidenceKeyword)
	case credit && debit:
		return ambiguous(EvidenceConflict)
	default:
		return ambiguous(EvidenceNone)
	}
}

// containsAny matches whole words so that CHECKING does not read as CHECK.
func containsAny(text string, words []string) bool {
	for _, w := range words {
		idx := 0
		for {
			i := strings.Index(text[idx:], w)
			if i < 0 {
				break
			}
			start := idx + i
			end := start + len(w)
			if !isWordChar(text[start-1]) && (end >= len(text) || !isWordChar(text[end])) {
				return true
			}
			idx = start + 1
		}
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
