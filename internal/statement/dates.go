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
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/model"
)

var (
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2}|\d{4}))?$`)
	namedDatePattern   = regexp.MustCompile(`^(\d{1,2})[-/]([A-Za-zÁÉÍÓÚáéíóú]{3,10})\.?(?:[-/](\d{2}|\d{4}))?$`)
	dayPattern         = regexp.MustCompile(`^\d{1,2}$`)
	yearPattern        = regexp.MustCompile(`^(\d{2}|\d{4})$`)
)

var months = map[string]int{
	"JAN": 1, "JANUARY": 1, "ENE": 1, "ENERO": 1,
	"FEB": 2, "FEBRUARY": 2, "FEBRERO": 2,
	"MAR": 3, "MARCH": 3, "MARZO": 3,
	"APR": 4, "APRIL": 4, "ABR": 4, "ABRIL": 4,
	"MAY": 5, "MAYO": 5,
	"JUN": 6, "JUNE": 6, "JUNIO": 6,
	"JUL": 7, "JULY": 7, "JULIO": 7,
	"AUG": 8, "AUGUST": 8, "AGO": 8, "AGOSTO": 8,
	"SEP": 9, "SEPT": 9, "SEPTEMBER": 9, "SEPTIEMBRE": 9, "SET": 9,
	"OCT": 10, "OCTOBER": 10, "OCTUBRE": 10,
	"NOV": 11, "NOVEMBER": 11, "NOVIEMBRE": 11,
	"DEC": 12, "DECEMBER": 12, "DIC": 12, "DICIEMBRE": 12,
}

// DateMatch is a date found in a line together with the tokens it occupied.
type DateMatch struct {
	Date  civil.Date
	Index int
	Width int
}

func monthOf(token string) (int, bool) {
	m, ok := months[foldAccents(strings.TrimSuffix(trimPunct(token), "."))]
	return m, ok
}

// ExtractDate returns the first date found in tokens.
func ExtractDate(tokens []string, opts Options) (DateMatch, bool) {
	for i, tok := range tokens {
		if d, ok := parseDateToken(tok, opts); ok {
			return DateMatch{Date: d, Index: i, Width: 1}, true
		}
		if d, width, ok := parseSplitDate(tokens[i:], opts); ok {
			return DateMatch{Date: d, Index: i, Width: width}, true
		}
	}
	return DateMatch{}, false
}

func parseDateToken(tok string, opts Options) (civil.Date, bool) {
	tok = strings.TrimSuffix(tok, ",")
	if m := isoDatePattern.FindStringSubmatch(tok); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := numericDatePattern.FindStringSubmatch(tok); m != nil {
		first, second := atoi(m[1]), atoi(m[2])
		month, day := first, second
		switch {
		case first > 12:
			month, day = second, first
		case second > 12:
		case opts.dayFirst():
			month, day = second, first
		}
		if m[3] == "" {
			return inferYear(month, day, opts)
		}
		return makeDate(expandYear(m[3]), month, day)
	}
	if m := namedDatePattern.FindStringSubmatch(tok); m != nil {
		month, ok := monthOf(m[2])
		if !ok {
			return civil.Date{}, false
		}
		if m[3] == "" {
			return inferYear(month, atoi(m[1]), opts)
		}
		return makeDate(expandYear(m[3]), month, atoi(m[1]))
	}
	return civil.Date{}, false
}

// parseSplitDate handles dates spread across tokens: "20 Jan 2024", "20 ENE", "Jan 20, 2024".
func parseSplitDate(tokens []string, opts Options) (civil.Date, int, bool) {
	if len(tokens) < 2 {
		return civil.Date{}, 0, false
	}
	first, second := trimPunct(tokens[0]), trimPunct(tokens[1])

	var day, month int
	switch {
	case dayPattern.MatchString(first):
		m, ok := monthOf(second)
		if !ok {
			return civil.Date{}, 0, false
		}
		day, month = atoi(first), m
	case dayPattern.MatchString(second):
		m, ok := monthOf(first)
		if !ok {
			return civil.Date{}, 0, false
		}
		day, month = atoi(second), m
	default:
		return civil.Date{}, 0, false
	}

	if len(tokens) > 2 {
		if y := trimPunct(tokens[2]); yearPattern.MatchString(y) {
			if d, ok := makeDate(expandYear(y), month, day); ok {
				return d, 3, true
			}
		}
	}
	d, ok := inferYear(month, day, opts)
	return d, 2, ok
}

// inferYear places a month/day inside the statement period. A date that would
// fall after the period end belongs to the previous year.
func inferYear(month, day int, opts Options) (civil.Date, bool) {
	year := opts.PeriodEnd.Year
	if year == 0 {
		year = model.Today().Year
	}
	d, ok := makeDate(year, month, day)
	if !ok {
		return makeDate(year-1, month, day)
	}
	if opts.PeriodEnd.IsValid() && d.After(opts.PeriodEnd) {
		return makeDate(year-1, month, day)
	}
	return d, true
}

func makeDate(year, month, day int) (civil.Date, bool) {
	if month < 1 || month > 12 {
		return civil.Date{}, false
	}
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	return d, d.IsValid()
}

func expandYear(y string) int {
	n := atoi(y)
	if len(y) == 2 {
		return 2000 + n
	}
	return n
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
