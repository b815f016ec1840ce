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

	"github.com/blnkfinance/tally/model"
)

var (
	checkWordPattern   = regexp.MustCompile(`^(CHECK|CHK|CHEQUE|CHQ)(?:NO)?[#:.]*(\d*)$`)
	checkNumberPattern = regexp.MustCompile(`^(?:NO[.:]?)?#?(\d{1,12})$`)
)

// ExtractCheckNumber finds a check number hint such as "CHECK 1234",
// "CHK #1234", "CHEQUE 1234", "CHQ 1234" or "CHK#1234". The result is
// normalized; an empty string means the line names no check.
func ExtractCheckNumber(tokens []string) string {
	for i, tok := range tokens {
		m := checkWordPattern.FindStringSubmatch(strings.ToUpper(trimPunct(tok)))
		if m == nil {
			continue
		}
		if m[2] != "" {
			return model.NormalizeCheckNumber(m[2])
		}
		for j := i + 1; j < len(tokens) && j <= i+2; j++ {
			next := strings.ToUpper(trimPunct(tokens[j]))
			if next == "NO" || next == "#" || next == "NUMBER" {
				continue
			}
			if n := checkNumberPattern.FindStringSubmatch(next); n != nil {
				return model.NormalizeCheckNumber(n[1])
			}
			break
		}
	}
	return ""
}
