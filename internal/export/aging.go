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

// Package export renders reports as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/blnkfinance/tally/model"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	ChecksSheet  = "Checks"
	// ContentTypeXLSX is the media type of the workbook produced here.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var checkHeader = []interface{}{"Bucket", "Check ID", "Check Number", "Payee", "Date Issued", "Days Outstanding", "Amount"}

// AgingWorkbook writes the aging report as a workbook with a per bucket summary
// sheet and one row per outstanding check. Amounts are written as exact
// decimal text in numeric cells.
func AgingWorkbook(report *model.AgingReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(ChecksSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(SummarySheet, "A1", &[]interface{}{"As of", report.AsOf.String()}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SummarySheet, "A3", &[]interface{}{"Bucket", "Checks", "Amount"}); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(SummarySheet, "A3", "C3", bold)

	row := 4
	for _, b := range report.Buckets {
		if err := f.SetCellValue(SummarySheet, cell("A", row), b.Label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SummarySheet, cell("B", row), b.Count); err != nil {
			return nil, err
		}
		if err := f.SetCellDefault(SummarySheet, cell("C", row), b.Amount.StringFixed(2)); err != nil {
			return nil, err
		}
		row++
	}
	if err := f.SetCellValue(SummarySheet, cell("A", row), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(SummarySheet, cell("B", row), report.TotalChecks); err != nil {
		return nil, err
	}
	if err := f.SetCellDefault(SummarySheet, cell("C", row), report.TotalAmount.StringFixed(2)); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(SummarySheet, cell("A", row), cell("C", row), bold)
	_ = f.SetCellStyle(SummarySheet, "C4", cell("C", row), money)

	if err := f.SetSheetRow(ChecksSheet, "A1", &checkHeader); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(ChecksSheet, "A1", "G1", bold)

	row = 2
	for _, b := range report.Buckets {
		for _, chk := range b.Checks {
			values := []interface{}{b.Label, chk.CheckID, chk.CheckNumber, chk.Payee, chk.DateIssued.String(), ageInDays(report, chk)}
			if err := f.SetSheetRow(ChecksSheet, cell("A", row), &values); err != nil {
				return nil, err
			}
			if err := f.SetCellDefault(ChecksSheet, cell("G", row), chk.Amount.StringFixed(2)); err != nil {
				return nil, err
			}
			row++
		}
	}
	if row > 2 {
		_ = f.SetCellStyle(ChecksSheet, "G2", cell("G", row-1), money)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ageInDays(report *model.AgingReport, chk *model.Check) int {
	days := report.AsOf.DaysSince(chk.DateIssued)
	if days < 0 {
		return 0
	}
	return days
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
