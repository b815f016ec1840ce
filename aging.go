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

package tally

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/internal/export"
	"github.com/blnkfinance/tally/model"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// agingBuckets turns ascending upper bounds into contiguous buckets:
// [30 60 90] gives 0-30, 31-60, 61-90 and 90+.
func agingBuckets(bounds []int) []model.AgingBucket {
	buckets := make([]model.AgingBucket, 0, len(bounds)+1)
	lower := 0
	for _, upper := range bounds {
		bound := upper
		buckets = append(buckets, model.AgingBucket{
			Label:   fmt.Sprintf("%d-%d", lower, upper),
			MinDays: lower,
			MaxDays: &bound,
			Amount:  decimal.Zero,
			Checks:  []*model.Check{},
		})
		lower = upper + 1
	}
	last := 0
	if len(bounds) > 0 {
		last = bounds[len(bounds)-1]
	}
	return append(buckets, model.AgingBucket{
		Label:   fmt.Sprintf("%d+", last),
		MinDays: lower,
		Amount:  decimal.Zero,
		Checks:  []*model.Check{},
	})
}

// checkAge is the number of days a check has been outstanding on asOf.
// Checks dated after asOf are zero days old.
func checkAge(chk *model.Check, asOf civil.Date) int {
	days := asOf.DaysSince(chk.DateIssued)
	if days < 0 {
		return 0
	}
	return days
}

// InTransitAgingReport buckets every pending check by how long it has been
// outstanding on asOf. Each pending check lands in exactly one bucket.
func (t *Tally) InTransitAgingReport(ctx context.Context, asOf civil.Date) (*model.AgingReport, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "InTransitAgingReport")
	defer span.End()

	if !asOf.IsValid() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "as_of must be a valid date", nil)
	}
	checks, err := t.datasource.GetChecks(ctx, model.CheckFilter{Status: model.CheckStatusPending})
	if err != nil {
		return nil, err
	}
	return buildAgingReport(asOf, checks, t.config.Reconciliation.AgingBuckets), nil
}

func buildAgingReport(asOf civil.Date, checks []*model.Check, bounds []int) *model.AgingReport {
	sorted := append([]*model.Check(nil), checks...)
	sortChecks(sorted)

	report := &model.AgingReport{
		AsOf:        asOf,
		TotalAmount: decimal.Zero,
		Buckets:     agingBuckets(bounds),
	}
	for _, chk := range sorted {
		if !chk.IsPending() {
			continue
		}
		age := checkAge(chk, asOf)
		for i := range report.Buckets {
			b := &report.Buckets[i]
			if !b.Contains(age) {
				continue
			}
			b.Count++
			b.Amount = b.Amount.Add(chk.Amount)
			b.Checks = append(b.Checks, chk)
			break
		}
		report.TotalChecks++
		report.TotalAmount = report.TotalAmount.Add(chk.Amount)
	}
	return report
}

// InTransitAgingWorkbook renders the aging report as an xlsx workbook.
func (t *Tally) InTransitAgingWorkbook(ctx context.Context, asOf civil.Date) ([]byte, error) {
	report, err := t.InTransitAgingReport(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return export.AgingWorkbook(report)
}
