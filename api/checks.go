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

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	apimodel "github.com/blnkfinance/tally/api/model"
	"github.com/blnkfinance/tally/internal/export"
	"github.com/blnkfinance/tally/model"
)

func (a Api) RegisterCheck(c *gin.Context) {
	var req apimodel.RegisterCheck
	if err := apimodel.DecodeStrict(c.Request.Body, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateRegisterCheck(); err != nil {
		badRequest(c, err)
		return
	}

	chk, warnings, err := a.tally.RegisterCheck(c.Request.Context(), req.ToCheck())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apimodel.RegisterCheckResponse{Check: chk, Warnings: warnings})
}

func (a Api) ListChecks(c *gin.Context) {
	filter := model.CheckFilter{
		Status:      model.CheckStatus(strings.ToLower(c.Query("status"))),
		CheckNumber: c.Query("check_number"),
	}
	checks, err := a.tally.ListChecks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checks)
}

func (a Api) GetCheck(c *gin.Context) {
	chk, err := a.tally.GetCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chk)
}

func (a Api) CancelCheck(c *gin.Context) {
	chk, err := a.tally.CancelCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chk)
}

// InTransitReport returns the aging of pending checks as JSON, or as an
// xlsx workbook when format=xlsx. as_of defaults to today (UTC).
func (a Api) InTransitReport(c *gin.Context) {
	asOf := civil.DateOf(time.Now().UTC())
	if d, err := apimodel.ParseDate(c.Query("as_of")); err != nil {
		badRequest(c, err)
		return
	} else if d != nil {
		asOf = *d
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		report, err := a.tally.InTransitAgingReport(c.Request.Context(), asOf)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	case "xlsx":
		data, err := a.tally.InTransitAgingWorkbook(c.Request.Context(), asOf)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="checks-in-transit-%s.xlsx"`, asOf))
		c.Data(http.StatusOK, export.ContentTypeXLSX, data)
	default:
		badRequest(c, fmt.Errorf("format must be json or xlsx"))
	}
}
