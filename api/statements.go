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
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/blnkfinance/tally"
	apimodel "github.com/blnkfinance/tally/api/model"
)

// UploadStatement accepts a multipart form with the statement file and its
// period and balances. Lines that cannot be read are reported, not fatal.
func (a Api) UploadStatement(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("file is required"))
		return
	}
	defer file.Close()

	form := apimodel.StatementUploadForm{
		PeriodStart:     c.PostForm("period_start"),
		PeriodEnd:       c.PostForm("period_end"),
		StartingBalance: c.PostForm("starting_balance"),
		EndingBalance:   c.PostForm("ending_balance"),
	}
	if err := form.ValidateStatementUpload(); err != nil {
		badRequest(c, err)
		return
	}

	start, _ := civil.ParseDate(form.PeriodStart)
	end, _ := civil.ParseDate(form.PeriodEnd)
	res, err := a.tally.UploadStatement(c.Request.Context(), tally.StatementUpload{
		FileName:        header.Filename,
		Content:         file,
		PeriodStart:     start,
		PeriodEnd:       end,
		StartingBalance: decimal.RequireFromString(form.StartingBalance),
		EndingBalance:   decimal.RequireFromString(form.EndingBalance),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a Api) ExtractStatementText(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("file is required"))
		return
	}
	defer file.Close()

	text, err := a.tally.ExtractStatementText(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, text)
}

func (a Api) ListStatements(c *gin.Context) {
	statements, err := a.tally.ListStatements(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statements)
}

func (a Api) GetStatement(c *gin.Context) {
	stmt, err := a.tally.GetStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stmt)
}
