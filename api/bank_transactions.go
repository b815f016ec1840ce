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
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apimodel "github.com/blnkfinance/tally/api/model"
	"github.com/blnkfinance/tally/model"
)

func (a Api) RecordBankTransaction(c *gin.Context) {
	var req apimodel.RecordBankTransaction
	if err := apimodel.DecodeStrict(c.Request.Body, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.ValidateRecordBankTransaction(); err != nil {
		badRequest(c, err)
		return
	}

	txn, err := a.tally.RecordBankTransaction(c.Request.Context(), req.ToBankTransaction())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (a Api) ListBankTransactions(c *gin.Context) {
	filter := model.BankTransactionFilter{
		Type:        model.TransactionType(strings.ToLower(c.Query("type"))),
		Source:      model.TransactionSource(strings.ToLower(c.Query("source"))),
		StatementID: c.Query("statement_id"),
	}
	if raw := c.Query("matched"); raw != "" {
		matched, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, errors.New("matched must be true or false"))
			return
		}
		filter.Matched = &matched
	}

	txns, err := a.tally.ListBankTransactions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (a Api) GetBankTransaction(c *gin.Context) {
	txn, err := a.tally.GetBankTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (a Api) MatchCheck(c *gin.Context) {
	res, err := a.tally.MatchCheck(c.Request.Context(), c.Param("id"), c.Param("checkId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a Api) UnmatchCheck(c *gin.Context) {
	res, err := a.tally.UnmatchCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a Api) SuggestMatches(c *gin.Context) {
	suggestions, err := a.tally.SuggestMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction_id": c.Param("id"), "suggestions": suggestions})
}

func (a Api) ConfirmDeposit(c *gin.Context) {
	res, err := a.tally.ConfirmDeposit(c.Request.Context(), c.Param("id"), c.Param("statementTxnId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a Api) LinkPurchaseOrder(c *gin.Context) {
	txn, err := a.tally.LinkPurchaseOrder(c.Request.Context(), c.Param("id"), c.Param("poId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}
