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

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/blnkfinance/tally"
	"github.com/blnkfinance/tally/api/middleware"
	"github.com/blnkfinance/tally/config"
	"github.com/blnkfinance/tally/internal/apierror"
)

type Api struct {
	tally  *tally.Tally
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/checks", a.RegisterCheck)
	router.GET("/checks", a.ListChecks)
	router.GET("/checks/in-transit-report", a.InTransitReport)
	router.GET("/checks/:id", a.GetCheck)
	router.POST("/checks/:id/cancel", a.CancelCheck)

	router.POST("/bank-transactions", a.RecordBankTransaction)
	router.GET("/bank-transactions", a.ListBankTransactions)
	router.GET("/bank-transactions/:id", a.GetBankTransaction)
	router.POST("/bank-transactions/:id/match-check/:checkId", a.MatchCheck)
	router.POST("/bank-transactions/:id/unmatch", a.UnmatchCheck)
	router.GET("/bank-transactions/:id/suggestions", a.SuggestMatches)
	router.POST("/bank-transactions/:id/confirm-deposit/:statementTxnId", a.ConfirmDeposit)
	router.POST("/bank-transactions/:id/purchase-order/:poId", a.LinkPurchaseOrder)

	router.POST("/bank-reconciliation/auto-match", a.AutoMatch)
	router.GET("/bank-reconciliation/auto-match/:taskId", a.GetAutoMatchTask)
	router.GET("/bank-reconciliation/report", a.ReconciliationReport)
	router.GET("/bank-reconciliation/deposits-in-transit", a.DepositsInTransit)

	router.POST("/bank-statements/upload", a.UploadStatement)
	router.POST("/bank-statements/extract-text", a.ExtractStatementText)
	router.GET("/bank-statements", a.ListStatements)
	router.GET("/bank-statements/:id", a.GetStatement)

	return a.router
}

func NewAPI(t *tally.Tally) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if conf.EnableTelemetry {
		r.Use(otelgin.Middleware(conf.ProjectName))
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	r.Use(middleware.Authenticate())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/", func(c *gin.Context) {
		if err := t.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data source unavailable"})
			return
		}
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{tally: t, router: r}
}

// respondError writes err with the status its APIError code maps to.
// Errors that are not APIErrors are logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}
	logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": apierror.ErrInternalServer})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": apierror.ErrInvalidInput})
}
