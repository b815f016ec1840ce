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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tally"
	apimodel "github.com/blnkfinance/tally/api/model"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/model"
)

// AutoMatch runs the auto-matcher inline, or queues it when async=true.
func (a Api) AutoMatch(c *gin.Context) {
	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if !async {
		res, err := a.tally.AutoMatch(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	q := a.tally.Queue()
	if q == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": tally.ErrQueueDisabled.Error()})
		return
	}
	taskID, err := q.EnqueueAutoMatch(c.Request.Context())
	if errors.Is(err, asynq.ErrDuplicateTask) {
		c.JSON(http.StatusConflict, gin.H{"error": "an auto-match run is already queued", "code": apierror.ErrConflict})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("failed to enqueue auto-match")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, apimodel.AutoMatchAccepted{
		TaskID: taskID,
		Queue:  a.tally.Config().Queue.AutoMatchQueue,
		Status: "queued",
	})
}

// GetAutoMatchTask reports the state of a queued auto-match run and, once
// it has completed, its result.
func (a Api) GetAutoMatchTask(c *gin.Context) {
	q := a.tally.Queue()
	if q == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": tally.ErrQueueDisabled.Error()})
		return
	}
	queue := a.tally.Config().Queue.AutoMatchQueue
	info, err := q.TaskInfo(queue, c.Param("taskId"))
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found", "code": apierror.ErrNotFound})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"task_id": info.ID, "queue": info.Queue, "state": info.State.String()}
	if info.LastErr != "" {
		resp["last_error"] = info.LastErr
	}
	if len(info.Result) > 0 {
		var result model.AutoMatchResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			resp["result"] = result
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (a Api) ReconciliationReport(c *gin.Context) {
	var req tally.ReportRequest
	var err error
	if req.StatementBalance, err = apimodel.ParseAmount(c.Query("statement_balance")); err != nil {
		badRequest(c, err)
		return
	}
	if req.BookBalance, err = apimodel.ParseAmount(c.Query("book_balance")); err != nil {
		badRequest(c, err)
		return
	}
	if req.AsOf, err = apimodel.ParseDate(c.Query("as_of")); err != nil {
		badRequest(c, err)
		return
	}
	req.StatementID = c.Query("statement_id")

	report, err := a.tally.BuildReconciliationReport(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a Api) DepositsInTransit(c *gin.Context) {
	asOf, err := apimodel.ParseDate(c.Query("as_of"))
	if err != nil {
		badRequest(c, err)
		return
	}
	deposits, err := a.tally.DepositsInTransit(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposits)
}
