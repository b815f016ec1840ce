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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/blnkfinance/tally/internal/apierror"
	"github.com/blnkfinance/tally/internal/cache"
	"github.com/blnkfinance/tally/internal/files"
	"github.com/blnkfinance/tally/internal/notification"
	"github.com/blnkfinance/tally/internal/statement"
	"github.com/blnkfinance/tally/model"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// StatementUpload is an uploaded bank statement with its declared period and balances.
type StatementUpload struct {
	FileName        string
	Content         io.Reader
	PeriodStart     civil.Date
	PeriodEnd       civil.Date
	StartingBalance decimal.Decimal
	EndingBalance   decimal.Decimal
}

const (
	warningExtractionFailed = "Could not extract text from the file. Enter the transactions manually or review the text with extract-text."
	warningNoTransactions   = "No transactions were recognised in the statement. Review the extracted text and enter the transactions manually."
)

func (u StatementUpload) validate() error {
	if u.Content == nil {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "file is required", nil)
	}
	if !u.PeriodStart.IsValid() || !u.PeriodEnd.IsValid() {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "period_start and period_end must be valid dates", nil)
	}
	if u.PeriodEnd.Before(u.PeriodStart) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "period_end cannot be before period_start", nil)
	}
	return nil
}

// readUpload reads at most files.MaxUploadBytes from src.
func readUpload(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, files.MaxUploadBytes+1))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "could not read uploaded file", err)
	}
	if len(data) > files.MaxUploadBytes {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("file exceeds %d bytes", files.MaxUploadBytes), nil)
	}
	return data, nil
}

// extractText returns the document for data, reusing text cached under its content hash.
func (t *Tally) extractText(ctx context.Context, fileName string, data []byte) (*files.Document, error) {
	hash := model.HashContent(data)
	key := cache.StatementTextKey(hash)

	var text string
	found, err := t.cache.Get(ctx, key, &text)
	if err != nil {
		logrus.WithError(err).Warn("statement text cache lookup failed")
	}
	if found && len(data) > 0 {
		return &files.Document{
			FileName: fileName,
			FileType: files.DetectFileType(data, fileName),
			Content:  data,
			Hash:     hash,
			Text:     text,
			Lines:    files.SplitLines(text),
		}, nil
	}

	doc, err := t.reader.Read(ctx, fileName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(t.config.Extraction.CacheTTLSeconds) * time.Second
	if err := t.cache.Set(ctx, key, doc.Text, ttl); err != nil {
		logrus.WithError(err).Warn("failed to cache statement text")
	}
	return doc, nil
}

// UploadStatement ingests a bank statement. Every line carrying a date and an
// amount becomes an unmatched transaction, all persisted together with the
// statement record. A file whose text cannot be extracted is still recorded,
// with no transactions and the extraction error, and the result carries a warning.
func (t *Tally) UploadStatement(ctx context.Context, upload StatementUpload) (*model.UploadResult, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "UploadStatement")
	defer span.End()

	if err := upload.validate(); err != nil {
		return nil, err
	}
	data, err := readUpload(upload.Content)
	if err != nil {
		return nil, err
	}

	stmt := &model.Statement{
		StatementID:     model.GenerateUUIDWithSuffix("stmt"),
		FileName:        upload.FileName,
		PeriodStart:     upload.PeriodStart,
		PeriodEnd:       upload.PeriodEnd,
		StartingBalance: upload.StartingBalance,
		EndingBalance:   upload.EndingBalance,
		CreatedAt:       time.Now().UTC(),
	}
	span.SetAttributes(attribute.String("statement.id", stmt.StatementID))
	logger := logrus.WithFields(logrus.Fields{"statement_id": stmt.StatementID, "file_name": upload.FileName})

	result := &model.UploadResult{StatementID: stmt.StatementID}
	var txns []*model.BankTransaction

	doc, err := t.extractText(ctx, upload.FileName, data)
	var failure *files.ExtractionFailure
	switch {
	case errors.As(err, &failure):
		logger.WithError(err).Warn("statement text extraction failed")
		stmt.ExtractionError = err.Error()
		result.Warning = warningExtractionFailed
	case err != nil:
		return nil, err
	default:
		start := upload.StartingBalance
		parsed := statement.ParseLines(doc.Lines, statement.Options{
			PeriodStart:     upload.PeriodStart,
			PeriodEnd:       upload.PeriodEnd,
			StartingBalance: &start,
			DateOrder:       t.config.Reconciliation.DateOrder,
		})
		txns = statementTransactions(stmt, parsed.Transactions)
		stmt.UnvalidatedCount = parsed.UnvalidatedCount
		result.DiscardedCount = len(parsed.Discarded)
		if len(parsed.Discarded) > 0 {
			logger.WithField("discarded", len(parsed.Discarded)).Debug("statement lines discarded")
		}
		if len(txns) == 0 {
			result.Warning = warningNoTransactions
		}
	}
	stmt.TransactionsCount = len(txns)

	if t.archiver != nil {
		key, err := t.archiver.Archive(ctx, stmt.StatementID, upload.FileName, files.DetectFileType(data, upload.FileName), data)
		if err != nil {
			logger.WithError(err).Error("statement archive failed")
			notification.NotifyError(err)
		} else {
			stmt.ArchiveKey = key
		}
	}

	if err := t.datasource.RecordStatementBatch(ctx, stmt, txns); err != nil {
		return nil, err
	}

	result.TransactionsCount = stmt.TransactionsCount
	result.UnvalidatedCount = stmt.UnvalidatedCount
	result.Message = fmt.Sprintf("Imported %d transactions from %s", stmt.TransactionsCount, displayName(upload.FileName))
	if stmt.UnvalidatedCount > 0 {
		result.Message += fmt.Sprintf("; %d need review", stmt.UnvalidatedCount)
	}
	logger.WithFields(logrus.Fields{
		"transactions": result.TransactionsCount,
		"unvalidated":  result.UnvalidatedCount,
		"discarded":    result.DiscardedCount,
	}).Info("statement uploaded")

	t.emit(ctx, EventStatementUploaded, stmt)
	return result, nil
}

func statementTransactions(stmt *model.Statement, parsed []statement.Parsed) []*model.BankTransaction {
	txns := make([]*model.BankTransaction, 0, len(parsed))
	for _, p := range parsed {
		txns = append(txns, &model.BankTransaction{
			TransactionID: model.GenerateUUIDWithSuffix("btx"),
			Date:          p.Date,
			Description:   p.Description,
			Amount:        p.Amount,
			Type:          p.Type,
			CheckNumber:   p.CheckNumber,
			Validated:     p.Validated,
			StatementID:   stmt.StatementID,
			Source:        model.SourceStatement,
			RawLine:       p.RawLine,
			CreatedAt:     stmt.CreatedAt,
		})
	}
	return txns
}

func displayName(fileName string) string {
	if strings.TrimSpace(fileName) == "" {
		return "the uploaded file"
	}
	return fileName
}

// ExtractStatementText returns the raw text of an uploaded file for manual review.
func (t *Tally) ExtractStatementText(ctx context.Context, fileName string, content io.Reader) (*model.ExtractedText, error) {
	ctx, span := otel.Tracer("tally").Start(ctx, "ExtractStatementText")
	defer span.End()

	if content == nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "file is required", nil)
	}
	data, err := readUpload(content)
	if err != nil {
		return nil, err
	}
	doc, err := t.extractText(ctx, fileName, data)
	if err != nil {
		var failure *files.ExtractionFailure
		if errors.As(err, &failure) {
			return nil, apierror.NewAPIError(apierror.ErrExtractionFailed, failure.Error(), nil)
		}
		return nil, err
	}
	return &model.ExtractedText{Text: doc.Text, LineCount: len(doc.Lines)}, nil
}

func (t *Tally) GetStatement(ctx context.Context, statementID string) (*model.Statement, error) {
	return t.datasource.GetStatementByID(ctx, statementID)
}

// ListStatements returns uploaded statements, newest first.
func (t *Tally) ListStatements(ctx context.Context) ([]*model.Statement, error) {
	return t.datasource.GetStatements(ctx)
}
