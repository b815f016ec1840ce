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

package files

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// TextExtractor reads plain text statements as they are.
type TextExtractor struct{}

func (TextExtractor) Extract(ctx context.Context, file *os.File) (string, error) {
	var sb strings.Builder
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(err, "error reading text file")
	}
	return sb.String(), nil
}

// CSVExtractor flattens every CSV row into one space separated line so that
// the statement parser sees the same shape as a text statement.
type CSVExtractor struct{}

func (CSVExtractor) Extract(ctx context.Context, file *os.File) (string, error) {
	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var sb strings.Builder
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return "", errors.Wrapf(err, "error reading CSV row %d", row)
		}
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		fields := make([]string, 0, len(record))
		for _, f := range record {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		sb.WriteString(strings.Join(fields, " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// PDFExtractor shells out to pdftotext and keeps the physical layout so that
// statement columns stay on one line.
type PDFExtractor struct {
	Path string
}

func (p PDFExtractor) Extract(ctx context.Context, file *os.File) (string, error) {
	path := p.Path
	if path == "" {
		path = "pdftotext"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-layout", "-enc", "UTF-8", file.Name(), "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Wrapf(err, "pdftotext failed: %s", msg)
		}
		return "", errors.Wrap(err, "pdftotext failed")
	}
	return stdout.String(), nil
}
