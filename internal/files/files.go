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

// Package files spools uploaded statements to disk, detects their type and
// turns them into text lines for the statement parser.
package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/blnkfinance/tally/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	TypePDF  = "application/pdf"
	TypeCSV  = "text/csv"
	TypeText = "text/plain"
)

// MaxUploadBytes caps how much of an upload is read.
const MaxUploadBytes = 20 << 20

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoText          = errors.New("no text could be extracted")
)

// ExtractionFailure reports that an uploaded file could not be turned into text.
type ExtractionFailure struct {
	FileName string
	FileType string
	Err      error
}

func (e *ExtractionFailure) Error() string {
	if e.FileType != "" {
		return fmt.Sprintf("could not extract text from %s (%s): %v", e.FileName, e.FileType, e.Err)
	}
	return fmt.Sprintf("could not extract text from %s: %v", e.FileName, e.Err)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors walk to the underlying error.
func (e *ExtractionFailure) Cause() error { return e.Err }

// Document is an uploaded file together with the text extracted from it.
type Document struct {
	FileName string
	FileType string
	Content  []byte
	Hash     string
	Text     string
	Lines    []string
}

// Extractor turns a spooled file into plain text.
type Extractor interface {
	Extract(ctx context.Context, file *os.File) (string, error)
}

// Reader routes uploads to the extractor registered for their type.
type Reader struct {
	extractors map[string]Extractor
}

// NewReader returns a Reader for text, CSV and, through pdftotext, PDF files.
func NewReader(pdftotextPath string) *Reader {
	return &Reader{extractors: map[string]Extractor{
		TypeText: TextExtractor{},
		TypeCSV:  CSVExtractor{},
		TypePDF:  PDFExtractor{Path: pdftotextPath},
	}}
}

// Register installs or replaces the extractor for a MIME type.
func (r *Reader) Register(fileType string, e Extractor) {
	r.extractors[fileType] = e
}

// Read spools src to a temporary file, detects its type and extracts its text.
// Every failure is returned as an *ExtractionFailure.
func (r *Reader) Read(ctx context.Context, filename string, src io.Reader) (*Document, error) {
	var buf bytes.Buffer
	tempFile, err := createAndPopulateTempFile(filename, io.TeeReader(io.LimitReader(src, MaxUploadBytes), &buf))
	if err != nil {
		return nil, &ExtractionFailure{FileName: filename, Err: err}
	}
	defer cleanupTempFile(tempFile)

	doc := &Document{FileName: filename, Content: buf.Bytes()}
	if len(doc.Content) == 0 {
		return nil, &ExtractionFailure{FileName: filename, Err: ErrEmptyFile}
	}
	doc.Hash = model.HashContent(doc.Content)
	doc.FileType = DetectFileType(doc.Content, filename)

	extractor, ok := r.extractors[doc.FileType]
	if !ok {
		return nil, &ExtractionFailure{FileName: filename, FileType: doc.FileType, Err: ErrUnsupportedType}
	}

	text, err := extractor.Extract(ctx, tempFile)
	if err != nil {
		return nil, &ExtractionFailure{FileName: filename, FileType: doc.FileType, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionFailure{FileName: filename, FileType: doc.FileType, Err: ErrNoText}
	}

	doc.Text = text
	doc.Lines = SplitLines(text)
	return doc, nil
}

// SplitLines splits extracted text into lines, dropping carriage returns and form feeds.
func SplitLines(text string) []string {
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n").Replace(text)
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

func createAndPopulateTempFile(filename string, reader io.Reader) (*os.File, error) {
	tempFile, err := createTempFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "error creating temporary file")
	}

	if _, err := io.Copy(tempFile, reader); err != nil {
		cleanupTempFile(tempFile)
		return nil, errors.Wrap(err, "error copying upload data")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		cleanupTempFile(tempFile)
		return nil, errors.Wrap(err, "error seeking temporary file")
	}

	return tempFile, nil
}

func createTempFile(originalFilename string) (*os.File, error) {
	tempDir := filepath.Join(os.TempDir(), "tally_uploads")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "error creating temporary directory")
	}

	prefix := fmt.Sprintf("%s_", filepath.Base(originalFilename))
	return os.CreateTemp(tempDir, prefix)
}

func cleanupTempFile(file *os.File) {
	if file == nil {
		return
	}
	name := file.Name()
	file.Close()
	if err := os.Remove(name); err != nil {
		logrus.WithError(err).Warnf("error removing temporary file %s", name)
	}
}

var extensionTypes = map[string]string{
	".pdf":  TypePDF,
	".csv":  TypeCSV,
	".txt":  TypeText,
	".text": TypeText,
}

// DetectFileType identifies a file by its extension and, failing that, by its content.
func DetectFileType(data []byte, filename string) string {
	if fileType := DetectByExtension(filename); fileType != "" {
		return fileType
	}
	return DetectByContent(data)
}

// DetectByExtension returns the media type for the file extension, without parameters.
func DetectByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if ext == "" {
		return ""
	}
	return mediaType(mime.TypeByExtension(ext))
}

// DetectByContent sniffs the first 512 bytes.
func DetectByContent(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return TypePDF
	}
	switch t := mediaType(http.DetectContentType(data)); t {
	case TypeText, "application/octet-stream":
		return AnalyzeTextContent(data)
	default:
		return t
	}
}

// AnalyzeTextContent tells CSV apart from plain text.
func AnalyzeTextContent(data []byte) string {
	if LooksLikeCSV(data) {
		return TypeCSV
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "application/octet-stream"
	}
	return TypeText
}

// LooksLikeCSV checks whether every non-empty line has the same number of comma separated fields.
func LooksLikeCSV(data []byte) bool {
	lines := bytes.Split(bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n")), []byte("\n"))
	if len(lines) < 2 {
		return false
	}

	fields := bytes.Count(lines[0], []byte(",")) + 1
	for _, line := range lines[1:] {
		if len(line) == 0 {
			continue
		}
		if bytes.Count(line, []byte(","))+1 != fields {
			return false
		}
	}

	return fields > 1
}

func mediaType(t string) string {
	if t == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return parsed
}
