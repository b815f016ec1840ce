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

package archive

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/blnkfinance/tally/config"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArchiver(t *testing.T) *S3Archiver {
	a, err := NewS3Archiver(config.ArchiveConfig{
		S3BucketName:       "statements-bucket",
		S3Region:           "us-east-1",
		S3Endpoint:         "http://s3.test",
		AwsAccessKeyId:     "AKIDEXAMPLE",
		AwsSecretAccessKey: "secret",
		Prefix:             "tally",
	})
	require.NoError(t, err)
	return a
}

func TestS3Archiver_Key(t *testing.T) {
	a := testArchiver(t)
	assert.Equal(t, "tally/statements/stmt_1/jan.pdf", a.Key("stmt_1", "jan.pdf"))
	assert.Equal(t, "tally/statements/stmt_1/jan.pdf", a.Key("stmt_1", `C:\uploads\jan.pdf`))
	assert.Equal(t, "tally/statements/stmt_1/statement", a.Key("stmt_1", ""))
}

func TestS3Archiver_Archive(t *testing.T) {
	a := testArchiver(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var body []byte
	var contentType string
	httpmock.RegisterResponder("PUT", "http://s3.test/statements-bucket/tally/statements/stmt_1/jan.pdf",
		func(req *http.Request) (*http.Response, error) {
			body, _ = io.ReadAll(req.Body)
			contentType = req.Header.Get("Content-Type")
			assert.Equal(t, "stmt_1", req.Header.Get("X-Amz-Meta-Statement-Id"))
			return httpmock.NewStringResponse(200, ""), nil
		})

	key, err := a.Archive(context.Background(), "stmt_1", "jan.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "tally/statements/stmt_1/jan.pdf", key)
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, "application/pdf", contentType)
}

func TestS3Archiver_ArchiveFailure(t *testing.T) {
	a := testArchiver(t)
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("PUT", "=~^http://s3\\.test/statements-bucket/",
		httpmock.NewStringResponder(403, `<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))

	_, err := a.Archive(context.Background(), "stmt_1", "jan.pdf", "", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}
