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

// Package archive keeps a copy of every uploaded statement file in S3.
package archive

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/blnkfinance/tally/config"
	"github.com/pkg/errors"
)

// Archiver stores raw statement files and returns the key they were stored under.
type Archiver interface {
	Archive(ctx context.Context, statementID, fileName, contentType string, content []byte) (string, error)
}

type S3Archiver struct {
	client *s3.S3
	bucket string
	prefix string
}

// NewS3Archiver builds an archiver from configuration. Static keys are used
// when given; otherwise the default AWS credential chain applies. A custom
// endpoint switches to path style addressing for S3 compatible stores.
func NewS3Archiver(cfg config.ArchiveConfig) (*S3Archiver, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.S3Region)
	if cfg.AwsAccessKeyId != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AwsAccessKeyId, cfg.AwsSecretAccessKey, ""))
	}
	if cfg.S3Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating aws session")
	}
	return &S3Archiver{client: s3.New(sess), bucket: cfg.S3BucketName, prefix: cfg.Prefix}, nil
}

// Key is the object key for a statement file.
func (a *S3Archiver) Key(statementID, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "statement"
	}
	return path.Join(a.prefix, "statements", statementID, name)
}

func (a *S3Archiver) Archive(ctx context.Context, statementID, fileName, contentType string, content []byte) (string, error) {
	key := a.Key(statementID, fileName)
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
		Metadata: map[string]*string{
			"statement-id": aws.String(statementID),
		},
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObjectWithContext(ctx, input); err != nil {
		return "", errors.Wrapf(err, "uploading %s to s3://%s", key, a.bucket)
	}
	return key, nil
}
