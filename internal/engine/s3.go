// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/railwire/datatracks/pkg/value"
)

// S3EngineConfig configures an S3Engine the same way the teacher's
// pkg/archive/parquet.S3TargetConfig configures its parquet archive
// target.
type S3EngineConfig struct {
	Endpoint     string
	Bucket       string
	Prefix       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
}

// S3Engine persists values as individual objects in an S3-compatible
// bucket — the catalog's engine for large or infrequently read
// records, where per-write network cost dominates.
type S3Engine struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Engine builds an S3Engine from cfg.
func NewS3Engine(cfg S3EngineConfig) (*S3Engine, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("engine/s3: empty bucket name")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("engine/s3: load AWS config: %w", err)
	}

	opts := func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}

	client := s3.NewFromConfig(awsCfg, opts)
	return &S3Engine{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (e *S3Engine) Name() string { return "s3" }

func (e *S3Engine) Store(key []byte, v value.Value) error {
	var buf bytes.Buffer
	if err := value.Encode(&buf, v); err != nil {
		return fmt.Errorf("engine/s3: encode: %w", err)
	}

	objectKey := e.prefix + string(key)
	_, err := e.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("engine/s3: put object %q: %w", objectKey, err)
	}
	return nil
}
