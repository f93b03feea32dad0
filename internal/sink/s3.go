// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/railwire/datatracks/internal/plan"
	"github.com/railwire/datatracks/pkg/channel"
	"github.com/railwire/datatracks/pkg/value"
	"github.com/railwire/datatracks/pkg/workerpool"
)

// S3Config configures an S3Destination the same way engine.S3EngineConfig
// configures its sqlite/s3 engine counterpart — this is a distinct
// concern (a Destination writing whole trains), not a duplicate of it.
type S3Config struct {
	Endpoint     string
	Bucket       string
	Prefix       string
	AccessKey    string
	SecretKey    string
	Region       string
	UsePathStyle bool
	Retry        RetryPolicy
}

// S3Destination writes one object per Train it receives.
type S3Destination struct {
	cfg    S3Config
	client *s3.Client
	in     *channel.Single[*value.Train]
	seq    atomic.Uint64
}

func NewS3Destination(cfg S3Config) (*S3Destination, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("sink/s3: empty bucket name")
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
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
		return nil, fmt.Errorf("sink/s3: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Destination{cfg: cfg, client: client, in: channel.NewSingle[*value.Train]("s3-sink")}, nil
}

func (d *S3Destination) Type() string                      { return "s3" }
func (d *S3Destination) In() *channel.Single[*value.Train] { return d.in }

func (d *S3Destination) Serialize() plan.DestinationModel {
	return plan.DestinationModel{
		Type: "s3",
		Options: map[string]interface{}{
			"bucket": d.cfg.Bucket,
			"prefix": d.cfg.Prefix,
			"region": d.cfg.Region,
		},
	}
}

func (d *S3Destination) Operate(id string, inbound *channel.Single[*value.Train], pool *workerpool.Pool) (string, error) {
	workerID := "s3-sink-" + id
	pool.ExecuteAsync(workerID, func(meta *workerpool.Meta) {
		drainToDestination(meta, inbound, workerID, d.write, d.cfg.Retry)
	}, nil)
	return workerID, nil
}

func (d *S3Destination) write(tr *value.Train) error {
	var buf bytes.Buffer
	if err := value.EncodeTrain(&buf, tr); err != nil {
		return fmt.Errorf("sink/s3: encode train: %w", err)
	}

	objectKey := fmt.Sprintf("%s%020d", d.cfg.Prefix, d.seq.Add(1))
	_, err := d.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(d.cfg.Bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("sink/s3: put object %q: %w", objectKey, err)
	}
	return nil
}
