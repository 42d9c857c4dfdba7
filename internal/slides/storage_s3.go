/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package slides

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/lessonboard/internal/deck"
)

// S3Config describes the bucket holding the slides.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint, empty for AWS
	PublicBaseURL   string // prefix for renderer URLs
	UsePathStyle    bool
	AccessKeyID     string // empty uses the default credential chain
	SecretAccessKey string
}

// headObjectAPI is the slice of the S3 client used for probing.
type headObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Discoverer probes a bucket with HeadObject.
type S3Discoverer struct {
	client     headObjectAPI
	cfg        S3Config
	extensions []string
	logger     zerolog.Logger
}

// NewS3Discoverer builds an S3 client from cfg and wraps it in a discoverer.
func NewS3Discoverer(ctx context.Context, cfg S3Config, extensions []string, logger zerolog.Logger) (*S3Discoverer, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Discoverer(client, cfg, extensions, logger), nil
}

func newS3Discoverer(client headObjectAPI, cfg S3Config, extensions []string, logger zerolog.Logger) *S3Discoverer {
	return &S3Discoverer{
		client:     client,
		cfg:        cfg,
		extensions: NormalizeExtensions(extensions),
		logger:     logger.With().Str("component", "slides").Str("backend", "s3").Str("bucket", cfg.Bucket).Logger(),
	}
}

// Discover implements Discoverer.
func (d *S3Discoverer) Discover(ctx context.Context) ([]deck.SlideRef, error) {
	return scan(ctx, d, d.extensions, d.logger)
}

func (d *S3Discoverer) key(name string) string {
	prefix := strings.Trim(d.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// URL returns the public URL for an object key.
func (d *S3Discoverer) URL(key string) string {
	if d.cfg.PublicBaseURL != "" {
		return joinURL(d.cfg.PublicBaseURL, key)
	}
	if d.cfg.Endpoint != "" {
		return joinURL(joinURL(d.cfg.Endpoint, d.cfg.Bucket), key)
	}
	region := d.cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", d.cfg.Bucket, region, key)
}

func (d *S3Discoverer) probe(ctx context.Context, name string) (string, bool, error) {
	key := d.key(name)
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("head object %s: %w", key, err)
	}
	return d.URL(key), true, nil
}

func (d *S3Discoverer) backend() string { return "s3" }

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
