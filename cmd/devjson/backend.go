package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/jrhy/devjson"
	"github.com/jrhy/devjson/persist/file"
	"github.com/jrhy/devjson/persist/s3"
)

// backend is a Persist that can also create an empty document.
type backend interface {
	devjson.Persist
	Create(ctx context.Context, name string) error
}

func newBackend(s Settings) (backend, error) {
	switch s.Backend {
	case "file":
		return file.NewPersistForPath(s.Dir), nil
	case "s3":
		if s.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 backend needs a bucket; set --s3-bucket or DEVJSON_S3_BUCKET")
		}
		config := aws.Config{Region: aws.String(s.S3.Region)}
		if s.S3.Endpoint != "" {
			config.Endpoint = aws.String(s.S3.Endpoint)
			config.S3ForcePathStyle = aws.Bool(true)
		}
		sess, err := session.NewSession(&config)
		if err != nil {
			return nil, fmt.Errorf("aws session: %w", err)
		}
		return s3.NewPersist(awss3.New(sess), s.S3.Bucket, s.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown backend %q; use file or s3", s.Backend)
	}
}

func newOperator(s Settings, b backend) (*devjson.Operator, error) {
	return devjson.New(devjson.Config{
		StoreWith:    b,
		StrictErrors: s.Strict,
		Indent:       s.Indent,
	})
}
