// Package s3test provides an S3 client and scratch bucket for tests. By
// default it runs gofakes3 in-process; set DEVJSON_TEST_S3_ENDPOINT (and the
// usual AWS credential variables) to test against a real endpoint instead.
package s3test

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"net/http/httptest"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// Client returns an S3 client, the name of an empty bucket it can use, and
// a func that empties the bucket and releases the fake server.
func Client() (*s3.S3, string, func()) {
	var client *s3.S3
	closer := func() {}
	if endpoint := os.Getenv("DEVJSON_TEST_S3_ENDPOINT"); endpoint != "" {
		config := endpointConfig(endpoint, os.Getenv("AWS_REGION"))
		config.Credentials = credentials.NewStaticCredentials(
			getEnv("AWS_ACCESS_KEY_ID"),
			getEnv("AWS_SECRET_ACCESS_KEY"),
			getEnvOrDefault("AWS_SESSION_TOKEN", ""),
		)
		sess, err := session.NewSession(&config)
		if err != nil {
			panic(err)
		}
		client = s3.New(sess)
	} else {
		faker := gofakes3.New(s3mem.New())
		ts := httptest.NewServer(faker.Server())
		closer = ts.Close
		client = NewClient(ts.URL)
	}

	bucketName := os.Getenv("DEVJSON_TEST_S3_BUCKET")
	created := false
	if bucketName != "" {
		if err := emptyBucket(client, bucketName); err != nil {
			panic(err)
		}
	} else {
		bucketName = randBucketName()
		_, err := client.CreateBucket(&s3.CreateBucketInput{
			Bucket: &bucketName,
		})
		if err != nil {
			panic(err)
		}
		created = true
	}

	serverCloser := closer
	closer = func() {
		emptyBucket(client, bucketName)
		if created {
			client.DeleteBucket(&s3.DeleteBucketInput{
				Bucket: &bucketName,
			})
		}
		serverCloser()
	}
	return client, bucketName, closer
}

const notUsingAWS = "not-using-AWS"

// endpointConfig configures a client for a real endpoint. With a real
// AWS_REGION the SDK resolves the AWS endpoint itself. Without one the
// explicit endpoint is used (min.io, Wasabi and the like) and the region
// only needs to be non-empty to satisfy the SDK.
func endpointConfig(endpoint, region string) aws.Config {
	config := aws.Config{
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if region == "" || region == notUsingAWS {
		config.Region = aws.String(notUsingAWS)
	} else {
		config.Endpoint = nil
	}
	return config
}

// NewClient returns a path-style client for an S3-compatible endpoint with
// static test credentials.
func NewClient(endpoint string) *s3.S3 {
	s3Config := &aws.Config{
		Credentials: credentials.NewStaticCredentials(
			"TEST-ACCESSKEYID",
			"TEST-SECRETACCESSKEY",
			"",
		),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("ca-west-1"),
		DisableSSL:       aws.Bool(true),
		S3ForcePathStyle: aws.Bool(true),
	}
	return s3.New(session.Must(session.NewSession(s3Config)))
}

func getEnv(key string) string {
	res := os.Getenv(key)
	if res == "" {
		panic(fmt.Sprintf("environment '%s' unset", key))
	}
	return res
}

func getEnvOrDefault(key, def string) string {
	res := os.Getenv(key)
	if res == "" {
		return def
	}
	return res
}

func randBucketName() string {
	i, err := rand.Int(rand.Reader, big.NewInt(math.MaxUint32))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("devjson-%s", i)
}

func emptyBucket(s *s3.S3, bucket string) error {
	params := &s3.ListObjectsInput{
		Bucket: &bucket,
	}
	for {
		objects, err := s.ListObjects(params)
		if err != nil {
			return err
		}
		if len(objects.Contents) == 0 {
			return nil
		}
		toDelete := make([]*s3.ObjectIdentifier, 0, len(objects.Contents))
		for _, object := range objects.Contents {
			toDelete = append(toDelete, &s3.ObjectIdentifier{Key: object.Key})
		}
		_, err = s.DeleteObjects(&s3.DeleteObjectsInput{
			Bucket: &bucket,
			Delete: &s3.Delete{Objects: toDelete},
		})
		if err != nil {
			return err
		}
		if !aws.BoolValue(objects.IsTruncated) {
			return nil
		}
		params.Marker = toDelete[len(toDelete)-1].Key
	}
}
