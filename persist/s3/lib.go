package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of object bodies remembered by ETag.
const DefaultCacheSize = 128

type S3Interface interface {
	HeadObjectWithContext(ctx aws.Context, input *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error)
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Persist implements the devjson.Persist interface for documents kept as
// objects in an S3 bucket.
type Persist struct {
	s3         S3Interface
	BucketName string
	Prefix     string
	cache      *lru.Cache
}

type cachedObject struct {
	etag string
	body []byte
}

// Exists reports whether the named object is present.
func (p *Persist) Exists(ctx context.Context, name string) (bool, error) {
	input := s3.HeadObjectInput{
		Bucket: &p.BucketName,
		Key:    aws.String(p.Prefix + name),
	}
	_, err := p.s3.HeadObjectWithContext(ctx, &input)
	if statusCode(err) == http.StatusNotFound {
		p.cache.Remove(name)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Load returns the content of the named object. If a copy was seen before,
// the request is made conditional on its ETag and the copy is reused when
// the object has not changed.
func (p *Persist) Load(ctx context.Context, name string) ([]byte, error) {
	input := s3.GetObjectInput{
		Bucket: &p.BucketName,
		Key:    aws.String(p.Prefix + name),
	}
	cached, haveCached := p.cached(name)
	if haveCached {
		input.IfNoneMatch = aws.String(cached.etag)
	}
	output, err := p.s3.GetObjectWithContext(ctx, &input)
	if haveCached && statusCode(err) == http.StatusNotModified {
		return append([]byte(nil), cached.body...), nil
	}
	if err != nil {
		return nil, err
	}
	defer output.Body.Close()
	b, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}
	p.remember(name, output.ETag, b)
	return b, nil
}

// Store replaces the named object with the given bytes.
func (p *Persist) Store(ctx context.Context, name string, b []byte) error {
	input := s3.PutObjectInput{
		Bucket:      &p.BucketName,
		Key:         aws.String(p.Prefix + name),
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	}
	output, err := p.s3.PutObjectWithContext(ctx, &input)
	if err != nil {
		p.cache.Remove(name)
		return err
	}
	p.remember(name, output.ETag, b)
	return nil
}

// Create makes an empty document object if none exists yet.
func (p *Persist) Create(ctx context.Context, name string) error {
	exists, err := p.Exists(ctx, name)
	if err != nil || exists {
		return err
	}
	return p.Store(ctx, name, nil)
}

func (p *Persist) cached(name string) (cachedObject, bool) {
	v, ok := p.cache.Get(name)
	if !ok {
		return cachedObject{}, false
	}
	return v.(cachedObject), true
}

func (p *Persist) remember(name string, etag *string, b []byte) {
	if etag == nil || *etag == "" {
		p.cache.Remove(name)
		return
	}
	p.cache.Add(name, cachedObject{*etag, append([]byte(nil), b...)})
}

func statusCode(err error) int {
	var failure awserr.RequestFailure
	if errors.As(err, &failure) {
		return failure.StatusCode()
	}
	return 0
}

// NewPersist returns a Persist that loads and stores documents as objects
// with the given S3 client and bucket name, under the given key prefix.
func NewPersist(client S3Interface, bucketName, prefix string) *Persist {
	return NewPersistWithCacheSize(client, bucketName, prefix, DefaultCacheSize)
}

// NewPersistWithCacheSize is NewPersist remembering up to size object
// bodies for conditional loads.
func NewPersistWithCacheSize(client S3Interface, bucketName, prefix string, size int) *Persist {
	cache, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &Persist{client, bucketName, prefix, cache}
}
