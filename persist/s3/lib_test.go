package s3_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	s3Persist "github.com/jrhy/devjson/persist/s3"
	"github.com/jrhy/devjson/persist/s3test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestHappyCase(t *testing.T) {
	t.Parallel()
	c, bucketName, closer := s3test.Client()
	defer closer()

	p := s3Persist.NewPersist(c, bucketName, "docs/")
	exists, err := p.Exists(ctx, "settings.json")
	require.NoError(t, err)
	assert.False(t, exists)

	err = p.Store(ctx, "settings.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	exists, err = p.Exists(ctx, "settings.json")
	require.NoError(t, err)
	assert.True(t, exists)

	b, err := p.Load(ctx, "settings.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), b)

	err = p.Store(ctx, "settings.json", []byte(`{"a":2}`))
	require.NoError(t, err)
	b, err = p.Load(ctx, "settings.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), b)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	c, bucketName, closer := s3test.Client()
	defer closer()

	p := s3Persist.NewPersist(c, bucketName, "")
	require.NoError(t, p.Create(ctx, "empty.json"))
	b, err := p.Load(ctx, "empty.json")
	require.NoError(t, err)
	assert.Empty(t, b)

	require.NoError(t, p.Store(ctx, "empty.json", []byte(`{"x":true}`)))
	require.NoError(t, p.Create(ctx, "empty.json"))
	b, err = p.Load(ctx, "empty.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"x":true}`), b)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()
	c, bucketName, closer := s3test.Client()
	defer closer()

	p := s3Persist.NewPersist(c, bucketName, "")
	_, err := p.Load(ctx, "nope.json")
	require.Error(t, err)
}

// revalidatingS3 answers every conditional GET with 304.
type revalidatingS3 struct {
	gets        []*s3.GetObjectInput
	unmodified  bool
	currentETag string
	currentBody string
}

func (r *revalidatingS3) HeadObjectWithContext(ctx aws.Context, input *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, nil
}

func (r *revalidatingS3) GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error) {
	r.gets = append(r.gets, input)
	if input.IfNoneMatch != nil && r.unmodified {
		return nil, awserr.NewRequestFailure(awserr.New("NotModified", "Not Modified", nil), http.StatusNotModified, "test")
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(r.currentBody)),
		ETag: aws.String(r.currentETag),
	}, nil
}

func (r *revalidatingS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	r.currentBody = string(b)
	r.currentETag = `"` + r.currentBody + `"`
	return &s3.PutObjectOutput{ETag: aws.String(r.currentETag)}, nil
}

func TestConditionalLoad(t *testing.T) {
	t.Parallel()
	fake := &revalidatingS3{currentETag: `"v1"`, currentBody: `{"v":1}`}
	p := s3Persist.NewPersist(fake, "bucket", "")

	b, err := p.Load(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(b))
	require.Len(t, fake.gets, 1)
	assert.Nil(t, fake.gets[0].IfNoneMatch)

	fake.unmodified = true
	b, err = p.Load(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(b))
	require.Len(t, fake.gets, 2)
	assert.Equal(t, `"v1"`, aws.StringValue(fake.gets[1].IfNoneMatch))

	fake.unmodified = false
	fake.currentETag = `"v2"`
	fake.currentBody = `{"v":2}`
	b, err = p.Load(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(b))
}

func TestStoreRemembersETag(t *testing.T) {
	t.Parallel()
	fake := &revalidatingS3{}
	p := s3Persist.NewPersist(fake, "bucket", "")

	require.NoError(t, p.Store(ctx, "doc.json", []byte(`{"w":1}`)))
	fake.unmodified = true
	b, err := p.Load(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"w":1}`, string(b))
	require.Len(t, fake.gets, 1)
	assert.Equal(t, `"{"w":1}"`, aws.StringValue(fake.gets[0].IfNoneMatch))
}
