package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamharada/stepwise-system/pkg/storage"
)

const (
	s3AdapterTestBucket = "my-bucket"
	s3AdapterTestKey    = "log/user_001/task_1/a.json"
	s3AdapterTestPrefix = "log/user_001/task_1/"
)

// mockS3Client implements Client for testing. pages are served in order,
// keyed by the continuation token that requests them ("" for the first page).
type mockS3Client struct {
	putInput  *awss3.PutObjectInput
	putBody   []byte
	putErr    error
	getOutput *awss3.GetObjectOutput
	getErr    error
	pages     map[string]*awss3.ListObjectsV2Output
	listErr   error
	listCalls int
	headErr   error
}

func (m *mockS3Client) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	m.putInput = in
	if in.Body != nil {
		m.putBody, _ = io.ReadAll(in.Body)
	}
	return &awss3.PutObjectOutput{}, m.putErr
}

func (m *mockS3Client) GetObject(_ context.Context, _ *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	return m.getOutput, m.getErr
}

func (m *mockS3Client) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	page, ok := m.pages[aws.ToString(in.ContinuationToken)]
	if !ok {
		return nil, errors.New("unexpected continuation token")
	}
	return page, nil
}

func (m *mockS3Client) HeadBucket(_ context.Context, _ *awss3.HeadBucketInput, _ ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error) {
	return &awss3.HeadBucketOutput{}, m.headErr
}

func newTestAdapter(t *testing.T, client *mockS3Client) *Adapter {
	t.Helper()
	a, err := New(Config{Bucket: s3AdapterTestBucket}, client)
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	t.Run("nil client returns error", func(t *testing.T) {
		_, err := New(Config{Bucket: s3AdapterTestBucket}, nil)
		require.Error(t, err)
		assert.Equal(t, "s3 client is required", err.Error())
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := New(Config{}, &mockS3Client{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket")
	})

	t.Run("valid client creates adapter", func(t *testing.T) {
		a := newTestAdapter(t, &mockS3Client{})
		assert.Equal(t, "s3", a.Name())
		assert.NoError(t, a.Close())
	})
}

func TestAdapter_Put(t *testing.T) {
	client := &mockS3Client{}
	a := newTestAdapter(t, client)

	err := a.Put(context.Background(), s3AdapterTestKey, []byte(`{"code":"x"}`), storage.ContentTypeJSON)
	require.NoError(t, err)
	require.NotNil(t, client.putInput)
	assert.Equal(t, s3AdapterTestBucket, aws.ToString(client.putInput.Bucket))
	assert.Equal(t, s3AdapterTestKey, aws.ToString(client.putInput.Key))
	assert.Equal(t, storage.ContentTypeJSON, aws.ToString(client.putInput.ContentType))
	assert.Equal(t, `{"code":"x"}`, string(client.putBody))
}

func TestAdapter_PutError(t *testing.T) {
	a := newTestAdapter(t, &mockS3Client{putErr: errors.New("access denied")})

	err := a.Put(context.Background(), s3AdapterTestKey, nil, storage.ContentTypeJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "putting object")
	assert.Contains(t, err.Error(), "access denied")
}

func TestAdapter_ListExhaustsPages(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	client := &mockS3Client{
		pages: map[string]*awss3.ListObjectsV2Output{
			"": {
				Contents: []types.Object{
					{Key: aws.String(s3AdapterTestPrefix + "a.json"), Size: aws.Int64(10), LastModified: &t1},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("page-2"),
			},
			"page-2": {
				Contents: []types.Object{
					{Key: aws.String(s3AdapterTestPrefix + "b.json"), Size: aws.Int64(20), LastModified: &t2},
				},
				IsTruncated: aws.Bool(false),
			},
		},
	}
	a := newTestAdapter(t, client)

	objs, err := a.List(context.Background(), s3AdapterTestPrefix)
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, 2, client.listCalls)
	assert.Equal(t, s3AdapterTestPrefix+"a.json", objs[0].Key)
	assert.Equal(t, int64(10), objs[0].Size)
	assert.Equal(t, t1, objs[0].LastModified)
	assert.Equal(t, s3AdapterTestPrefix+"b.json", objs[1].Key)
}

func TestAdapter_ListEmpty(t *testing.T) {
	client := &mockS3Client{
		pages: map[string]*awss3.ListObjectsV2Output{
			"": {IsTruncated: aws.Bool(false)},
		},
	}
	a := newTestAdapter(t, client)

	objs, err := a.List(context.Background(), s3AdapterTestPrefix)
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestAdapter_ListError(t *testing.T) {
	a := newTestAdapter(t, &mockS3Client{listErr: errors.New("throttled")})

	_, err := a.List(context.Background(), s3AdapterTestPrefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing objects")
}

func TestAdapter_Get(t *testing.T) {
	modified := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	client := &mockS3Client{
		getOutput: &awss3.GetObjectOutput{
			Body:         io.NopCloser(bytes.NewReader([]byte(`{"code":"y"}`))),
			ContentType:  aws.String(storage.ContentTypeJSON),
			LastModified: &modified,
		},
	}
	a := newTestAdapter(t, client)

	obj, err := a.Get(context.Background(), s3AdapterTestKey)
	require.NoError(t, err)
	assert.Equal(t, s3AdapterTestKey, obj.Key)
	assert.Equal(t, `{"code":"y"}`, string(obj.Data))
	assert.Equal(t, storage.ContentTypeJSON, obj.ContentType)
	assert.Equal(t, modified, obj.LastModified)
}

func TestAdapter_GetNoSuchKey(t *testing.T) {
	a := newTestAdapter(t, &mockS3Client{getErr: &types.NoSuchKey{}})

	_, err := a.Get(context.Background(), s3AdapterTestKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestAdapter_GetError(t *testing.T) {
	a := newTestAdapter(t, &mockS3Client{getErr: errors.New("timeout")})

	_, err := a.Get(context.Background(), s3AdapterTestKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrObjectNotFound)
	assert.Contains(t, err.Error(), "getting object")
}

func TestAdapter_Ping(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, storage.Ping(ctx, newTestAdapter(t, &mockS3Client{})))

	err := newTestAdapter(t, &mockS3Client{headErr: errors.New("forbidden")}).Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), s3AdapterTestBucket)
}
