package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	pages   [][]string
	objects map[string]string
	listErr error

	prefixes []string
	puts     map[string]string
}

func (m *mockS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.prefixes = append(m.prefixes, aws.ToString(params.Prefix))

	page := 0
	if params.ContinuationToken != nil {
		page = int(aws.ToString(params.ContinuationToken)[0] - '0')
	}

	out := &s3.ListObjectsV2Output{}
	for _, key := range m.pages[page] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	if page+1 < len(m.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(string(rune('0' + page + 1)))
	}
	return out, nil
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if m.puts == nil {
		m.puts = make(map[string]string)
	}
	m.puts[aws.ToString(params.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreListPaginates(t *testing.T) {
	client := &mockS3{pages: [][]string{
		{"song_data/A/", "song_data/A/b.json"},
		{"song_data/A/a.json", "song_data/B/c.json"},
	}}
	store := NewS3Store(client, "udacity-dend")

	keys, err := store.List(context.Background(), "song_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"song_data/A/a.json", "song_data/A/b.json", "song_data/B/c.json"}, keys)
	assert.Equal(t, []string{"song_data", "song_data"}, client.prefixes)
}

func TestS3StoreListError(t *testing.T) {
	store := NewS3Store(&mockS3{listErr: errors.New("AccessDenied")}, "bucket")
	_, err := store.List(context.Background(), "log_data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bucket/log_data")
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestS3StoreOpen(t *testing.T) {
	store := NewS3Store(&mockS3{objects: map[string]string{"log_json_path.json": `{"jsonpaths":[]}`}}, "bucket")

	rc, err := store.Open(context.Background(), "log_json_path.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonpaths":[]}`, string(data))

	_, err = store.Open(context.Background(), "missing.json")
	require.Error(t, err)
	var nsk *types.NoSuchKey
	assert.True(t, errors.As(err, &nsk))
}

func TestS3StorePut(t *testing.T) {
	client := &mockS3{}
	store := NewS3Store(client, "bucket")

	require.NoError(t, store.Put(context.Background(), "sample/log_json_path.json", []byte("{}")))
	assert.Equal(t, map[string]string{"sample/log_json_path.json": "{}"}, client.puts)
}
