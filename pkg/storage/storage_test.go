package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutGet(t *testing.T) {
	ctx := context.Background()
	d, err := NewLocal(t.TempDir(), "http://localhost:3000/api/previews/")
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "abc.html", []byte("<p>hi</p>"), "text/html"))

	data, err := d.Get(ctx, "abc.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))
	assert.Equal(t, "http://localhost:3000/api/previews/abc.html", d.URL("abc.html"))
}

func TestLocal_MissingAndTraversal(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	d, err := NewLocal(root, "")
	require.NoError(t, err)

	_, err = d.Get(ctx, "nope.html")
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, d.Put(ctx, "../../escape.txt", []byte("x"), ""))
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err, "writes are confined to the root")

	assert.Error(t, d.Put(ctx, "", []byte("x"), ""))
}

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3_PutGet(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	d := newS3WithClient(fake, "previews", "https://cdn.kabro.ma")

	require.NoError(t, d.Put(ctx, "p/1.html", []byte("body"), "text/html; charset=utf-8"))
	assert.Equal(t, "text/html; charset=utf-8", fake.types["p/1.html"])

	data, err := d.Get(ctx, "p/1.html")
	require.NoError(t, err)
	assert.Equal(t, "body", string(data))

	_, err = d.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Equal(t, "https://cdn.kabro.ma/p/1.html", d.URL("p/1.html"))
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Options{})
	assert.Error(t, err)
}
