package utils

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		raw, _ := io.ReadAll(params.Body)
		f.body = string(raw)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestR2StoreUpload(t *testing.T) {
	putter := &fakePutter{}
	store := &R2Store{Client: putter, Bucket: "avatars", CDNBaseURL: "https://cdn.example"}

	url, err := store.Upload(context.Background(), "avatars/u1/a.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/avatars/u1/a.png", url)
	assert.Equal(t, "avatars", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "avatars/u1/a.png", aws.ToString(putter.input.Key))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, "png-bytes", putter.body)
}

func TestR2StoreUploadDefaultsContentType(t *testing.T) {
	putter := &fakePutter{}
	store := &R2Store{Client: putter, Bucket: "b", CDNBaseURL: "https://cdn.example"}

	_, err := store.Upload(context.Background(), "k", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", aws.ToString(putter.input.ContentType))
}

func TestR2StoreUploadError(t *testing.T) {
	boom := errors.New("access denied")
	store := &R2Store{Client: &fakePutter{err: boom}, Bucket: "b", CDNBaseURL: "https://cdn.example"}

	_, err := store.Upload(context.Background(), "k", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewR2StoreCDNFallback(t *testing.T) {
	store, err := NewR2Store(context.Background(), R2Config{
		AccountID:       "acct",
		AccessKeyID:     "id",
		AccessKeySecret: "secret",
		Bucket:          "avatars",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com/avatars", store.CDNBaseURL)

	store, err = NewR2Store(context.Background(), R2Config{AccountID: "acct", Bucket: "avatars", CDNBaseURL: "https://cdn.example/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example", store.CDNBaseURL)
}
