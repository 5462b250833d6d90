package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/fetch"
	"github.com/Onebillie/onebillconvo-sub004/mocks"
)

func TestFetch_S3WithoutStorageConfigured(t *testing.T) {
	f := fetch.NewFetcher(nil, time.Second)

	file, err := f.Fetch(context.Background(), "s3://attachments/bill.pdf")

	assert.Nil(t, file)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "object storage not configured")
}

func TestFetch_S3DownloadsFromStorage(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Download", mock.Anything, "attachments", "inbox/bill.pdf").
		Return([]byte("%PDF-1.4"), nil)

	f := fetch.NewFetcher(storage, time.Second)
	file, err := f.Fetch(context.Background(), "s3://attachments/inbox/bill.pdf")

	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), file.Bytes)
	assert.Equal(t, "application/pdf", file.ContentType)
	storage.AssertExpectations(t)
}

func TestFetch_MalformedS3URL(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	f := fetch.NewFetcher(storage, time.Second)

	_, err := f.Fetch(context.Background(), "s3://bucket-only")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed s3 URL")
	storage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	f := fetch.NewFetcher(nil, time.Second)

	_, err := f.Fetch(context.Background(), "ftp://host/bill.pdf")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported attachment URL scheme")
}

func TestFetch_HTTPSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer server.Close()

	f := fetch.NewFetcher(nil, time.Second)
	file, err := f.Fetch(context.Background(), server.URL+"/photo.jpg")

	assert.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, file.Bytes)
	assert.Equal(t, "image/jpeg", file.ContentType)
}

func TestFetch_HTTPNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := fetch.NewFetcher(nil, time.Second)
	_, err := f.Fetch(context.Background(), server.URL+"/gone.pdf")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetch_S3OversizedObjectRejected(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Download", mock.Anything, "attachments", "huge.pdf").
		Return(make([]byte, 20<<20+1), nil)

	f := fetch.NewFetcher(storage, time.Second)
	_, err := f.Fetch(context.Background(), "s3://attachments/huge.pdf")

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}
