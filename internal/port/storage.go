package port

import (
	"context"
	"io"
)

// UploadInput carries the data for an object upload.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
}

// ObjectStorage abstracts the attachment object store.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (location string, err error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}

// FetchedFile is an attachment pulled from its source URL.
type FetchedFile struct {
	Bytes       []byte
	ContentType string
}

// AttachmentFetcher retrieves attachment bytes from an http(s) or s3 URL.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedFile, error)
}
