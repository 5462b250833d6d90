package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// maxFetchBytes mirrors the classifier's input ceiling. Reading more than
// this is wasted work because classification would reject it anyway.
const maxFetchBytes = 20 << 20

type fetcher struct {
	client  *http.Client
	storage port.ObjectStorage
}

// NewFetcher creates an AttachmentFetcher that dispatches on URL scheme:
// s3:// URLs go to object storage, http(s) URLs are fetched directly.
func NewFetcher(storage port.ObjectStorage, timeout time.Duration) port.AttachmentFetcher {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &fetcher{
		client:  &http.Client{Timeout: timeout},
		storage: storage,
	}
}

func (f *fetcher) Fetch(ctx context.Context, url string) (*port.FetchedFile, error) {
	switch {
	case strings.HasPrefix(url, "s3://"):
		return f.fetchS3(ctx, url)
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return f.fetchHTTP(ctx, url)
	default:
		return nil, fmt.Errorf("unsupported attachment URL scheme: %s", url)
	}
}

func (f *fetcher) fetchHTTP(ctx context.Context, url string) (*port.FetchedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching attachment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching attachment: status %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading attachment body: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, domain.ErrFileTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = guessContentType(url)
	}

	return &port.FetchedFile{Bytes: data, ContentType: contentType}, nil
}

func (f *fetcher) fetchS3(ctx context.Context, url string) (*port.FetchedFile, error) {
	// Object storage is optional at startup; without it s3 URLs cannot be
	// served and must fail the parse instead of the process.
	if f.storage == nil {
		return nil, fmt.Errorf("object storage not configured, cannot fetch %s", url)
	}

	rest := strings.TrimPrefix(url, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed s3 URL: %s", url)
	}

	data, err := f.storage.Download(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	if len(data) > maxFetchBytes {
		return nil, domain.ErrFileTooLarge
	}

	return &port.FetchedFile{Bytes: data, ContentType: guessContentType(key)}, nil
}

func guessContentType(url string) string {
	ext := path.Ext(url)
	if ct := mime.TypeByExtension(ext); ct != "" {
		if idx := strings.Index(ct, ";"); idx >= 0 {
			ct = strings.TrimSpace(ct[:idx])
		}
		return ct
	}
	return "application/octet-stream"
}
