package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HTTPUploadBackend requests presigned upload URLs and best-effort deletions
// from the picdash upload endpoints. File names and types are percent-encoded
// into the query string.
type HTTPUploadBackend struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPUploadBackend constructs a backend client against the given base URL.
func NewHTTPUploadBackend(baseURL string, httpClient *http.Client) *HTTPUploadBackend {
	return &HTTPUploadBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// RequestUploadURL asks the backend for a single-use presigned PUT URL. Each
// call yields a fresh authorization; retries are independent.
func (backend *HTTPUploadBackend) RequestUploadURL(ctx context.Context, fileName string, fileType string) (string, error) {
	query := url.Values{}
	query.Set("fileName", fileName)
	query.Set("fileType", fileType)

	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, backend.baseURL+"/generate-presigned-url?"+query.Encode(), nil)
	if requestErr != nil {
		return "", fmt.Errorf("uploads.presign.build_request: %w", requestErr)
	}
	response, doErr := backend.httpClient.Do(request)
	if doErr != nil {
		return "", fmt.Errorf("uploads.presign.request: %w", doErr)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("uploads.presign.status: unexpected status %d", response.StatusCode)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if decodeErr := json.NewDecoder(response.Body).Decode(&payload); decodeErr != nil {
		return "", fmt.Errorf("uploads.presign.decode: %w", decodeErr)
	}
	if payload.URL == "" {
		return "", fmt.Errorf("uploads.presign.empty_url: backend returned no url")
	}
	return payload.URL, nil
}

// DeleteObject asks the backend to remove the named object. Callers treat the
// outcome as best-effort; the response body is ignored.
func (backend *HTTPUploadBackend) DeleteObject(ctx context.Context, fileName string) error {
	query := url.Values{}
	query.Set("fileName", fileName)

	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, backend.baseURL+"/delete-image?"+query.Encode(), nil)
	if requestErr != nil {
		return fmt.Errorf("uploads.delete.build_request: %w", requestErr)
	}
	response, doErr := backend.httpClient.Do(request)
	if doErr != nil {
		return fmt.Errorf("uploads.delete.request: %w", doErr)
	}
	_ = response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("uploads.delete.status: unexpected status %d", response.StatusCode)
	}
	return nil
}

// PresignedURLUploader PUTs raw bytes to a presigned object-store URL.
type PresignedURLUploader struct {
	httpClient *http.Client
}

// NewPresignedURLUploader constructs an uploader. A nil client falls back to
// http.DefaultClient; presigned PUTs carry their own authorization and need
// no cookies.
func NewPresignedURLUploader(httpClient *http.Client) *PresignedURLUploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &PresignedURLUploader{httpClient: httpClient}
}

// Put uploads the body with the declared Content-Type. A 2xx response is the
// sole success signal; the object store is trusted to have stored the bytes
// durably once it reports success.
func (uploader *PresignedURLUploader) Put(ctx context.Context, presignedURL string, contentType string, body []byte) error {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, bytes.NewReader(body))
	if requestErr != nil {
		return fmt.Errorf("uploads.put.build_request: %w", requestErr)
	}
	request.Header.Set("Content-Type", contentType)

	response, doErr := uploader.httpClient.Do(request)
	if doErr != nil {
		return fmt.Errorf("uploads.put.request: %w", doErr)
	}
	_ = response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("uploads.put.status: upload failed with status %d", response.StatusCode)
	}
	return nil
}
