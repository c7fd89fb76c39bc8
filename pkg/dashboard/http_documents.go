package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPDocumentStore reads and merge-writes profile documents through the
// picdash document endpoints. It shares the cookie-jar client with the
// identity provider so document calls ride the same session.
type HTTPDocumentStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPDocumentStore constructs a store against the given base URL.
func NewHTTPDocumentStore(baseURL string, httpClient *http.Client) *HTTPDocumentStore {
	return &HTTPDocumentStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (store *HTTPDocumentStore) documentURL(collection string, id string) string {
	return store.baseURL + "/api/documents/" + url.PathEscape(collection) + "/" + url.PathEscape(id)
}

// GetDocument fetches a document; found is false when the document is absent.
func (store *HTTPDocumentStore) GetDocument(ctx context.Context, collection string, id string) (map[string]string, bool, error) {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, store.documentURL(collection, id), nil)
	if requestErr != nil {
		return nil, false, fmt.Errorf("documents.get.build_request: %w", requestErr)
	}
	response, doErr := store.httpClient.Do(request)
	if doErr != nil {
		return nil, false, fmt.Errorf("documents.get.request: %w", doErr)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if response.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("documents.get.status: unexpected status %d", response.StatusCode)
	}

	var fields map[string]string
	if decodeErr := json.NewDecoder(response.Body).Decode(&fields); decodeErr != nil {
		return nil, false, fmt.Errorf("documents.get.decode: %w", decodeErr)
	}
	return fields, true, nil
}

// PutDocument writes the supplied fields. With merge set, untouched fields
// are preserved; otherwise the document is replaced.
func (store *HTTPDocumentStore) PutDocument(ctx context.Context, collection string, id string, fields map[string]string, merge bool) error {
	body, marshalErr := json.Marshal(fields)
	if marshalErr != nil {
		return fmt.Errorf("documents.put.encode: %w", marshalErr)
	}

	target := store.documentURL(collection, id) + "?merge=" + strconv.FormatBool(merge)
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if requestErr != nil {
		return fmt.Errorf("documents.put.build_request: %w", requestErr)
	}
	request.Header.Set("Content-Type", "application/json")

	response, doErr := store.httpClient.Do(request)
	if doErr != nil {
		return fmt.Errorf("documents.put.request: %w", doErr)
	}
	_ = response.Body.Close()

	if response.StatusCode != http.StatusNoContent && response.StatusCode != http.StatusOK {
		return fmt.Errorf("documents.put.status: unexpected status %d", response.StatusCode)
	}
	return nil
}
