package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestHTTPIdentityProviderSignUpValidatesLocally(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		t.Errorf("no provider call expected for locally rejected credentials, got %s", request.URL.Path)
	}))
	defer server.Close()

	httpClient, clientErr := NewHTTPClient()
	if clientErr != nil {
		t.Fatalf("building client: %v", clientErr)
	}
	provider := NewHTTPIdentityProvider(server.URL, httpClient, zaptest.NewLogger(t))

	if _, err := provider.SignUp(context.Background(), "bad-email", "Abcdef1!"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := provider.SignUp(context.Background(), "user@example.com", "weak"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestHTTPIdentityProviderSignUpSurfacesProviderMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusConflict)
		_, _ = writer.Write([]byte(`{"error":"email is already registered"}`))
	}))
	defer server.Close()

	httpClient, _ := NewHTTPClient()
	provider := NewHTTPIdentityProvider(server.URL, httpClient, zaptest.NewLogger(t))

	_, err := provider.SignUp(context.Background(), "user@example.com", "Abcdef1!")
	if err == nil {
		t.Fatalf("expected signup failure")
	}
	if err.Error() != "email is already registered" {
		t.Fatalf("expected verbatim provider message, got %q", err.Error())
	}
}

func TestHTTPIdentityProviderSignInReplacesProviderMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusUnauthorized)
		_, _ = writer.Write([]byte(`{"error":"account locked after too many attempts"}`))
	}))
	defer server.Close()

	httpClient, _ := NewHTTPClient()
	provider := NewHTTPIdentityProvider(server.URL, httpClient, zaptest.NewLogger(t))

	_, err := provider.SignIn(context.Background(), "user@example.com", "Abcdef1!")
	if !errors.Is(err, ErrSignInFailed) {
		t.Fatalf("expected generic ErrSignInFailed, got %v", err)
	}
}

func TestHTTPIdentityProviderAuthStateStream(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/auth/login":
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"user_id":"user-1","user_email":"user@example.com"}`))
		case "/auth/logout":
			writer.WriteHeader(http.StatusNoContent)
		default:
			writer.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	httpClient, _ := NewHTTPClient()
	provider := NewHTTPIdentityProvider(server.URL, httpClient, zaptest.NewLogger(t))

	var events []*User
	subscription, subscribeErr := provider.Subscribe(func(user *User) {
		events = append(events, user)
	})
	if subscribeErr != nil {
		t.Fatalf("subscribe failed: %v", subscribeErr)
	}
	defer subscription.Cancel()

	if len(events) != 1 || events[0] != nil {
		t.Fatalf("expected immediate nil-user event on subscribe, got %v", events)
	}

	if _, err := provider.SignIn(context.Background(), "user@example.com", "Abcdef1!"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if len(events) != 2 || events[1] == nil || events[1].ID != "user-1" {
		t.Fatalf("expected sign-in event, got %v", events)
	}
	if current := provider.CurrentUser(); current == nil || current.Email != "user@example.com" {
		t.Fatalf("unexpected current user: %+v", current)
	}

	if err := provider.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if len(events) != 3 || events[2] != nil {
		t.Fatalf("expected nil-user event on sign-out, got %v", events)
	}

	subscription.Cancel()
	provider.setCurrentUser(&User{ID: "user-2"})
	if len(events) != 3 {
		t.Fatalf("expected no events after cancellation, got %d", len(events))
	}
}

func TestHTTPDocumentStoreRoundTrip(t *testing.T) {
	t.Parallel()

	var lastMerge string
	var lastBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch {
		case request.Method == http.MethodGet && request.URL.Path == "/api/documents/users/user-1":
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(`{"profileImageUrl":"https://images.example.com/p.png","currentFileName":"p.png"}`))
		case request.Method == http.MethodGet:
			writer.WriteHeader(http.StatusNotFound)
		case request.Method == http.MethodPut:
			lastMerge = request.URL.Query().Get("merge")
			_ = json.NewDecoder(request.Body).Decode(&lastBody)
			writer.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	store := NewHTTPDocumentStore(server.URL, server.Client())

	fields, found, getErr := store.GetDocument(context.Background(), "users", "user-1")
	if getErr != nil || !found {
		t.Fatalf("expected document, got found=%v err=%v", found, getErr)
	}
	if fields["currentFileName"] != "p.png" {
		t.Fatalf("unexpected fields: %v", fields)
	}

	_, found, getErr = store.GetDocument(context.Background(), "users", "absent")
	if getErr != nil {
		t.Fatalf("absent document must not error: %v", getErr)
	}
	if found {
		t.Fatalf("expected found=false for absent document")
	}

	putErr := store.PutDocument(context.Background(), "users", "user-1", map[string]string{"currentFileName": "q.png"}, true)
	if putErr != nil {
		t.Fatalf("put failed: %v", putErr)
	}
	if lastMerge != "true" {
		t.Fatalf("expected merge=true query parameter, got %q", lastMerge)
	}
	if lastBody["currentFileName"] != "q.png" {
		t.Fatalf("unexpected put body: %v", lastBody)
	}
}

func TestHTTPUploadBackendRequestUploadURL(t *testing.T) {
	t.Parallel()

	issued := 0
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/generate-presigned-url" {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		if request.URL.Query().Get("fileName") != "my photo.png" {
			t.Errorf("unexpected fileName query: %q", request.URL.Query().Get("fileName"))
		}
		if request.URL.Query().Get("fileType") != "image/png" {
			t.Errorf("unexpected fileType query: %q", request.URL.Query().Get("fileType"))
		}
		issued++
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{"url": "https://bucket.example.com/presigned"})
	}))
	defer server.Close()

	backend := NewHTTPUploadBackend(server.URL, server.Client())

	// Two calls with the same name and type are independent authorizations.
	for attempt := 0; attempt < 2; attempt++ {
		presignedURL, err := backend.RequestUploadURL(context.Background(), "my photo.png", "image/png")
		if err != nil {
			t.Fatalf("attempt %d failed: %v", attempt, err)
		}
		if presignedURL == "" {
			t.Fatalf("expected presigned url on attempt %d", attempt)
		}
	}
	if issued != 2 {
		t.Fatalf("expected two independent authorizations, got %d", issued)
	}
}

func TestHTTPUploadBackendDeleteObjectReportsStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	backend := NewHTTPUploadBackend(server.URL, server.Client())
	if err := backend.DeleteObject(context.Background(), "old.jpg"); err == nil {
		t.Fatalf("expected error for non-2xx delete response")
	}
}

func TestPresignedURLUploaderPut(t *testing.T) {
	t.Parallel()

	var gotMethod, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		gotMethod = request.Method
		gotContentType = request.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(request.Body)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader := NewPresignedURLUploader(server.Client())
	if err := uploader.Put(context.Background(), server.URL+"/object?X-Amz-Signature=abc", "image/png", []byte("bytes")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}
	if gotContentType != "image/png" {
		t.Fatalf("expected declared content type, got %q", gotContentType)
	}
	if string(gotBody) != "bytes" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestPresignedURLUploaderPutRejectsFailureStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	uploader := NewPresignedURLUploader(server.Client())
	if err := uploader.Put(context.Background(), server.URL, "image/png", []byte("bytes")); err == nil {
		t.Fatalf("expected error for non-2xx upload response")
	}
}
