package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/tyemirov/picdash/pkg/credentials"
	"go.uber.org/zap"
)

// HTTPIdentityProvider talks to the picdash auth endpoints and owns the
// client-local auth-state hub. The session rides on a cookie jar shared with
// the other HTTP collaborators.
type HTTPIdentityProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mutex          sync.Mutex
	currentUser    *User
	subscribers    map[int]func(user *User)
	nextSubscriber int
}

type httpSubscription struct {
	cancel func()
	once   sync.Once
}

func (subscription *httpSubscription) Cancel() {
	subscription.once.Do(subscription.cancel)
}

// NewHTTPClient builds an http.Client with a cookie jar so the session cookie
// set at login is carried by every subsequent call.
func NewHTTPClient() (*http.Client, error) {
	jar, jarErr := cookiejar.New(nil)
	if jarErr != nil {
		return nil, fmt.Errorf("identity.client.cookie_jar: %w", jarErr)
	}
	return &http.Client{Jar: jar}, nil
}

// NewHTTPIdentityProvider constructs a provider against the given base URL.
// httpClient must carry a cookie jar; NewHTTPClient provides one.
func NewHTTPIdentityProvider(baseURL string, httpClient *http.Client, logger *zap.Logger) *HTTPIdentityProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPIdentityProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
		logger:      logger,
		subscribers: make(map[int]func(user *User)),
	}
}

type authRequestBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponseBody struct {
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	Error     string `json:"error"`
}

// SignUp validates the credentials locally, then creates the account and
// signs the new user in. Provider failures are surfaced verbatim.
func (provider *HTTPIdentityProvider) SignUp(ctx context.Context, email string, password string) (*User, error) {
	if !credentials.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, credentials.MessageInvalidEmail)
	}
	if !credentials.IsValidPassword(password) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPassword, credentials.MessageInvalidPassword)
	}

	payload, status, postErr := provider.postAuth(ctx, "/auth/signup", email, password)
	if postErr != nil {
		return nil, postErr
	}
	if status != http.StatusOK {
		message := payload.Error
		if message == "" {
			message = fmt.Sprintf("signup failed with status %d", status)
		}
		return nil, errors.New(message)
	}

	user := &User{ID: payload.UserID, Email: payload.UserEmail}
	provider.setCurrentUser(user)
	return user, nil
}

// SignIn verifies credentials. Every failure collapses into the generic
// ErrSignInFailed; the provider's own message is logged but never shown.
func (provider *HTTPIdentityProvider) SignIn(ctx context.Context, email string, password string) (*User, error) {
	payload, status, postErr := provider.postAuth(ctx, "/auth/login", email, password)
	if postErr != nil {
		provider.logger.Warn("sign-in request failed",
			zap.String("code", "identity.sign_in.request_failed"),
			zap.Error(postErr))
		return nil, ErrSignInFailed
	}
	if status != http.StatusOK {
		provider.logger.Warn("sign-in rejected",
			zap.String("code", "identity.sign_in.rejected"),
			zap.Int("status", status),
			zap.String("provider_error", payload.Error))
		return nil, ErrSignInFailed
	}

	user := &User{ID: payload.UserID, Email: payload.UserEmail}
	provider.setCurrentUser(user)
	return user, nil
}

// SignOut terminates the session and emits a nil-user event.
func (provider *HTTPIdentityProvider) SignOut(ctx context.Context) error {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, provider.baseURL+"/auth/logout", nil)
	if requestErr != nil {
		return fmt.Errorf("identity.sign_out.build_request: %w", requestErr)
	}
	response, doErr := provider.httpClient.Do(request)
	if doErr != nil {
		return fmt.Errorf("identity.sign_out.request: %w", doErr)
	}
	_ = response.Body.Close()
	if response.StatusCode != http.StatusNoContent && response.StatusCode != http.StatusOK {
		return fmt.Errorf("identity.sign_out.status: unexpected status %d", response.StatusCode)
	}
	provider.setCurrentUser(nil)
	return nil
}

// RestoreSession asks the server who the cookie belongs to and, when a
// session is live, emits the restored user to subscribers.
func (provider *HTTPIdentityProvider) RestoreSession(ctx context.Context) error {
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodGet, provider.baseURL+"/auth/me", nil)
	if requestErr != nil {
		return fmt.Errorf("identity.restore.build_request: %w", requestErr)
	}
	response, doErr := provider.httpClient.Do(request)
	if doErr != nil {
		return fmt.Errorf("identity.restore.request: %w", doErr)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusUnauthorized {
		provider.setCurrentUser(nil)
		return nil
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("identity.restore.status: unexpected status %d", response.StatusCode)
	}

	var payload authResponseBody
	if decodeErr := json.NewDecoder(response.Body).Decode(&payload); decodeErr != nil {
		return fmt.Errorf("identity.restore.decode: %w", decodeErr)
	}
	provider.setCurrentUser(&User{ID: payload.UserID, Email: payload.UserEmail})
	return nil
}

// CurrentUser returns the last known identity handle, nil when signed out.
func (provider *HTTPIdentityProvider) CurrentUser() *User {
	provider.mutex.Lock()
	defer provider.mutex.Unlock()
	return provider.currentUser
}

// Subscribe registers a handler on the auth-state stream. The handler fires
// immediately with the current state and again on every change until the
// returned subscription is cancelled.
func (provider *HTTPIdentityProvider) Subscribe(handler func(user *User)) (Subscription, error) {
	provider.mutex.Lock()
	subscriberID := provider.nextSubscriber
	provider.nextSubscriber++
	provider.subscribers[subscriberID] = handler
	current := provider.currentUser
	provider.mutex.Unlock()

	handler(current)

	return &httpSubscription{cancel: func() {
		provider.mutex.Lock()
		delete(provider.subscribers, subscriberID)
		provider.mutex.Unlock()
	}}, nil
}

func (provider *HTTPIdentityProvider) postAuth(ctx context.Context, path string, email string, password string) (authResponseBody, int, error) {
	var payload authResponseBody

	body, marshalErr := json.Marshal(authRequestBody{Email: email, Password: password})
	if marshalErr != nil {
		return payload, 0, fmt.Errorf("identity.auth.encode: %w", marshalErr)
	}
	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, provider.baseURL+path, bytes.NewReader(body))
	if requestErr != nil {
		return payload, 0, fmt.Errorf("identity.auth.build_request: %w", requestErr)
	}
	request.Header.Set("Content-Type", "application/json")

	response, doErr := provider.httpClient.Do(request)
	if doErr != nil {
		return payload, 0, fmt.Errorf("identity.auth.request: %w", doErr)
	}
	defer func() { _ = response.Body.Close() }()

	_ = json.NewDecoder(response.Body).Decode(&payload)
	return payload, response.StatusCode, nil
}

func (provider *HTTPIdentityProvider) setCurrentUser(user *User) {
	provider.mutex.Lock()
	provider.currentUser = user
	handlers := make([]func(user *User), 0, len(provider.subscribers))
	for _, handler := range provider.subscribers {
		handlers = append(handlers, handler)
	}
	provider.mutex.Unlock()

	for _, handler := range handlers {
		handler(user)
	}
}
