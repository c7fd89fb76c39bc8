package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SessionWatcher observes the identity provider's auth-state stream and
// mirrors the authenticated user's stored profile image into SessionState.
//
// Each sign-in event triggers exactly one profile document read. A nil-user
// event clears the state and invokes the unauthenticated callback so a route
// guard can redirect to the public entry page.
type SessionWatcher struct {
	identity  IdentityProvider
	documents DocumentStore
	logger    *zap.Logger

	onUnauthenticated func()

	mutex        sync.Mutex
	state        SessionState
	subscription Subscription
	readContext  context.Context
}

// NewSessionWatcher constructs a watcher with explicitly injected clients.
// onUnauthenticated may be nil when no route guard is attached.
func NewSessionWatcher(identity IdentityProvider, documents DocumentStore, onUnauthenticated func(), logger *zap.Logger) *SessionWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionWatcher{
		identity:          identity,
		documents:         documents,
		logger:            logger,
		onUnauthenticated: onUnauthenticated,
	}
}

// Start subscribes once to the auth-state stream. A subscription failure is
// logged and leaves the watcher inert: no user is ever set, so the route
// guard treats the session as logged out.
func (watcher *SessionWatcher) Start(ctx context.Context) {
	watcher.mutex.Lock()
	if watcher.subscription != nil {
		watcher.mutex.Unlock()
		return
	}
	watcher.readContext = ctx
	watcher.mutex.Unlock()

	subscription, subscribeErr := watcher.identity.Subscribe(watcher.handleAuthChange)
	if subscribeErr != nil {
		watcher.logger.Error("auth-state subscription failed",
			zap.String("code", "session.watcher.subscribe_failed"),
			zap.Error(subscribeErr))
		return
	}

	watcher.mutex.Lock()
	watcher.subscription = subscription
	watcher.mutex.Unlock()
}

// Stop cancels the subscription. It is safe to call on a watcher that never
// subscribed and safe to call more than once.
func (watcher *SessionWatcher) Stop() {
	watcher.mutex.Lock()
	subscription := watcher.subscription
	watcher.subscription = nil
	watcher.mutex.Unlock()

	if subscription != nil {
		subscription.Cancel()
	}
}

// State returns a copy of the current session state.
func (watcher *SessionWatcher) State() SessionState {
	watcher.mutex.Lock()
	defer watcher.mutex.Unlock()
	return watcher.state
}

// SetUserImageURL updates the local image mirror after a completed upload.
func (watcher *SessionWatcher) SetUserImageURL(imageURL string) {
	watcher.mutex.Lock()
	defer watcher.mutex.Unlock()
	watcher.state.UserImageURL = imageURL
}

func (watcher *SessionWatcher) handleAuthChange(user *User) {
	if user == nil {
		watcher.mutex.Lock()
		watcher.state = SessionState{}
		watcher.mutex.Unlock()
		if watcher.onUnauthenticated != nil {
			watcher.onUnauthenticated()
		}
		return
	}

	watcher.mutex.Lock()
	watcher.state.CurrentUser = user
	readContext := watcher.readContext
	watcher.mutex.Unlock()
	if readContext == nil {
		readContext = context.Background()
	}

	fields, found, readErr := watcher.documents.GetDocument(readContext, UsersCollection, user.ID)
	if readErr != nil {
		watcher.logger.Error("profile document read failed",
			zap.String("code", "session.watcher.profile_read_failed"),
			zap.String("user_id", user.ID),
			zap.Error(readErr))
		return
	}
	if !found {
		return
	}

	imageURL := fields[FieldProfileImageURL]
	watcher.mutex.Lock()
	watcher.state.UserImageURL = imageURL
	watcher.mutex.Unlock()
}
