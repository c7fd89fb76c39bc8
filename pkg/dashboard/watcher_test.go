package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

type fakeSubscription struct {
	cancelled bool
}

func (subscription *fakeSubscription) Cancel() {
	subscription.cancelled = true
}

type fakeIdentity struct {
	mutex        sync.Mutex
	handler      func(user *User)
	subscription *fakeSubscription
	subscribeErr error
	current      *User
}

func (identity *fakeIdentity) SignIn(ctx context.Context, email string, password string) (*User, error) {
	return nil, errors.New("not implemented")
}

func (identity *fakeIdentity) SignUp(ctx context.Context, email string, password string) (*User, error) {
	return nil, errors.New("not implemented")
}

func (identity *fakeIdentity) SignOut(ctx context.Context) error {
	return nil
}

func (identity *fakeIdentity) CurrentUser() *User {
	identity.mutex.Lock()
	defer identity.mutex.Unlock()
	return identity.current
}

func (identity *fakeIdentity) Subscribe(handler func(user *User)) (Subscription, error) {
	if identity.subscribeErr != nil {
		return nil, identity.subscribeErr
	}
	identity.mutex.Lock()
	identity.handler = handler
	identity.subscription = &fakeSubscription{}
	identity.mutex.Unlock()
	return identity.subscription, nil
}

func (identity *fakeIdentity) emit(user *User) {
	identity.mutex.Lock()
	identity.current = user
	handler := identity.handler
	identity.mutex.Unlock()
	if handler != nil {
		handler(user)
	}
}

type fakeDocumentStore struct {
	mutex     sync.Mutex
	documents map[string]map[string]string
	getErr    error
	putErr    error
	getCalls  int
	putCalls  []putCall
}

type putCall struct {
	collection string
	id         string
	fields     map[string]string
	merge      bool
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{documents: make(map[string]map[string]string)}
}

func (store *fakeDocumentStore) set(collection string, id string, fields map[string]string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.documents[collection+"/"+id] = fields
}

func (store *fakeDocumentStore) GetDocument(ctx context.Context, collection string, id string) (map[string]string, bool, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.getCalls++
	if store.getErr != nil {
		return nil, false, store.getErr
	}
	fields, found := store.documents[collection+"/"+id]
	return fields, found, nil
}

func (store *fakeDocumentStore) PutDocument(ctx context.Context, collection string, id string, fields map[string]string, merge bool) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.putCalls = append(store.putCalls, putCall{collection: collection, id: id, fields: fields, merge: merge})
	if store.putErr != nil {
		return store.putErr
	}
	key := collection + "/" + id
	if !merge {
		store.documents[key] = fields
		return nil
	}
	existing := store.documents[key]
	if existing == nil {
		existing = make(map[string]string)
	}
	for name, value := range fields {
		existing[name] = value
	}
	store.documents[key] = existing
	return nil
}

func TestSessionWatcherMirrorsProfileImageOnSignIn(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{}
	documents := newFakeDocumentStore()
	documents.set(UsersCollection, "user-1", map[string]string{
		FieldProfileImageURL: "https://images.example.com/photo.png",
		FieldCurrentFileName: "photo.png",
	})

	watcher := NewSessionWatcher(identity, documents, nil, zaptest.NewLogger(t))
	watcher.Start(context.Background())
	defer watcher.Stop()

	identity.emit(&User{ID: "user-1", Email: "user@example.com"})

	state := watcher.State()
	if state.CurrentUser == nil || state.CurrentUser.ID != "user-1" {
		t.Fatalf("expected current user user-1, got %+v", state.CurrentUser)
	}
	if state.UserImageURL != "https://images.example.com/photo.png" {
		t.Fatalf("expected mirrored image url, got %q", state.UserImageURL)
	}
	if documents.getCalls != 1 {
		t.Fatalf("expected exactly one document read per sign-in event, got %d", documents.getCalls)
	}
}

func TestSessionWatcherMissingDocumentLeavesImageUnset(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{}
	documents := newFakeDocumentStore()

	watcher := NewSessionWatcher(identity, documents, nil, zaptest.NewLogger(t))
	watcher.Start(context.Background())
	defer watcher.Stop()

	identity.emit(&User{ID: "user-2", Email: "other@example.com"})

	state := watcher.State()
	if state.CurrentUser == nil {
		t.Fatalf("expected current user to be set")
	}
	if state.UserImageURL != "" {
		t.Fatalf("expected unset image url, got %q", state.UserImageURL)
	}
}

func TestSessionWatcherSignOutClearsStateAndSignalsGuard(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{}
	documents := newFakeDocumentStore()
	documents.set(UsersCollection, "user-1", map[string]string{FieldProfileImageURL: "https://images.example.com/a.png"})

	redirected := false
	watcher := NewSessionWatcher(identity, documents, func() { redirected = true }, zaptest.NewLogger(t))
	watcher.Start(context.Background())
	defer watcher.Stop()

	identity.emit(&User{ID: "user-1"})
	identity.emit(nil)

	if !redirected {
		t.Fatalf("expected unauthenticated callback after nil-user event")
	}
	state := watcher.State()
	if state.CurrentUser != nil {
		t.Fatalf("expected nil current user, got %+v", state.CurrentUser)
	}
	if state.UserImageURL != "" {
		t.Fatalf("expected cleared image url, got %q", state.UserImageURL)
	}
}

func TestSessionWatcherSubscribeFailureFailsOpen(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{subscribeErr: errors.New("stream unavailable")}
	documents := newFakeDocumentStore()

	redirected := false
	watcher := NewSessionWatcher(identity, documents, func() { redirected = true }, zaptest.NewLogger(t))
	watcher.Start(context.Background())

	// The watcher never fires: no user is set and the guard sees logged-out.
	if state := watcher.State(); state.CurrentUser != nil {
		t.Fatalf("expected no user after failed subscription, got %+v", state.CurrentUser)
	}
	if redirected {
		t.Fatalf("expected no explicit redirect signal on subscription failure")
	}

	watcher.Stop()
}

func TestSessionWatcherStopCancelsSubscription(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{}
	watcher := NewSessionWatcher(identity, newFakeDocumentStore(), nil, zaptest.NewLogger(t))
	watcher.Start(context.Background())

	watcher.Stop()
	if identity.subscription == nil || !identity.subscription.cancelled {
		t.Fatalf("expected subscription to be cancelled on Stop")
	}

	// Stop is idempotent.
	watcher.Stop()
}

func TestSessionWatcherDocumentReadErrorKeepsUser(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{}
	documents := newFakeDocumentStore()
	documents.getErr = errors.New("store unreachable")

	watcher := NewSessionWatcher(identity, documents, nil, zaptest.NewLogger(t))
	watcher.Start(context.Background())
	defer watcher.Stop()

	identity.emit(&User{ID: "user-3"})

	state := watcher.State()
	if state.CurrentUser == nil || state.CurrentUser.ID != "user-3" {
		t.Fatalf("expected user to remain set after read failure, got %+v", state.CurrentUser)
	}
	if state.UserImageURL != "" {
		t.Fatalf("expected image url to stay unset after read failure")
	}
}
