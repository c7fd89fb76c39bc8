package dashboard

import "context"

// Subscription is a cancellable registration on the auth-state stream.
// Cancel is idempotent and must be called on teardown.
type Subscription interface {
	Cancel()
}

// IdentityProvider manages account creation, credential verification, and
// auth-state notifications. Subscribe delivers the current state immediately
// and a discrete event on every subsequent sign-in, sign-up, sign-out, or
// session restoration; a nil user means unauthenticated.
type IdentityProvider interface {
	SignIn(ctx context.Context, email string, password string) (*User, error)
	SignUp(ctx context.Context, email string, password string) (*User, error)
	SignOut(ctx context.Context) error
	CurrentUser() *User
	Subscribe(handler func(user *User)) (Subscription, error)
}

// DocumentStore reads and writes profile documents. PutDocument with merge
// updates only the supplied fields and preserves the rest.
type DocumentStore interface {
	GetDocument(ctx context.Context, collection string, id string) (map[string]string, bool, error)
	PutDocument(ctx context.Context, collection string, id string, fields map[string]string, merge bool) error
}

// UploadBackend issues single-use presigned upload URLs and deletes stored
// objects by file name.
type UploadBackend interface {
	RequestUploadURL(ctx context.Context, fileName string, fileType string) (string, error)
	DeleteObject(ctx context.Context, fileName string) error
}

// ObjectUploader PUTs raw bytes to a presigned URL. A nil error means the
// object store reported HTTP-level success.
type ObjectUploader interface {
	Put(ctx context.Context, presignedURL string, contentType string, body []byte) error
}

// Notifier surfaces user-visible notices (inline messages, alerts).
type Notifier interface {
	Notify(message string)
}

// NopNotifier discards notices.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(message string) {}
