// Package dashboard implements the browser-dashboard client workflow:
// watching the identity provider's auth-state stream and replacing a user's
// stored profile image through a presigned-URL upload backend.
//
// All collaborators (identity provider, document store, upload backend) are
// injected interfaces; HTTP-backed implementations against the picdash server
// live in this package as well.
package dashboard
