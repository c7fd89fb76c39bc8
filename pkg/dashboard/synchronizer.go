package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// UploadPhase names a state of the per-attempt upload state machine.
type UploadPhase int

// The linear phase progression. Every phase except PhaseDone may transition
// to PhaseFailed; PhaseDeletingPrior additionally transitions forward on
// failure because a stale prior object must never block a re-upload.
const (
	PhaseIdle UploadPhase = iota
	PhaseDeletingPrior
	PhaseRequestingAuthorization
	PhaseUploading
	PhasePersistingReference
	PhaseDone
	PhaseFailed
)

// String renders the phase name for logs.
func (phase UploadPhase) String() string {
	switch phase {
	case PhaseIdle:
		return "idle"
	case PhaseDeletingPrior:
		return "deleting_prior"
	case PhaseRequestingAuthorization:
		return "requesting_authorization"
	case PhaseUploading:
		return "uploading"
	case PhasePersistingReference:
		return "persisting_reference"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// User-visible notices mirrored from the dashboard UI.
const (
	NoticeSelectFile   = "Please select a file first!"
	NoticeUploadFailed = "Upload failed"
)

// ImageSynchronizer replaces a user's stored profile image: delete the prior
// object, request a presigned URL, upload the bytes, persist the new
// reference, and update the local view, strictly in that order. Each step is
// gated on the previous step's success.
//
// Failed steps are not rolled back: a failed reference write leaves an
// uploaded-but-unreferenced object behind, matching the tolerated orphan from
// the delete step. Concurrent invocations are not guarded against.
type ImageSynchronizer struct {
	documents DocumentStore
	backend   UploadBackend
	uploader  ObjectUploader
	watcher   *SessionWatcher
	notifier  Notifier
	logger    *zap.Logger

	publicBaseURL string
	onDone        func()

	phase UploadPhase
}

// NewImageSynchronizer constructs a synchronizer. publicBaseURL is the fixed
// bucket host the public image URL is derived from; it must agree with the
// object-store configuration, which is not verified at runtime. onDone fires
// after a successful sequence so the UI can dismiss its upload prompt.
func NewImageSynchronizer(documents DocumentStore, backend UploadBackend, uploader ObjectUploader, watcher *SessionWatcher, notifier Notifier, publicBaseURL string, onDone func(), logger *zap.Logger) *ImageSynchronizer {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageSynchronizer{
		documents:     documents,
		backend:       backend,
		uploader:      uploader,
		watcher:       watcher,
		notifier:      notifier,
		logger:        logger,
		publicBaseURL: publicBaseURL,
		onDone:        onDone,
		phase:         PhaseIdle,
	}
}

// Phase returns the phase reached by the most recent upload attempt.
func (synchronizer *ImageSynchronizer) Phase() UploadPhase {
	return synchronizer.phase
}

// SyncProfileImage runs one upload attempt for the selected file.
func (synchronizer *ImageSynchronizer) SyncProfileImage(ctx context.Context, selected *SelectedFile) error {
	if selected == nil || len(selected.Data) == 0 {
		synchronizer.notifier.Notify(NoticeSelectFile)
		return ErrNoFileSelected
	}

	currentUser := synchronizer.watcher.State().CurrentUser
	if currentUser == nil {
		synchronizer.notifier.Notify(NoticeUploadFailed)
		return ErrNoAuthenticatedUser
	}

	synchronizer.deletePriorObject(ctx, currentUser.ID)

	synchronizer.transition(PhaseRequestingAuthorization)
	presignedURL, presignErr := synchronizer.backend.RequestUploadURL(ctx, selected.Name, selected.ContentType)
	if presignErr != nil {
		return synchronizer.fail("upload.presign.failed", presignErr)
	}

	synchronizer.transition(PhaseUploading)
	if uploadErr := synchronizer.uploader.Put(ctx, presignedURL, selected.ContentType, selected.Data); uploadErr != nil {
		return synchronizer.fail("upload.put.failed", uploadErr)
	}

	synchronizer.transition(PhasePersistingReference)
	imageURL := PublicImageURL(synchronizer.publicBaseURL, selected.Name)
	fields := map[string]string{
		FieldProfileImageURL: imageURL,
		FieldCurrentFileName: selected.Name,
	}
	if writeErr := synchronizer.documents.PutDocument(ctx, UsersCollection, currentUser.ID, fields, true); writeErr != nil {
		return synchronizer.fail("upload.persist_reference.failed", writeErr)
	}

	synchronizer.watcher.SetUserImageURL(imageURL)
	if synchronizer.onDone != nil {
		synchronizer.onDone()
	}
	synchronizer.transition(PhaseDone)
	return nil
}

// deletePriorObject looks up the stored file name and issues a best-effort
// delete. Any failure here is logged and tolerated: the sequence proceeds and
// the store may keep an orphaned object.
func (synchronizer *ImageSynchronizer) deletePriorObject(ctx context.Context, userID string) {
	synchronizer.transition(PhaseDeletingPrior)

	fields, found, readErr := synchronizer.documents.GetDocument(ctx, UsersCollection, userID)
	if readErr != nil {
		synchronizer.logger.Warn("prior profile lookup failed",
			zap.String("code", "upload.delete_prior.lookup_failed"),
			zap.Error(readErr))
		return
	}
	if !found {
		return
	}
	priorFileName := fields[FieldCurrentFileName]
	if priorFileName == "" {
		return
	}

	if deleteErr := synchronizer.backend.DeleteObject(ctx, priorFileName); deleteErr != nil {
		synchronizer.logger.Warn("prior object delete failed, continuing",
			zap.String("code", "upload.delete_prior.failed"),
			zap.String("file_name", priorFileName),
			zap.Error(deleteErr))
	}
}

func (synchronizer *ImageSynchronizer) transition(next UploadPhase) {
	synchronizer.logger.Debug("upload phase transition",
		zap.String("code", "upload.phase"),
		zap.Stringer("from", synchronizer.phase),
		zap.Stringer("to", next))
	synchronizer.phase = next
}

func (synchronizer *ImageSynchronizer) fail(code string, cause error) error {
	synchronizer.logger.Error("upload step failed",
		zap.String("code", code),
		zap.Stringer("phase", synchronizer.phase),
		zap.Error(cause))
	synchronizer.transition(PhaseFailed)
	synchronizer.notifier.Notify(NoticeUploadFailed)
	return fmt.Errorf("%s: %w", code, cause)
}

// PublicImageURL derives the public image URL from the fixed base URL and the
// percent-encoded file name. The upload backend does not return this URL; the
// derivation is a contract with the object-store configuration, and a bucket
// change on the backend silently breaks previously derived links.
func PublicImageURL(publicBaseURL string, fileName string) string {
	return strings.TrimRight(publicBaseURL, "/") + "/" + url.PathEscape(fileName)
}
