package dashboard

// Document field names and the collection holding one profile per user.
const (
	UsersCollection      = "users"
	FieldProfileImageURL = "profileImageUrl"
	FieldCurrentFileName = "currentFileName"
)

// User is the identity handle issued by the identity provider.
type User struct {
	ID    string
	Email string
}

// UserProfile mirrors the stored profile document.
//
// ProfileImageURL and CurrentFileName are written together in a single
// merge-write and always refer to the same stored object.
type UserProfile struct {
	UserID          string
	ProfileImageURL string
	CurrentFileName string
}

// SelectedFile is a file chosen through the picker: raw bytes plus the
// declared name and MIME type. It is discarded after one upload attempt.
type SelectedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// SessionState is the client-local mirror of the authenticated session.
type SessionState struct {
	CurrentUser  *User
	UserImageURL string
}

// ProfileFromDocument extracts the typed profile view from raw document
// fields.
func ProfileFromDocument(userID string, fields map[string]string) UserProfile {
	return UserProfile{
		UserID:          userID,
		ProfileImageURL: fields[FieldProfileImageURL],
		CurrentFileName: fields[FieldCurrentFileName],
	}
}
