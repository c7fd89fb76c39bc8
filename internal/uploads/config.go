package uploads

// Config locates the object store bucket and the credentials used to presign
// requests against it. BaseEndpoint is optional and points at minio-style
// stores; PublicBaseURL is the prefix browsers use to fetch stored objects
// and must agree with the client's configuration.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	BaseEndpoint    string
	PublicBaseURL   string
}
