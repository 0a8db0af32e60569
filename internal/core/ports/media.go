package ports

import "context"

// MediaUploader pushes a local file to the remote object store and returns
// its public URL. Implementations must remove localPath on both success and
// failure paths so temp files never accumulate.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
