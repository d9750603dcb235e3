// Package store abstracts the durable object store that holds acquired
// media and finished subtitle files.
package store

import (
	"context"
	"io"
)

// Asset identifies one stored object.
type Asset struct {
	// SecureURL is a URL from which the object can be fetched for a limited
	// time. This is what gets handed to the transcription provider.
	SecureURL string
	// PublicID is the store-side identifier used for later deletion.
	PublicID string
}

// UploadOptions control object placement.
type UploadOptions struct {
	// Folder prefixes the generated object key.
	Folder string
	// ContentType is the MIME type recorded on the object, best effort.
	ContentType string
}

// ObjectStore is the set of primitives the pipeline needs from a storage
// backend. All methods fail with an error carrying a human-readable
// provider message.
type ObjectStore interface {
	// UploadLocalFile stores a file from the local filesystem.
	UploadLocalFile(ctx context.Context, path string, opts UploadOptions) (Asset, error)

	// FetchRemoteURL makes the store pull the URL itself, without routing
	// the payload through this process's disk.
	FetchRemoteURL(ctx context.Context, url string, opts UploadOptions) (Asset, error)

	// UploadStream stores an object of unknown length from a reader.
	UploadStream(ctx context.Context, r io.Reader, opts UploadOptions) (Asset, error)

	// Delete removes a previously stored object.
	Delete(ctx context.Context, publicID string) error
}
