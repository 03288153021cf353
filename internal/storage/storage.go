// Package storage persists small named blobs such as embedding-cache
// snapshots, locally and optionally mirrored to S3-compatible storage.
package storage

import "context"

// SnapshotStore saves and loads named snapshot blobs.
type SnapshotStore interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}
