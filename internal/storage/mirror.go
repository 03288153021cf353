package storage

import (
	"context"
	"log"
)

// Mirror writes snapshots to a primary store and best-effort to a mirror.
// Loads fall back to the mirror when the primary misses.
type Mirror struct {
	primary SnapshotStore
	mirror  SnapshotStore
}

// NewMirror wraps a primary store with an optional mirror. A nil mirror
// yields a store equivalent to the primary alone.
func NewMirror(primary, mirror SnapshotStore) *Mirror {
	return &Mirror{primary: primary, mirror: mirror}
}

func (m *Mirror) Save(ctx context.Context, name string, data []byte) error {
	if err := m.primary.Save(ctx, name, data); err != nil {
		return err
	}
	if m.mirror != nil {
		if err := m.mirror.Save(ctx, name, data); err != nil {
			log.Printf("snapshot mirror save failed for %s: %v", name, err)
		}
	}
	return nil
}

func (m *Mirror) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := m.primary.Load(ctx, name)
	if err == nil {
		return data, nil
	}
	if m.mirror != nil {
		if mirrored, merr := m.mirror.Load(ctx, name); merr == nil {
			return mirrored, nil
		}
	}
	return nil, err
}
