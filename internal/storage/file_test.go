package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "snap.json", []byte(`{"a":1}`)))

	data, err := store.Load(ctx, "snap.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "absent.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "snap.json", []byte("v1")))
	require.NoError(t, store.Save(ctx, "snap.json", []byte("v2")))

	data, err := store.Load(ctx, "snap.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

type flakyStore struct {
	data    map[string][]byte
	saveErr error
	loadErr error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{data: make(map[string][]byte)}
}

func (s *flakyStore) Save(_ context.Context, name string, data []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[name] = data
	return nil
}

func (s *flakyStore) Load(_ context.Context, name string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	data, ok := s.data[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestMirrorSaveWritesBoth(t *testing.T) {
	primary := newFlakyStore()
	mirror := newFlakyStore()
	m := NewMirror(primary, mirror)

	require.NoError(t, m.Save(context.Background(), "snap.json", []byte("x")))
	assert.Equal(t, []byte("x"), primary.data["snap.json"])
	assert.Equal(t, []byte("x"), mirror.data["snap.json"])
}

func TestMirrorSaveToleratesMirrorFailure(t *testing.T) {
	primary := newFlakyStore()
	mirror := newFlakyStore()
	mirror.saveErr = errors.New("s3 down")
	m := NewMirror(primary, mirror)

	require.NoError(t, m.Save(context.Background(), "snap.json", []byte("x")))
	assert.Equal(t, []byte("x"), primary.data["snap.json"])
}

func TestMirrorLoadFallsBack(t *testing.T) {
	primary := newFlakyStore()
	mirror := newFlakyStore()
	mirror.data["snap.json"] = []byte("mirrored")
	m := NewMirror(primary, mirror)

	data, err := m.Load(context.Background(), "snap.json")
	require.NoError(t, err)
	assert.Equal(t, "mirrored", string(data))
}
