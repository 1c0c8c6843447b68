package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	key := "photos/insp-1/pho-1.jpg"
	err := s.Put(ctx, key, strings.NewReader("image-bytes"), PutOptions{})
	require.NoError(t, err)

	reader, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
	assert.EqualValues(t, len("image-bytes"), info.Size)

	require.NoError(t, s.Delete(ctx, key))

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	// Delete is idempotent
	assert.NoError(t, s.Delete(ctx, key))
}

func TestPutRejectsExistingKey(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	key := "photos/insp-1/pho-1.jpg"
	require.NoError(t, s.Put(ctx, key, strings.NewReader("first"), PutOptions{}))

	err := s.Put(ctx, key, strings.NewReader("second"), PutOptions{})
	assert.ErrorIs(t, err, ErrKeyExists)

	// With Overwrite the second write succeeds
	require.NoError(t, s.Put(ctx, key, strings.NewReader("second"), PutOptions{Overwrite: true}))
}

func TestPutEnforcesMaxSize(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.bin", strings.NewReader("0123456789"), PutOptions{MaxSize: 5})
	assert.ErrorIs(t, err, ErrTooLarge)

	// The oversized file must not be left behind
	exists, err := s.Exists(ctx, "big.bin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPathTraversalRejected(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{"", "../escape.txt", "photos/../../escape.txt"} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestWalk(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "photos/insp-1/a.jpg", strings.NewReader("a"), PutOptions{}))
	require.NoError(t, s.Put(ctx, "photos/insp-1/b.jpg", strings.NewReader("b"), PutOptions{}))
	require.NoError(t, s.Put(ctx, "signatures/ins-1.png", strings.NewReader("sig"), PutOptions{}))

	var keys []string
	err := s.Walk(ctx, PhotoPrefix, func(key string, info ObjectInfo) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"photos/insp-1/a.jpg", "photos/insp-1/b.jpg"}, keys)

	// Walking a missing prefix is not an error
	var none []string
	err = s.Walk(ctx, "reports", func(key string, info ObjectInfo) error {
		none = append(none, key)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "photos/insp-1/pho-1.jpg", PhotoKey("insp-1", "pho-1", "original.jpg"))
	assert.Equal(t, "signatures/ins-1.png", SignatureKey("ins-1", "sig.png"))
	assert.True(t, strings.HasPrefix(ReportKey("insp-1", "pdf"), "reports/insp-1/"))
	assert.True(t, strings.HasSuffix(ReportKey("insp-1", "pdf"), ".pdf"))
}
