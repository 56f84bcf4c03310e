package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKey(t *testing.T) {
	k := NewKey("relics", ".PNG")
	parts := strings.Split(k, "/")
	require.Len(t, parts, 4)
	assert.Equal(t, "relics", parts[0])
	assert.Len(t, parts[1], 4)
	assert.Len(t, parts[2], 2)
	assert.True(t, strings.HasSuffix(parts[3], ".png"))
	assert.NotEqual(t, k, NewKey("relics", ".png"))
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.Put(ctx, "a/b/c.txt", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := st.Open(ctx, "a/b/c.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, st.Delete(ctx, "a/b/c.txt"))
	_, err = st.Open(ctx, "a/b/c.txt")
	assert.ErrorIs(t, err, ErrNotExist)

	// deleting twice is fine
	assert.NoError(t, st.Delete(ctx, "a/b/c.txt"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", "a\\b"} {
		err := st.Put(ctx, key, bytes.NewReader(nil), 0, "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		_, err = st.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
