package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := opener
	opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { opener = prev })
}

func TestSetGetDelete(t *testing.T) {
	useMemoryKeyring(t)

	require.NoError(t, Set(APIKey, "secret"))
	got, err := Get(APIKey)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, Delete(APIKey))
	_, err = Get(APIKey)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, Delete(APIKey))
}

func TestResolveAPIKey(t *testing.T) {
	useMemoryKeyring(t)

	key, err := ResolveAPIKey("from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	key, err = ResolveAPIKey("")
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, Set(APIKey, "from-keyring"))
	key, err = ResolveAPIKey("")
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", key)
}
