package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStores(t *testing.T) map[string]CredentialStore {
	dir := t.TempDir()
	return map[string]CredentialStore{
		"memory": NewInMemoryCredentialStore(),
		"file":   NewFileCredentialStore(filepath.Join(dir, "nested", "credentials.yaml"), zap.NewNop()),
	}
}

func TestCredentialStore_Lifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load()
			assert.ErrorIs(t, err, ErrNoCredentials)

			want := Credentials{Token: "tok", Identity: "u-1", Username: "magnus"}
			require.NoError(t, store.Save(want))

			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, store.Clear())
			_, err = store.Load()
			assert.ErrorIs(t, err, ErrNoCredentials)

			// clearing twice is fine
			require.NoError(t, store.Clear())
		})
	}
}

func TestFileCredentialStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	store := NewFileCredentialStore(path, zap.NewNop())

	require.NoError(t, store.Save(Credentials{Token: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileCredentialStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unclosed"), 0o600))

	_, err := NewFileCredentialStore(path, zap.NewNop()).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)
}
