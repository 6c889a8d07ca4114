package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"thesisarchive/internal/crypto"
	"thesisarchive/internal/repository"
)

func TestSeedCreatesAdminOnce(t *testing.T) {
	ctx := context.Background()
	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Migrate(ctx))

	opts := seedOptions{Email: "root@u.edu", Password: "changeme", Name: "Root", Cost: 4}
	var out bytes.Buffer
	require.NoError(t, seed(ctx, store, opts, &out))
	require.Contains(t, out.String(), "created")

	admin, err := store.GetAdminByEmail(ctx, "root@u.edu")
	require.NoError(t, err)
	require.Equal(t, "System Administrator", admin.Position)
	require.Equal(t, []string{"manage_all"}, admin.Permissions)
	require.NoError(t, crypto.CheckPassword(admin.PasswordHash, "changeme"))

	out.Reset()
	opts.Password = "different"
	require.NoError(t, seed(ctx, store, opts, &out))
	require.Equal(t, "admin already exists\n", out.String())

	admin, err = store.GetAdminByEmail(ctx, "root@u.edu")
	require.NoError(t, err)
	require.NoError(t, crypto.CheckPassword(admin.PasswordHash, "changeme"))
}

func TestRunAgainstSQLiteFile(t *testing.T) {
	t.Setenv("INITIAL_ADMIN_PASSWORD", "")
	url := "sqlite:" + filepath.Join(t.TempDir(), "archive.db")

	require.Error(t, run([]string{"--database-url", url}, &bytes.Buffer{}))

	var out bytes.Buffer
	args := []string{"--database-url", url, "--email", "ops@u.edu", "--password", "pw", "--bcrypt-cost", "4"}
	require.NoError(t, run(args, &out))
	out.Reset()
	require.NoError(t, run(args, &out))
	require.Equal(t, "admin already exists\n", out.String())
}
