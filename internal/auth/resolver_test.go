package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"thesisarchive/internal/model"
)

func newTestResolver(t *testing.T, store *fakeStore) (*Resolver, *Codec) {
	t.Helper()
	codec, err := NewCodec("secret", "issuer", time.Hour)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(store, codec, logger), codec
}

func adminWithoutHash(id, email string) model.AdminAccount {
	return model.AdminAccount{ID: id, Email: email, Name: "No Hash", Role: model.RoleAdmin}
}

func TestResolveUsesCurrentRow(t *testing.T) {
	store := newFakeStore()
	store.addStudent(t, "s1", "s@u.edu", "abc123")
	resolver, _ := newTestResolver(t, store)
	claims := &Claims{Role: string(RoleStudent)}
	claims.Subject = "s1"

	student := store.students["s1"]
	student.Name = "Renamed"
	store.students["s1"] = student

	identity := resolver.Resolve(context.Background(), claims)
	require.NotNil(t, identity)
	require.Equal(t, "Renamed", identity.Name)
	require.Equal(t, RoleStudent, identity.Role)

	delete(store.students, "s1")
	require.Nil(t, resolver.Resolve(context.Background(), claims))
}

func TestResolveStoreErrorIsAnonymous(t *testing.T) {
	store := newFakeStore()
	store.err = errStoreDown
	resolver, _ := newTestResolver(t, store)
	claims := &Claims{Role: string(RoleAdmin)}
	claims.Subject = "a1"

	require.Nil(t, resolver.Resolve(context.Background(), claims))
}

func TestResolveRoleSelectsStore(t *testing.T) {
	store := newFakeStore()
	store.addStudent(t, "shared-id", "s@u.edu", "abc123")
	resolver, _ := newTestResolver(t, store)

	claims := &Claims{Role: string(RoleAdmin)}
	claims.Subject = "shared-id"
	require.Nil(t, resolver.Resolve(context.Background(), claims), "admin claim must not resolve a student row")
}

func TestRoleScopedResolutionIsAsymmetric(t *testing.T) {
	store := newFakeStore()
	store.addAdmin(t, "a1", "a@u.edu", "secret")
	store.addStudent(t, "s1", "s@u.edu", "abc123")
	resolver, codec := newTestResolver(t, store)
	ctx := context.Background()

	adminToken, err := codec.Issue(Identity{ID: "a1", Role: RoleAdmin})
	require.NoError(t, err)
	adminClaims, ok := codec.Decode(adminToken)
	require.True(t, ok)

	require.NotNil(t, resolver.ResolveAdmin(ctx, adminClaims))
	require.Nil(t, resolver.ResolveStudent(ctx, adminClaims))

	studentClaims := &Claims{Role: string(RoleStudent)}
	studentClaims.Subject = "s1"
	require.Nil(t, resolver.ResolveAdmin(ctx, studentClaims))
	require.NotNil(t, resolver.ResolveStudent(ctx, studentClaims))

	// any role other than ADMIN is treated as a student
	userClaims := &Claims{Role: model.RoleUser}
	userClaims.Subject = "s1"
	identity := resolver.ResolveStudent(ctx, userClaims)
	require.NotNil(t, identity)
	require.Equal(t, RoleStudent, identity.Role)

	require.Nil(t, resolver.ResolveAdmin(ctx, nil))
	require.Nil(t, resolver.ResolveStudent(ctx, nil))
}

func TestResolveToken(t *testing.T) {
	store := newFakeStore()
	store.addStudent(t, "s1", "s@u.edu", "abc123")
	resolver, codec := newTestResolver(t, store)

	token, err := codec.Issue(Identity{ID: "s1", Role: RoleStudent})
	require.NoError(t, err)

	identity, claims := resolver.ResolveToken(context.Background(), token)
	require.NotNil(t, identity)
	require.Equal(t, "s1", claims.Subject)

	identity, claims = resolver.ResolveToken(context.Background(), token+"x")
	require.Nil(t, identity)
	require.Nil(t, claims)
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, IdentityFromContext(ctx))

	identity := &Identity{ID: "a1", Role: RoleAdmin}
	ctx = WithSession(ctx, Session{Identity: identity})
	require.Same(t, identity, IdentityFromContext(ctx))
	require.True(t, IdentityFromContext(ctx).IsAdmin())
	require.Equal(t, "/admin", RoleAdmin.HomePath())
	require.Equal(t, "/student/dashboard", Role("USER").HomePath())
}
