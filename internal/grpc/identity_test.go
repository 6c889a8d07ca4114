package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"thesisarchive/internal/auth"
	"thesisarchive/internal/model"
	"thesisarchive/internal/repository"
)

const testServiceToken = "service-secret"

type identityFixture struct {
	client  *IdentityClient
	codec   *auth.Codec
	store   *repository.SQLiteStore
	dial    func(token string) *IdentityClient
	rawConn func(t *testing.T) *grpc.ClientConn
	adminID string
	student string
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	ctx := context.Background()

	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(ctx))

	now := time.Now().UTC()
	adminCode := "ADM-1"
	require.NoError(t, store.CreateAdmin(ctx, model.AdminAccount{
		ID: "admin-1", Email: "a@u.edu", PasswordHash: "x", Name: "Ada", Role: model.RoleAdmin,
		AdminID: &adminCode, Position: "Registrar", Permissions: []string{"manage_thesis"},
		Status: model.AdminStatusActive, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.CreateStudent(ctx, model.StudentAccount{
		ID: "student-1", Email: "s@u.edu", PasswordHash: "x", Name: "Sam", Role: model.RoleUser,
		StudentID: "2024-0001", CreatedAt: now, UpdatedAt: now,
	}))

	codec, err := auth.NewCodec("test-secret", "test-issuer", time.Hour)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := auth.NewResolver(store, codec, logger)

	interceptor, err := NewServiceAuthUnaryInterceptor(testServiceToken, logger)
	require.NoError(t, err)
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	RegisterIdentityQueryServiceServer(server, NewIdentityServer(resolver))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	dial := func(token string) *IdentityClient {
		conn, err := Dial(ctx, "bufnet", token, 5*time.Second,
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return listener.DialContext(ctx)
			}),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return NewIdentityClient(conn)
	}

	rawConn := func(t *testing.T) *grpc.ClientConn {
		conn, err := grpc.DialContext(ctx, "bufnet",
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return listener.DialContext(ctx)
			}),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	return &identityFixture{
		client:  dial(testServiceToken),
		rawConn: rawConn,
		codec:   codec,
		store:   store,
		dial:    dial,
		adminID: "admin-1",
		student: "student-1",
	}
}

func (f *identityFixture) token(t *testing.T, id string, role auth.Role) string {
	t.Helper()
	token, err := f.codec.Issue(auth.Identity{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, status.Code(err), err.Error())
}

func TestServiceAuthInterceptorRequiresToken(t *testing.T) {
	_, err := NewServiceAuthUnaryInterceptor("", nil)
	require.Error(t, err)

	_, err = Dial(context.Background(), "bufnet", "", time.Second)
	require.ErrorIs(t, err, errServiceTokenRequired)
}

func TestDialHonoursTimeout(t *testing.T) {
	unreachable := grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})

	start := time.Now()
	conn, err := Dial(context.Background(), "bufnet", testServiceToken, 100*time.Millisecond, unreachable)
	if conn != nil {
		_ = conn.Close()
	}
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestServiceTokenIsChecked(t *testing.T) {
	f := newIdentityFixture(t)

	_, err := f.dial("wrong").ResolveSession(context.Background(), &ResolveSessionRequest{Token: "x"})
	requireCode(t, err, codes.PermissionDenied)

	// a raw connection sends no token at all
	raw := NewIdentityClient(f.rawConn(t))
	_, err = raw.GetAccountLite(context.Background(), &GetAccountLiteRequest{ID: f.adminID, Role: "ADMIN"})
	requireCode(t, err, codes.Unauthenticated)
}

func TestResolveSession(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	resp, err := f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: f.token(t, f.adminID, auth.RoleAdmin)})
	require.NoError(t, err)
	require.Equal(t, auth.Identity{ID: "admin-1", Email: "a@u.edu", Name: "Ada", Role: auth.RoleAdmin}, resp.Identity)
	require.NotEmpty(t, resp.ExpiresAt)

	resp, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: f.token(t, f.student, auth.RoleStudent), Scope: ScopeStudent})
	require.NoError(t, err)
	require.Equal(t, auth.RoleStudent, resp.Identity.Role)
	require.Equal(t, "Sam", resp.Identity.Name)

	_, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: f.token(t, f.student, auth.RoleStudent), Scope: ScopeAdmin})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: f.token(t, f.adminID, auth.RoleAdmin), Scope: ScopeStudent})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: "not-a-token"})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: f.token(t, "gone", auth.RoleAdmin)})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{})
	requireCode(t, err, codes.InvalidArgument)

	_, err = f.client.ResolveSession(ctx, &ResolveSessionRequest{Token: f.token(t, f.adminID, auth.RoleAdmin), Scope: "registrar"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestGetAccountLite(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	resp, err := f.client.GetAccountLite(ctx, &GetAccountLiteRequest{ID: f.adminID, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "ADM-1", resp.Account.AdminID)
	require.Equal(t, "Registrar", resp.Account.Position)
	require.Equal(t, []string{"manage_thesis"}, resp.Account.Permissions)
	require.False(t, resp.Account.EmailVerified)

	require.NoError(t, f.store.MarkAdminEmailVerified(ctx, f.adminID, time.Now()))
	resp, err = f.client.GetAccountLite(ctx, &GetAccountLiteRequest{ID: f.adminID, Role: "ADMIN"})
	require.NoError(t, err)
	require.True(t, resp.Account.EmailVerified)

	resp, err = f.client.GetAccountLite(ctx, &GetAccountLiteRequest{ID: f.student, Role: "USER"})
	require.NoError(t, err)
	require.Equal(t, "STUDENT", resp.Account.Role)
	require.Equal(t, "2024-0001", resp.Account.StudentID)

	// the role picks the store, so an admin id looked up as a student is unknown
	_, err = f.client.GetAccountLite(ctx, &GetAccountLiteRequest{ID: f.adminID, Role: "STUDENT"})
	requireCode(t, err, codes.NotFound)

	_, err = f.client.GetAccountLite(ctx, &GetAccountLiteRequest{Role: "ADMIN"})
	requireCode(t, err, codes.InvalidArgument)
}
