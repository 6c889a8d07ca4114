package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"thesisarchive/internal/auth"
	"thesisarchive/internal/repository"
)

const (
	identityServiceName  = "thesisarchive.identity.v1.IdentityQueryService"
	resolveSessionMethod = "/" + identityServiceName + "/ResolveSession"
	getAccountLiteMethod = "/" + identityServiceName + "/GetAccountLite"
	ScopeAdmin           = "admin"
	ScopeStudent         = "student"
)

type ResolveSessionRequest struct {
	Token string `json:"token"`
	// Scope is "admin", "student" or empty for any role.
	Scope string `json:"scope,omitempty"`
}

type ResolveSessionResponse struct {
	Identity  auth.Identity `json:"identity"`
	ExpiresAt string        `json:"expires_at,omitempty"`
}

type GetAccountLiteRequest struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type AccountLite struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	AdminID       string   `json:"admin_id,omitempty"`
	StudentID     string   `json:"student_id,omitempty"`
	Position      string   `json:"position,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
	Status        string   `json:"status,omitempty"`
	EmailVerified bool     `json:"email_verified"`
}

type GetAccountLiteResponse struct {
	Account AccountLite `json:"account"`
}

// IdentityQueryServiceServer is implemented by IdentityServer.
type IdentityQueryServiceServer interface {
	ResolveSession(context.Context, *ResolveSessionRequest) (*ResolveSessionResponse, error)
	GetAccountLite(context.Context, *GetAccountLiteRequest) (*GetAccountLiteResponse, error)
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: identityServiceName,
	HandlerType: (*IdentityQueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ResolveSession", Handler: resolveSessionHandler},
		{MethodName: "GetAccountLite", Handler: getAccountLiteHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "thesisarchive/identity/v1/identity.proto",
}

func RegisterIdentityQueryServiceServer(registrar grpc.ServiceRegistrar, srv IdentityQueryServiceServer) {
	registrar.RegisterService(&identityServiceDesc, srv)
}

func resolveSessionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ResolveSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityQueryServiceServer).ResolveSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: resolveSessionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IdentityQueryServiceServer).ResolveSession(ctx, req.(*ResolveSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getAccountLiteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetAccountLiteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityQueryServiceServer).GetAccountLite(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getAccountLiteMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IdentityQueryServiceServer).GetAccountLite(ctx, req.(*GetAccountLiteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type IdentityServer struct {
	resolver *auth.Resolver
}

func NewIdentityServer(resolver *auth.Resolver) *IdentityServer {
	return &IdentityServer{resolver: resolver}
}

func (s *IdentityServer) ResolveSession(ctx context.Context, req *ResolveSessionRequest) (*ResolveSessionResponse, error) {
	if req.Token == "" {
		return nil, status.Error(codes.InvalidArgument, "token required")
	}
	claims, ok := s.resolver.DecodeToken(req.Token)
	if !ok {
		return nil, status.Error(codes.NotFound, "session not found")
	}

	var identity *auth.Identity
	switch strings.ToLower(req.Scope) {
	case "":
		identity = s.resolver.Resolve(ctx, claims)
	case ScopeAdmin:
		identity = s.resolver.ResolveAdmin(ctx, claims)
	case ScopeStudent:
		identity = s.resolver.ResolveStudent(ctx, claims)
	default:
		return nil, status.Error(codes.InvalidArgument, "invalid scope")
	}
	if identity == nil {
		return nil, status.Error(codes.NotFound, "session not found")
	}

	resp := &ResolveSessionResponse{Identity: *identity}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	return resp, nil
}

func (s *IdentityServer) GetAccountLite(ctx context.Context, req *GetAccountLiteRequest) (*GetAccountLiteResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	account, err := s.resolver.Lookup(ctx, req.ID, auth.Role(strings.ToUpper(req.Role)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "account not found")
		}
		return nil, status.Error(codes.Internal, "lookup failed")
	}
	return &GetAccountLiteResponse{Account: accountLite(account)}, nil
}

func accountLite(account auth.Account) AccountLite {
	identity := account.Identity()
	lite := AccountLite{
		ID:    identity.ID,
		Email: identity.Email,
		Name:  identity.Name,
		Role:  string(identity.Role),
	}
	if admin, ok := account.Admin(); ok {
		if admin.AdminID != nil {
			lite.AdminID = *admin.AdminID
		}
		lite.Position = admin.Position
		lite.Permissions = admin.Permissions
		lite.Status = admin.Status
		lite.EmailVerified = admin.EmailVerifiedAt != nil
	}
	if student, ok := account.Student(); ok {
		lite.StudentID = student.StudentID
		lite.EmailVerified = student.EmailVerifiedAt != nil
	}
	return lite
}
