package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// IdentityClient calls IdentityQueryService with the JSON codec.
type IdentityClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{cc: cc}
}

// Dial connects to an identity service and attaches the service token to
// every call. It blocks until the connection is ready or timeout elapses.
func Dial(ctx context.Context, addr, serviceToken string, timeout time.Duration, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if serviceToken == "" {
		return nil, errServiceTokenRequired
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithUnaryInterceptor(serviceAuthUnaryClientInterceptor(serviceToken)),
	}, opts...)
	return grpc.DialContext(ctx, addr, opts...)
}

func (c *IdentityClient) ResolveSession(ctx context.Context, req *ResolveSessionRequest, opts ...grpc.CallOption) (*ResolveSessionResponse, error) {
	out := new(ResolveSessionResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, resolveSessionMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IdentityClient) GetAccountLite(ctx context.Context, req *GetAccountLiteRequest, opts ...grpc.CallOption) (*GetAccountLiteResponse, error) {
	out := new(GetAccountLiteResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, getAccountLiteMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
