package auth

import (
	"context"
	"errors"
	"log/slog"

	"thesisarchive/internal/repository"
)

// Resolver turns decoded claims back into a live account. Claims are only a
// pointer: name and email always come from the current row.
type Resolver struct {
	store  AccountStore
	codec  *Codec
	logger *slog.Logger
}

func NewResolver(store AccountStore, codec *Codec, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, codec: codec, logger: logger}
}

// Lookup fetches the account for id from the store selected by role: ADMIN
// reads admins, every other value reads students.
func (r *Resolver) Lookup(ctx context.Context, id string, role Role) (Account, error) {
	if role == RoleAdmin {
		admin, err := r.store.GetAdminByID(ctx, id)
		if err != nil {
			return Account{}, err
		}
		return AdminAccount(admin), nil
	}
	student, err := r.store.GetStudentByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	return StudentAccount(student), nil
}

// Resolve returns nil when the account no longer exists or cannot be read.
func (r *Resolver) Resolve(ctx context.Context, claims *Claims) *Identity {
	if claims == nil || claims.Subject == "" {
		return nil
	}
	account, err := r.Lookup(ctx, claims.Subject, Role(claims.Role))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Error("resolve session account", "role", claims.Role, "error", err)
		}
		return nil
	}
	identity := account.Identity()
	return &identity
}

// ResolveAdmin requires the claimed role to be exactly ADMIN.
func (r *Resolver) ResolveAdmin(ctx context.Context, claims *Claims) *Identity {
	if claims == nil || Role(claims.Role) != RoleAdmin {
		return nil
	}
	return r.Resolve(ctx, claims)
}

// ResolveStudent accepts any role other than ADMIN.
func (r *Resolver) ResolveStudent(ctx context.Context, claims *Claims) *Identity {
	if claims == nil || Role(claims.Role) == RoleAdmin {
		return nil
	}
	return r.Resolve(ctx, claims)
}

// DecodeToken checks the token without touching the store.
func (r *Resolver) DecodeToken(token string) (*Claims, bool) {
	return r.codec.Decode(token)
}

// ResolveToken decodes and resolves in one step; invalid tokens are anonymous.
func (r *Resolver) ResolveToken(ctx context.Context, token string) (*Identity, *Claims) {
	claims, ok := r.DecodeToken(token)
	if !ok {
		return nil, nil
	}
	return r.Resolve(ctx, claims), claims
}
