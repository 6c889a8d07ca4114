package auth

import (
	"context"
	"errors"
	"fmt"

	"thesisarchive/internal/crypto"
	"thesisarchive/internal/model"
	"thesisarchive/internal/repository"
)

// ErrInvalidCredentials is the only failure a caller may show to the user.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AccountStore interface {
	GetAdminByEmail(ctx context.Context, email string) (model.AdminAccount, error)
	GetAdminByID(ctx context.Context, id string) (model.AdminAccount, error)
	GetStudentByEmail(ctx context.Context, email string) (model.StudentAccount, error)
	GetStudentByID(ctx context.Context, id string) (model.StudentAccount, error)
}

type Verifier struct {
	store AccountStore
}

func NewVerifier(store AccountStore) *Verifier {
	return &Verifier{store: store}
}

// Verify checks the admin store first and only falls back to students when
// no admin matched.
func (v *Verifier) Verify(ctx context.Context, email, password string) (Identity, error) {
	if email == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	admin, err := v.store.GetAdminByEmail(ctx, email)
	switch {
	case err == nil:
		if matches(admin.PasswordHash, password) {
			return AdminAccount(admin).Identity(), nil
		}
	case !errors.Is(err, repository.ErrNotFound):
		return Identity{}, fmt.Errorf("admin lookup: %w", err)
	}

	student, err := v.store.GetStudentByEmail(ctx, email)
	switch {
	case err == nil:
		if matches(student.PasswordHash, password) {
			return StudentAccount(student).Identity(), nil
		}
	case !errors.Is(err, repository.ErrNotFound):
		return Identity{}, fmt.Errorf("student lookup: %w", err)
	}

	return Identity{}, ErrInvalidCredentials
}

func matches(hash, password string) bool {
	return hash != "" && crypto.CheckPassword(hash, password) == nil
}
