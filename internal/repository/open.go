package repository

import (
	"context"
	"strings"
	"time"

	"thesisarchive/internal/db"
	"thesisarchive/internal/model"
)

// Backend is the full persistence surface shared by the Postgres and SQLite stores.
type Backend interface {
	Migrate(ctx context.Context) error
	Close()

	GetAdminByEmail(ctx context.Context, email string) (model.AdminAccount, error)
	GetAdminByID(ctx context.Context, id string) (model.AdminAccount, error)
	GetAdminByAdminID(ctx context.Context, adminID string) (model.AdminAccount, error)
	CreateAdmin(ctx context.Context, admin model.AdminAccount) error
	MarkAdminEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error

	GetStudentByEmail(ctx context.Context, email string) (model.StudentAccount, error)
	GetStudentByID(ctx context.Context, id string) (model.StudentAccount, error)
	GetStudentByStudentID(ctx context.Context, studentID string) (model.StudentAccount, error)
	CreateStudent(ctx context.Context, student model.StudentAccount) error

	CreateThesis(ctx context.Context, thesis model.Thesis) error
	ListTheses(ctx context.Context, filter model.ThesisFilter) ([]model.Thesis, int, error)
	ListPendingTheses(ctx context.Context) ([]model.Thesis, error)
	ApproveThesis(ctx context.Context, id, adminID string, approvedAt time.Time) (model.Thesis, error)
	RejectThesis(ctx context.Context, id, reason string, rejectedAt time.Time) (model.Thesis, error)
	GetThesis(ctx context.Context, id string) (model.Thesis, error)
	UpdateThesis(ctx context.Context, thesis model.Thesis) error
	DeleteThesis(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (model.Category, error)
	CreateCategory(ctx context.Context, category model.Category) error
	UpdateCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*SQLiteStore)(nil)
)

// Open selects the backend from the URL: "sqlite:<dsn>" and "file:<path>"
// use the embedded store, anything else is handed to pgxpool.
func Open(ctx context.Context, url string) (Backend, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:"):
		return NewSQLiteStore(strings.TrimPrefix(url, "sqlite:"))
	case strings.HasPrefix(url, "file:"):
		return NewSQLiteStore(url)
	}
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}
