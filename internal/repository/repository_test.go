package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"thesisarchive/internal/db"
	"thesisarchive/internal/model"
)

func openTestDB(t *testing.T) *Store {
	url := os.Getenv("THESIS_ARCHIVE_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("THESIS_ARCHIVE_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	store := NewStore(pool)
	if err := store.Migrate(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("migrate error: %v", err)
	}
	return store
}

func TestPostgresAccounts(t *testing.T) {
	store := openTestDB(t)
	if store == nil {
		return
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	suffix := time.Now().Format("150405.000000")

	admin := model.AdminAccount{
		ID:           uuid.NewString(),
		Email:        "admin." + suffix + "@example.local",
		PasswordHash: "hash",
		Name:         "Test Admin",
		Role:         model.RoleAdmin,
		Position:     "Admin Officer",
		Permissions:  []string{"manage_thesis"},
		Status:       model.AdminStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if err := store.CreateAdmin(ctx, admin); err == nil {
		t.Fatalf("expected duplicate error")
	}

	got, err := store.GetAdminByID(ctx, admin.ID)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if got.Email != admin.Email || len(got.Permissions) != 1 {
		t.Fatalf("unexpected admin: %+v", got)
	}

	if _, err := store.GetStudentByID(ctx, admin.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	thesis := model.Thesis{
		ID:              uuid.NewString(),
		Title:           "Pg thesis " + suffix,
		Abstract:        "abstract",
		AuthorName:      "Author",
		AdvisorName:     "Advisor",
		Department:      "CS",
		Program:         "BSCS",
		University:      "University",
		DegreeLevel:     "Bachelor",
		CategoryID:      "cs",
		Language:        "English",
		SubmissionDate:  now,
		PublicationYear: now.Year(),
		Status:          model.ThesisPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateThesis(ctx, thesis); err != nil {
		t.Fatalf("create thesis: %v", err)
	}
	approved, err := store.ApproveThesis(ctx, thesis.ID, admin.ID, now)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != model.ThesisApproved {
		t.Fatalf("expected APPROVED, got %s", approved.Status)
	}

	list, total, err := store.ListTheses(ctx, model.ThesisFilter{Search: suffix, Limit: 12})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected one match, got %d", total)
	}
}

func TestPostgresCategoriesAndThesisEdits(t *testing.T) {
	store := openTestDB(t)
	if store == nil {
		return
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	suffix := time.Now().Format("150405.000000")

	category := model.Category{
		ID:        uuid.NewString(),
		Name:      "Category " + suffix,
		Code:      "C" + suffix,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateCategory(ctx, category); err != nil {
		t.Fatalf("create category: %v", err)
	}
	dup := category
	dup.ID = uuid.NewString()
	if err := store.CreateCategory(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	thesis := model.Thesis{
		ID:              uuid.NewString(),
		Title:           "Edited thesis " + suffix,
		Abstract:        "Abstract",
		AuthorName:      "Author",
		AdvisorName:     "Advisor",
		Department:      "Dept",
		Program:         "Prog",
		University:      "Univ",
		DegreeLevel:     "BACHELOR",
		CategoryID:      category.ID,
		Language:        "English",
		SubmissionDate:  now,
		PublicationYear: now.Year(),
		Status:          model.ThesisPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateThesis(ctx, thesis); err != nil {
		t.Fatalf("create thesis: %v", err)
	}
	if err := store.DeleteCategory(ctx, category.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse, got %v", err)
	}
	got, err := store.GetCategory(ctx, category.ID)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if got.ThesisCount != 1 {
		t.Fatalf("expected one thesis in category, got %d", got.ThesisCount)
	}

	thesis.Title = "Renamed " + suffix
	thesis.PublicationYear = 2020
	if err := store.UpdateThesis(ctx, thesis); err != nil {
		t.Fatalf("update thesis: %v", err)
	}
	stored, err := store.GetThesis(ctx, thesis.ID)
	if err != nil {
		t.Fatalf("get thesis: %v", err)
	}
	if stored.Title != thesis.Title || stored.PublicationYear != 2020 {
		t.Fatalf("unexpected thesis: %+v", stored)
	}

	if err := store.DeleteThesis(ctx, thesis.ID); err != nil {
		t.Fatalf("delete thesis: %v", err)
	}
	if err := store.DeleteThesis(ctx, thesis.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteCategory(ctx, category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if err := store.DeleteCategory(ctx, category.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
