package auth

import (
	"context"
	"errors"
	"testing"

	"thesisarchive/internal/crypto"
	"thesisarchive/internal/model"
	"thesisarchive/internal/repository"
)

type fakeStore struct {
	admins   map[string]model.AdminAccount
	students map[string]model.StudentAccount
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{admins: map[string]model.AdminAccount{}, students: map[string]model.StudentAccount{}}
}

func (f *fakeStore) GetAdminByEmail(_ context.Context, email string) (model.AdminAccount, error) {
	if f.err != nil {
		return model.AdminAccount{}, f.err
	}
	for _, admin := range f.admins {
		if admin.Email == email {
			return admin, nil
		}
	}
	return model.AdminAccount{}, repository.ErrNotFound
}

func (f *fakeStore) GetAdminByID(_ context.Context, id string) (model.AdminAccount, error) {
	if f.err != nil {
		return model.AdminAccount{}, f.err
	}
	admin, ok := f.admins[id]
	if !ok {
		return model.AdminAccount{}, repository.ErrNotFound
	}
	return admin, nil
}

func (f *fakeStore) GetStudentByEmail(_ context.Context, email string) (model.StudentAccount, error) {
	if f.err != nil {
		return model.StudentAccount{}, f.err
	}
	for _, student := range f.students {
		if student.Email == email {
			return student, nil
		}
	}
	return model.StudentAccount{}, repository.ErrNotFound
}

func (f *fakeStore) GetStudentByID(_ context.Context, id string) (model.StudentAccount, error) {
	if f.err != nil {
		return model.StudentAccount{}, f.err
	}
	student, ok := f.students[id]
	if !ok {
		return model.StudentAccount{}, repository.ErrNotFound
	}
	return student, nil
}

func (f *fakeStore) addAdmin(t *testing.T, id, email, password string) {
	t.Helper()
	f.admins[id] = model.AdminAccount{ID: id, Email: email, Name: "Admin " + id, Role: model.RoleAdmin, PasswordHash: mustHash(t, password)}
}

func (f *fakeStore) addStudent(t *testing.T, id, email, password string) {
	t.Helper()
	f.students[id] = model.StudentAccount{ID: id, Email: email, Name: "Student " + id, Role: model.RoleUser, PasswordHash: mustHash(t, password)}
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := crypto.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	return hash
}

var errStoreDown = errors.New("store down")
