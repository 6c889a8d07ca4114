package auth

import "thesisarchive/internal/model"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// HomePath is where an authenticated caller of this role lands.
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin"
	}
	return "/student/dashboard"
}

// Identity is the role-tagged view of the caller, valid for one request.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type AccountKind int

const (
	KindAdmin AccountKind = iota + 1
	KindStudent
)

// Account is either an admin or a student row. Exactly one of the
// variants is set.
type Account struct {
	kind    AccountKind
	admin   model.AdminAccount
	student model.StudentAccount
}

func AdminAccount(admin model.AdminAccount) Account {
	return Account{kind: KindAdmin, admin: admin}
}

func StudentAccount(student model.StudentAccount) Account {
	return Account{kind: KindStudent, student: student}
}

func (a Account) Kind() AccountKind { return a.kind }

func (a Account) Admin() (model.AdminAccount, bool) {
	return a.admin, a.kind == KindAdmin
}

func (a Account) Student() (model.StudentAccount, bool) {
	return a.student, a.kind == KindStudent
}

func (a Account) PasswordHash() string {
	if a.kind == KindAdmin {
		return a.admin.PasswordHash
	}
	return a.student.PasswordHash
}

// Identity reports students as STUDENT whatever role their row carries.
func (a Account) Identity() Identity {
	switch a.kind {
	case KindAdmin:
		return Identity{ID: a.admin.ID, Email: a.admin.Email, Name: a.admin.Name, Role: RoleAdmin}
	case KindStudent:
		return Identity{ID: a.student.ID, Email: a.student.Email, Name: a.student.Name, Role: RoleStudent}
	default:
		return Identity{}
	}
}
