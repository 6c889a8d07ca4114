package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"thesisarchive/internal/auth"
	"thesisarchive/internal/crypto"
	"thesisarchive/internal/model"
	"thesisarchive/internal/policy"
	"thesisarchive/internal/repository"
	"thesisarchive/internal/verification"
)

const defaultAdminPosition = "Admin Officer"

var defaultAdminPermissions = []string{"manage_thesis", "manage_categories"}

var registerMessages = map[string]string{
	"invalid_request":   "Invalid request",
	"missing_fields":    "Missing required fields",
	"invalid_birthdate": "Birthdate must use the YYYY-MM-DD format",
	"email_taken":       "An account with this email already exists",
	"student_id_taken":  "Student ID already exists",
	"admin_id_taken":    "Admin ID already exists",
	"account_exists":    "This account already exists",
	"server_error":      "Something went wrong, please try again",
}

type registerStudentRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	StudentID  string `json:"studentId"`
	Birthdate  string `json:"birthdate"`
	College    string `json:"college"`
	Department string `json:"department"`
	Course     string `json:"course"`
}

type registerAdminRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	AdminID    string `json:"adminId"`
	Birthdate  string `json:"birthdate"`
	College    string `json:"college"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

type studentSummary struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	StudentID  string  `json:"studentId"`
	Birthdate  *string `json:"birthdate,omitempty"`
	College    *string `json:"college,omitempty"`
	Department *string `json:"department,omitempty"`
	Course     *string `json:"course,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

type adminSummary struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	AdminID       *string  `json:"adminId,omitempty"`
	Birthdate     *string  `json:"birthdate,omitempty"`
	College       *string  `json:"college,omitempty"`
	Department    *string  `json:"department,omitempty"`
	Position      string   `json:"position"`
	Permissions   []string `json:"permissions"`
	Status        string   `json:"status"`
	EmailVerified bool     `json:"emailVerified"`
	CreatedAt     string   `json:"createdAt"`
}

// registrationError carries the status and snake_case code of a rejected
// registration.
type registrationError struct {
	status int
	code   string
}

func (e *registrationError) Error() string { return e.code }

func rejectRegistration(status int, code string) error {
	return &registrationError{status: status, code: code}
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	jsonClient := isJSONRequest(r)

	var req registerStudentRequest
	if jsonClient {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.renderRegister(w, http.StatusBadRequest, auth.RoleStudent, nil, registerMessages["invalid_request"])
			return
		}
		req = registerStudentRequest{
			Name:       r.PostForm.Get("name"),
			Email:      r.PostForm.Get("email"),
			Password:   r.PostForm.Get("password"),
			StudentID:  r.PostForm.Get("studentId"),
			Birthdate:  r.PostForm.Get("birthdate"),
			College:    r.PostForm.Get("college"),
			Department: r.PostForm.Get("department"),
			Course:     r.PostForm.Get("course"),
		}
	}

	student, err := s.registerStudent(r.Context(), req)
	if err != nil {
		s.registrationFailed(w, r, auth.RoleStudent, jsonClient, err, map[string]string{
			"name":       req.Name,
			"email":      req.Email,
			"studentId":  req.StudentID,
			"birthdate":  req.Birthdate,
			"college":    req.College,
			"department": req.Department,
			"course":     req.Course,
		})
		return
	}

	s.logger.InfoContext(r.Context(), "student registered", "student_id", student.ID)
	if !jsonClient {
		http.Redirect(w, r, policy.StudentLoginPath+"?registered=1", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    mapStudentSummary(student),
	})
}

func (s *Server) registerStudent(ctx context.Context, req registerStudentRequest) (model.StudentAccount, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.StudentID == "" {
		return model.StudentAccount{}, rejectRegistration(http.StatusBadRequest, "missing_fields")
	}
	birthdate, err := parseOptionalDate(req.Birthdate)
	if err != nil {
		return model.StudentAccount{}, rejectRegistration(http.StatusBadRequest, "invalid_birthdate")
	}

	if err := s.ensureEmailAvailable(ctx, req.Email); err != nil {
		return model.StudentAccount{}, err
	}
	if _, err := s.store.GetStudentByStudentID(ctx, req.StudentID); err == nil {
		return model.StudentAccount{}, rejectRegistration(http.StatusBadRequest, "student_id_taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.StudentAccount{}, err
	}

	hash, err := crypto.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.StudentAccount{}, err
	}

	now := s.now().UTC()
	student := model.StudentAccount{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         model.RoleUser,
		StudentID:    req.StudentID,
		Birthdate:    birthdate,
		College:      optionalString(req.College),
		Department:   optionalString(req.Department),
		Course:       optionalString(req.Course),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.StudentAccount{}, rejectRegistration(http.StatusConflict, "account_exists")
		}
		return model.StudentAccount{}, err
	}
	return student, nil
}

func (s *Server) handleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	jsonClient := isJSONRequest(r)

	var req registerAdminRequest
	if jsonClient {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.renderRegister(w, http.StatusBadRequest, auth.RoleAdmin, nil, registerMessages["invalid_request"])
			return
		}
		req = registerAdminRequest{
			Name:       r.PostForm.Get("name"),
			Email:      r.PostForm.Get("email"),
			Password:   r.PostForm.Get("password"),
			AdminID:    r.PostForm.Get("adminId"),
			Birthdate:  r.PostForm.Get("birthdate"),
			College:    r.PostForm.Get("college"),
			Department: r.PostForm.Get("department"),
			Position:   r.PostForm.Get("position"),
		}
	}

	admin, err := s.registerAdmin(r.Context(), req)
	if err != nil {
		s.registrationFailed(w, r, auth.RoleAdmin, jsonClient, err, map[string]string{
			"name":       req.Name,
			"email":      req.Email,
			"adminId":    req.AdminID,
			"birthdate":  req.Birthdate,
			"college":    req.College,
			"department": req.Department,
			"position":   req.Position,
		})
		return
	}

	s.logger.InfoContext(r.Context(), "admin registered", "admin_id", admin.ID)
	s.sendVerification(r.Context(), admin)

	if !jsonClient {
		http.Redirect(w, r, policy.AdminLoginPath+"?registered=1", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    mapAdminSummary(admin),
	})
}

func (s *Server) registerAdmin(ctx context.Context, req registerAdminRequest) (model.AdminAccount, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.AdminID = strings.TrimSpace(req.AdminID)
	if req.Name == "" || req.Email == "" || req.Password == "" || req.AdminID == "" {
		return model.AdminAccount{}, rejectRegistration(http.StatusBadRequest, "missing_fields")
	}
	birthdate, err := parseOptionalDate(req.Birthdate)
	if err != nil {
		return model.AdminAccount{}, rejectRegistration(http.StatusBadRequest, "invalid_birthdate")
	}

	if err := s.ensureEmailAvailable(ctx, req.Email); err != nil {
		return model.AdminAccount{}, err
	}
	if _, err := s.store.GetAdminByAdminID(ctx, req.AdminID); err == nil {
		return model.AdminAccount{}, rejectRegistration(http.StatusBadRequest, "admin_id_taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.AdminAccount{}, err
	}

	hash, err := crypto.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.AdminAccount{}, err
	}

	position := strings.TrimSpace(req.Position)
	if position == "" {
		position = defaultAdminPosition
	}
	adminID := req.AdminID
	now := s.now().UTC()
	admin := model.AdminAccount{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         model.RoleAdmin,
		AdminID:      &adminID,
		Birthdate:    birthdate,
		College:      optionalString(req.College),
		Department:   optionalString(req.Department),
		Position:     position,
		Permissions:  append([]string(nil), defaultAdminPermissions...),
		Status:       model.AdminStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.AdminAccount{}, rejectRegistration(http.StatusConflict, "account_exists")
		}
		return model.AdminAccount{}, err
	}
	return admin, nil
}

// ensureEmailAvailable rejects an email held by either account kind.
func (s *Server) ensureEmailAvailable(ctx context.Context, email string) error {
	if _, err := s.store.GetAdminByEmail(ctx, email); err == nil {
		return rejectRegistration(http.StatusBadRequest, "email_taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.store.GetStudentByEmail(ctx, email); err == nil {
		return rejectRegistration(http.StatusBadRequest, "email_taken")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// sendVerification never fails the registration; problems are only logged.
func (s *Server) sendVerification(ctx context.Context, admin model.AdminAccount) {
	if !s.verifications.Enabled() {
		s.logger.WarnContext(ctx, "email verification disabled, skipping", "admin_id", admin.ID)
		return
	}
	token, err := s.verifications.Issue(ctx, verification.Record{
		AdminID:  admin.ID,
		Email:    admin.Email,
		IssuedAt: s.now().UTC().Unix(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "store verification token", "admin_id", admin.ID, "error", err)
		return
	}
	if err := s.notifier.SendVerificationEmail(ctx, admin.Email, token, admin.Name); err != nil {
		s.logger.ErrorContext(ctx, "send verification email", "admin_id", admin.ID, "error", err)
	}
}

func (s *Server) registrationFailed(w http.ResponseWriter, r *http.Request, role auth.Role, jsonClient bool, err error, form map[string]string) {
	status, code := http.StatusInternalServerError, "server_error"
	var rejected *registrationError
	if errors.As(err, &rejected) {
		status, code = rejected.status, rejected.code
	} else {
		s.logger.ErrorContext(r.Context(), "registration failed", "role", string(role), "error", err)
	}

	if jsonClient {
		writeError(w, status, code)
		return
	}
	message, ok := registerMessages[code]
	if !ok {
		message = registerMessages["server_error"]
	}
	s.renderRegister(w, status, role, form, message)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if !s.verifications.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "verification_unavailable")
		return
	}

	record, err := s.verifications.Consume(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, verification.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "invalid_token")
			return
		}
		s.logger.ErrorContext(r.Context(), "consume verification token", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if err := s.store.MarkAdminEmailVerified(r.Context(), record.AdminID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "invalid_token")
			return
		}
		s.logger.ErrorContext(r.Context(), "mark email verified", "admin_id", record.AdminID, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func mapStudentSummary(student model.StudentAccount) studentSummary {
	return studentSummary{
		ID:         student.ID,
		Email:      student.Email,
		Name:       student.Name,
		Role:       student.Role,
		StudentID:  student.StudentID,
		Birthdate:  formatOptionalDate(student.Birthdate),
		College:    student.College,
		Department: student.Department,
		Course:     student.Course,
		CreatedAt:  student.CreatedAt.Format(time.RFC3339),
	}
}

func mapAdminSummary(admin model.AdminAccount) adminSummary {
	return adminSummary{
		ID:            admin.ID,
		Email:         admin.Email,
		Name:          admin.Name,
		Role:          admin.Role,
		AdminID:       admin.AdminID,
		Birthdate:     formatOptionalDate(admin.Birthdate),
		College:       admin.College,
		Department:    admin.Department,
		Position:      admin.Position,
		Permissions:   admin.Permissions,
		Status:        admin.Status,
		EmailVerified: admin.EmailVerifiedAt != nil,
		CreatedAt:     admin.CreatedAt.Format(time.RFC3339),
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// parseOptionalDate accepts YYYY-MM-DD or RFC 3339; empty means unset.
func parseOptionalDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseDate(value string) (time.Time, error) {
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func formatOptionalDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format("2006-01-02")
	return &formatted
}
