package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"thesisarchive/internal/model"
)

const sqliteCategoryColumns = `c.id, c.name, c.code, c.description, c.is_active, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM theses t WHERE t.category_id = c.id)`

// SQLiteStore is the embedded backend used for local development and tests.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

func (s *SQLiteStore) GetAdminByEmail(ctx context.Context, email string) (model.AdminAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE email = ?`, email)
	return scanSQLiteAdmin(row)
}

func (s *SQLiteStore) GetAdminByID(ctx context.Context, id string) (model.AdminAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE id = ?`, id)
	return scanSQLiteAdmin(row)
}

func (s *SQLiteStore) GetAdminByAdminID(ctx context.Context, adminID string) (model.AdminAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE admin_id = ?`, adminID)
	return scanSQLiteAdmin(row)
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, admin model.AdminAccount) error {
	if admin.Permissions == nil {
		admin.Permissions = []string{}
	}
	permissions, err := json.Marshal(admin.Permissions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admin_accounts (id, email, password_hash, name, role, admin_id, birthdate, college, department,
			position, permissions, status, email_verified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, admin.ID, admin.Email, admin.PasswordHash, admin.Name, admin.Role, admin.AdminID, millisPtr(admin.Birthdate),
		admin.College, admin.Department, admin.Position, string(permissions), admin.Status,
		millisPtr(admin.EmailVerifiedAt), admin.CreatedAt.UnixMilli(), admin.UpdatedAt.UnixMilli())
	return mapSQLiteError(err)
}

func (s *SQLiteStore) MarkAdminEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE admin_accounts SET email_verified_at = ?, updated_at = ? WHERE id = ?
	`, verifiedAt.UnixMilli(), verifiedAt.UnixMilli(), id)
	return checkUpdated(res, err)
}

func (s *SQLiteStore) GetStudentByEmail(ctx context.Context, email string) (model.StudentAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM student_accounts WHERE email = ?`, email)
	return scanSQLiteStudent(row)
}

func (s *SQLiteStore) GetStudentByID(ctx context.Context, id string) (model.StudentAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM student_accounts WHERE id = ?`, id)
	return scanSQLiteStudent(row)
}

func (s *SQLiteStore) GetStudentByStudentID(ctx context.Context, studentID string) (model.StudentAccount, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM student_accounts WHERE student_id = ?`, studentID)
	return scanSQLiteStudent(row)
}

func (s *SQLiteStore) CreateStudent(ctx context.Context, student model.StudentAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_accounts (id, email, password_hash, name, role, student_id, birthdate, college,
			department, course, email_verified_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, student.ID, student.Email, student.PasswordHash, student.Name, student.Role, student.StudentID,
		millisPtr(student.Birthdate), student.College, student.Department, student.Course,
		millisPtr(student.EmailVerifiedAt), student.CreatedAt.UnixMilli(), student.UpdatedAt.UnixMilli())
	return mapSQLiteError(err)
}

func (s *SQLiteStore) CreateThesis(ctx context.Context, thesis model.Thesis) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO theses (`+thesisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, thesis.ID, thesis.Title, thesis.Abstract, thesis.AuthorName, thesis.AuthorEmail, thesis.StudentID,
		thesis.AdvisorName, thesis.Department, thesis.Program, thesis.University, thesis.DegreeLevel,
		thesis.CategoryID, thesis.Language, thesis.SubmissionDate.UnixMilli(), millisPtr(thesis.DefenseDate),
		thesis.PublicationYear, thesis.Status, millisPtr(thesis.ApprovalDate), thesis.ApprovedBy,
		thesis.RejectionReason, thesis.UploadedBy, thesis.DownloadCount, thesis.ViewCount,
		thesis.CreatedAt.UnixMilli(), thesis.UpdatedAt.UnixMilli())
	return mapSQLiteError(err)
}

func (s *SQLiteStore) ListTheses(ctx context.Context, filter model.ThesisFilter) ([]model.Thesis, int, error) {
	where, args := thesisWhere(filter, func(int) string { return "?" }, "LIKE")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM theses%s ORDER BY %s LIMIT ? OFFSET ?`,
		thesisColumns, where, thesisOrderBy(filter.Sort))
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	theses, err := collectSQLiteTheses(rows)
	if err != nil {
		return nil, 0, err
	}
	return theses, total, nil
}

func (s *SQLiteStore) ListPendingTheses(ctx context.Context) ([]model.Thesis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+thesisColumns+` FROM theses WHERE status = ? ORDER BY submission_date DESC
	`, model.ThesisPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSQLiteTheses(rows)
}

func (s *SQLiteStore) ApproveThesis(ctx context.Context, id, adminID string, approvedAt time.Time) (model.Thesis, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE theses
		SET status = ?, approval_date = ?, approved_by = ?, rejection_reason = NULL, updated_at = ?
		WHERE id = ?
	`, model.ThesisApproved, approvedAt.UnixMilli(), adminID, approvedAt.UnixMilli(), id)
	if err := checkUpdated(res, err); err != nil {
		return model.Thesis{}, err
	}
	return s.GetThesis(ctx, id)
}

func (s *SQLiteStore) RejectThesis(ctx context.Context, id, reason string, rejectedAt time.Time) (model.Thesis, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE theses
		SET status = ?, rejection_reason = ?, approval_date = NULL, approved_by = NULL, updated_at = ?
		WHERE id = ?
	`, model.ThesisRejected, reason, rejectedAt.UnixMilli(), id)
	if err := checkUpdated(res, err); err != nil {
		return model.Thesis{}, err
	}
	return s.GetThesis(ctx, id)
}

func (s *SQLiteStore) GetThesis(ctx context.Context, id string) (model.Thesis, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+thesisColumns+` FROM theses WHERE id = ?`, id)
	return scanSQLiteThesis(row)
}

// UpdateThesis overwrites every editable column of the thesis with the given id.
func (s *SQLiteStore) UpdateThesis(ctx context.Context, thesis model.Thesis) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE theses
		SET title = ?, abstract = ?, author_name = ?, author_email = ?, student_id = ?,
			advisor_name = ?, department = ?, program = ?, university = ?, degree_level = ?,
			category_id = ?, language = ?, submission_date = ?, defense_date = ?,
			publication_year = ?, status = ?, approval_date = ?, approved_by = ?,
			rejection_reason = ?, updated_at = ?
		WHERE id = ?
	`, thesis.Title, thesis.Abstract, thesis.AuthorName, thesis.AuthorEmail, thesis.StudentID,
		thesis.AdvisorName, thesis.Department, thesis.Program, thesis.University, thesis.DegreeLevel,
		thesis.CategoryID, thesis.Language, thesis.SubmissionDate.UnixMilli(), millisPtr(thesis.DefenseDate),
		thesis.PublicationYear, thesis.Status, millisPtr(thesis.ApprovalDate), thesis.ApprovedBy,
		thesis.RejectionReason, thesis.UpdatedAt.UnixMilli(), thesis.ID)
	return checkUpdated(res, mapSQLiteError(err))
}

func (s *SQLiteStore) DeleteThesis(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM theses WHERE id = ?`, id)
	return checkUpdated(res, err)
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteCategoryColumns+` FROM categories c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		category, err := scanSQLiteCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (model.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteCategoryColumns+` FROM categories c WHERE c.id = ?`, id)
	return scanSQLiteCategory(row)
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, category model.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, code, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, category.ID, category.Name, category.Code, category.Description, category.IsActive,
		category.CreatedAt.UnixMilli(), category.UpdatedAt.UnixMilli())
	return mapSQLiteError(err)
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, category model.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, code = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, category.Name, category.Code, category.Description, category.IsActive,
		category.UpdatedAt.UnixMilli(), category.ID)
	return checkUpdated(res, mapSQLiteError(err))
}

// DeleteCategory removes the category unless a thesis still references it.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM categories
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM theses WHERE category_id = categories.id)
	`, id)
	err = checkUpdated(res, err)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = ?)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrInUse
	}
	return ErrNotFound
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteAdmin(row rowScanner) (model.AdminAccount, error) {
	var (
		admin                        model.AdminAccount
		adminID, college, department sql.NullString
		permissions                  string
		birthdate, verifiedAt        sql.NullInt64
		createdAt, updatedAt         int64
	)
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Name,
		&admin.Role,
		&adminID,
		&birthdate,
		&college,
		&department,
		&admin.Position,
		&permissions,
		&admin.Status,
		&verifiedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.AdminAccount{}, mapSQLiteError(err)
	}
	if err := json.Unmarshal([]byte(permissions), &admin.Permissions); err != nil {
		return model.AdminAccount{}, fmt.Errorf("decode permissions: %w", err)
	}
	admin.AdminID = stringPtr(adminID)
	admin.College = stringPtr(college)
	admin.Department = stringPtr(department)
	admin.Birthdate = timePtr(birthdate)
	admin.EmailVerifiedAt = timePtr(verifiedAt)
	admin.CreatedAt = time.UnixMilli(createdAt).UTC()
	admin.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return admin, nil
}

func scanSQLiteStudent(row rowScanner) (model.StudentAccount, error) {
	var (
		student                     model.StudentAccount
		college, department, course sql.NullString
		birthdate, verifiedAt       sql.NullInt64
		createdAt, updatedAt        int64
	)
	err := row.Scan(
		&student.ID,
		&student.Email,
		&student.PasswordHash,
		&student.Name,
		&student.Role,
		&student.StudentID,
		&birthdate,
		&college,
		&department,
		&course,
		&verifiedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.StudentAccount{}, mapSQLiteError(err)
	}
	student.College = stringPtr(college)
	student.Department = stringPtr(department)
	student.Course = stringPtr(course)
	student.Birthdate = timePtr(birthdate)
	student.EmailVerifiedAt = timePtr(verifiedAt)
	student.CreatedAt = time.UnixMilli(createdAt).UTC()
	student.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return student, nil
}

func scanSQLiteThesis(row rowScanner) (model.Thesis, error) {
	var (
		thesis                               model.Thesis
		authorEmail, studentID, approvedBy   sql.NullString
		rejectionReason, uploadedBy          sql.NullString
		submissionDate, createdAt, updatedAt int64
		defenseDate, approvalDate            sql.NullInt64
	)
	err := row.Scan(
		&thesis.ID,
		&thesis.Title,
		&thesis.Abstract,
		&thesis.AuthorName,
		&authorEmail,
		&studentID,
		&thesis.AdvisorName,
		&thesis.Department,
		&thesis.Program,
		&thesis.University,
		&thesis.DegreeLevel,
		&thesis.CategoryID,
		&thesis.Language,
		&submissionDate,
		&defenseDate,
		&thesis.PublicationYear,
		&thesis.Status,
		&approvalDate,
		&approvedBy,
		&rejectionReason,
		&uploadedBy,
		&thesis.DownloadCount,
		&thesis.ViewCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return model.Thesis{}, mapSQLiteError(err)
	}
	thesis.AuthorEmail = stringPtr(authorEmail)
	thesis.StudentID = stringPtr(studentID)
	thesis.ApprovedBy = stringPtr(approvedBy)
	thesis.RejectionReason = stringPtr(rejectionReason)
	thesis.UploadedBy = stringPtr(uploadedBy)
	thesis.SubmissionDate = time.UnixMilli(submissionDate).UTC()
	thesis.DefenseDate = timePtr(defenseDate)
	thesis.ApprovalDate = timePtr(approvalDate)
	thesis.CreatedAt = time.UnixMilli(createdAt).UTC()
	thesis.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return thesis, nil
}

func scanSQLiteCategory(row rowScanner) (model.Category, error) {
	var (
		category             model.Category
		description          sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Code,
		&description,
		&category.IsActive,
		&createdAt,
		&updatedAt,
		&category.ThesisCount,
	)
	if err != nil {
		return model.Category{}, mapSQLiteError(err)
	}
	category.Description = stringPtr(description)
	category.CreatedAt = time.UnixMilli(createdAt).UTC()
	category.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return category, nil
}

func collectSQLiteTheses(rows *sql.Rows) ([]model.Thesis, error) {
	theses := []model.Thesis{}
	for rows.Next() {
		thesis, err := scanSQLiteThesis(rows)
		if err != nil {
			return nil, err
		}
		theses = append(theses, thesis)
	}
	return theses, rows.Err()
}

func checkUpdated(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && isUniqueViolation(sqliteErr) {
		return fmt.Errorf("%w: %s", ErrDuplicate, sqliteErr.Error())
	}
	return err
}

func isUniqueViolation(err *sqlite.Error) bool {
	if err.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || err.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return true
	}
	// without extended result codes only the primary code is reported
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}

func millisPtr(value *time.Time) interface{} {
	if value == nil {
		return nil
	}
	return value.UnixMilli()
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := time.UnixMilli(value.Int64).UTC()
	return &t
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}
