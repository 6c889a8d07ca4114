package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"thesisarchive/internal/model"
)

const adminColumns = `id, email, password_hash, name, role, admin_id, birthdate, college, department,
	position, permissions, status, email_verified_at, created_at, updated_at`

const studentColumns = `id, email, password_hash, name, role, student_id, birthdate, college, department,
	course, email_verified_at, created_at, updated_at`

const thesisColumns = `id, title, abstract, author_name, author_email, student_id, advisor_name, department,
	program, university, degree_level, category_id, language, submission_date, defense_date,
	publication_year, status, approval_date, approved_by, rejection_reason, uploaded_by,
	download_count, view_count, created_at, updated_at`

const categoryColumns = `c.id, c.name, c.code, c.description, c.is_active, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM theses t WHERE t.category_id = c.id::text)`

// Store is the Postgres implementation of the account and thesis tables.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresSchema)
	return err
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (model.AdminAccount, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE email = $1`, email)
	return scanAdmin(row)
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (model.AdminAccount, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE id::text = $1`, id)
	return scanAdmin(row)
}

func (s *Store) GetAdminByAdminID(ctx context.Context, adminID string) (model.AdminAccount, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_accounts WHERE admin_id = $1`, adminID)
	return scanAdmin(row)
}

func (s *Store) CreateAdmin(ctx context.Context, admin model.AdminAccount) error {
	if admin.Permissions == nil {
		admin.Permissions = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_accounts (id, email, password_hash, name, role, admin_id, birthdate, college, department,
			position, permissions, status, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, admin.ID, admin.Email, admin.PasswordHash, admin.Name, admin.Role, admin.AdminID, admin.Birthdate,
		admin.College, admin.Department, admin.Position, admin.Permissions, admin.Status, admin.EmailVerifiedAt,
		admin.CreatedAt, admin.UpdatedAt)
	return mapError(err)
}

func (s *Store) MarkAdminEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE admin_accounts SET email_verified_at = $1, updated_at = $1 WHERE id::text = $2
	`, verifiedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetStudentByEmail(ctx context.Context, email string) (model.StudentAccount, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM student_accounts WHERE email = $1`, email)
	return scanStudent(row)
}

func (s *Store) GetStudentByID(ctx context.Context, id string) (model.StudentAccount, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM student_accounts WHERE id::text = $1`, id)
	return scanStudent(row)
}

func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (model.StudentAccount, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM student_accounts WHERE student_id = $1`, studentID)
	return scanStudent(row)
}

func (s *Store) CreateStudent(ctx context.Context, student model.StudentAccount) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO student_accounts (id, email, password_hash, name, role, student_id, birthdate, college,
			department, course, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, student.ID, student.Email, student.PasswordHash, student.Name, student.Role, student.StudentID,
		student.Birthdate, student.College, student.Department, student.Course, student.EmailVerifiedAt,
		student.CreatedAt, student.UpdatedAt)
	return mapError(err)
}

func (s *Store) CreateThesis(ctx context.Context, thesis model.Thesis) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO theses (`+thesisColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25)
	`, thesis.ID, thesis.Title, thesis.Abstract, thesis.AuthorName, thesis.AuthorEmail, thesis.StudentID,
		thesis.AdvisorName, thesis.Department, thesis.Program, thesis.University, thesis.DegreeLevel,
		thesis.CategoryID, thesis.Language, thesis.SubmissionDate, thesis.DefenseDate, thesis.PublicationYear,
		thesis.Status, thesis.ApprovalDate, thesis.ApprovedBy, thesis.RejectionReason, thesis.UploadedBy,
		thesis.DownloadCount, thesis.ViewCount, thesis.CreatedAt, thesis.UpdatedAt)
	return mapError(err)
}

func (s *Store) ListTheses(ctx context.Context, filter model.ThesisFilter) ([]model.Thesis, int, error) {
	where, args := thesisWhere(filter, func(n int) string { return fmt.Sprintf("$%d", n) }, "ILIKE")

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM theses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM theses%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		thesisColumns, where, thesisOrderBy(filter.Sort), len(args)+1, len(args)+2)
	rows, err := s.pool.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	theses, err := collectTheses(rows)
	if err != nil {
		return nil, 0, err
	}
	return theses, total, nil
}

func (s *Store) ListPendingTheses(ctx context.Context) ([]model.Thesis, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+thesisColumns+` FROM theses WHERE status = $1 ORDER BY submission_date DESC
	`, model.ThesisPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTheses(rows)
}

func (s *Store) ApproveThesis(ctx context.Context, id, adminID string, approvedAt time.Time) (model.Thesis, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE theses
		SET status = $1, approval_date = $2, approved_by = $3, rejection_reason = NULL, updated_at = $2
		WHERE id::text = $4
		RETURNING `+thesisColumns, model.ThesisApproved, approvedAt, adminID, id)
	return scanThesis(row)
}

func (s *Store) RejectThesis(ctx context.Context, id, reason string, rejectedAt time.Time) (model.Thesis, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE theses
		SET status = $1, rejection_reason = $2, approval_date = NULL, approved_by = NULL, updated_at = $3
		WHERE id::text = $4
		RETURNING `+thesisColumns, model.ThesisRejected, reason, rejectedAt, id)
	return scanThesis(row)
}

func (s *Store) GetThesis(ctx context.Context, id string) (model.Thesis, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+thesisColumns+` FROM theses WHERE id::text = $1`, id)
	return scanThesis(row)
}

// UpdateThesis overwrites every editable column of the thesis with the given id.
func (s *Store) UpdateThesis(ctx context.Context, thesis model.Thesis) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE theses
		SET title = $1, abstract = $2, author_name = $3, author_email = $4, student_id = $5,
			advisor_name = $6, department = $7, program = $8, university = $9, degree_level = $10,
			category_id = $11, language = $12, submission_date = $13, defense_date = $14,
			publication_year = $15, status = $16, approval_date = $17, approved_by = $18,
			rejection_reason = $19, updated_at = $20
		WHERE id::text = $21
	`, thesis.Title, thesis.Abstract, thesis.AuthorName, thesis.AuthorEmail, thesis.StudentID,
		thesis.AdvisorName, thesis.Department, thesis.Program, thesis.University, thesis.DegreeLevel,
		thesis.CategoryID, thesis.Language, thesis.SubmissionDate, thesis.DefenseDate,
		thesis.PublicationYear, thesis.Status, thesis.ApprovalDate, thesis.ApprovedBy,
		thesis.RejectionReason, thesis.UpdatedAt, thesis.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteThesis(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM theses WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (s *Store) GetCategory(ctx context.Context, id string) (model.Category, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories c WHERE c.id::text = $1`, id)
	return scanCategory(row)
}

func (s *Store) CreateCategory(ctx context.Context, category model.Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, name, code, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, category.ID, category.Name, category.Code, category.Description, category.IsActive,
		category.CreatedAt, category.UpdatedAt)
	return mapError(err)
}

func (s *Store) UpdateCategory(ctx context.Context, category model.Category) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE categories SET name = $1, code = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id::text = $6
	`, category.Name, category.Code, category.Description, category.IsActive, category.UpdatedAt, category.ID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category unless a thesis still references it.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM categories c
		WHERE c.id::text = $1 AND NOT EXISTS (SELECT 1 FROM theses t WHERE t.category_id = c.id::text)
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id::text = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrInUse
	}
	return ErrNotFound
}

func scanCategory(row pgx.Row) (model.Category, error) {
	var category model.Category
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Code,
		&category.Description,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
		&category.ThesisCount,
	)
	return category, mapError(err)
}

func scanAdmin(row pgx.Row) (model.AdminAccount, error) {
	var admin model.AdminAccount
	err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.PasswordHash,
		&admin.Name,
		&admin.Role,
		&admin.AdminID,
		&admin.Birthdate,
		&admin.College,
		&admin.Department,
		&admin.Position,
		&admin.Permissions,
		&admin.Status,
		&admin.EmailVerifiedAt,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	return admin, mapError(err)
}

func scanStudent(row pgx.Row) (model.StudentAccount, error) {
	var student model.StudentAccount
	err := row.Scan(
		&student.ID,
		&student.Email,
		&student.PasswordHash,
		&student.Name,
		&student.Role,
		&student.StudentID,
		&student.Birthdate,
		&student.College,
		&student.Department,
		&student.Course,
		&student.EmailVerifiedAt,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	return student, mapError(err)
}

func scanThesis(row pgx.Row) (model.Thesis, error) {
	var thesis model.Thesis
	err := row.Scan(
		&thesis.ID,
		&thesis.Title,
		&thesis.Abstract,
		&thesis.AuthorName,
		&thesis.AuthorEmail,
		&thesis.StudentID,
		&thesis.AdvisorName,
		&thesis.Department,
		&thesis.Program,
		&thesis.University,
		&thesis.DegreeLevel,
		&thesis.CategoryID,
		&thesis.Language,
		&thesis.SubmissionDate,
		&thesis.DefenseDate,
		&thesis.PublicationYear,
		&thesis.Status,
		&thesis.ApprovalDate,
		&thesis.ApprovedBy,
		&thesis.RejectionReason,
		&thesis.UploadedBy,
		&thesis.DownloadCount,
		&thesis.ViewCount,
		&thesis.CreatedAt,
		&thesis.UpdatedAt,
	)
	return thesis, mapError(err)
}

func collectTheses(rows pgx.Rows) ([]model.Thesis, error) {
	theses := []model.Thesis{}
	for rows.Next() {
		thesis, err := scanThesis(rows)
		if err != nil {
			return nil, err
		}
		theses = append(theses, thesis)
	}
	return theses, rows.Err()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
