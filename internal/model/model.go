package model

import "time"

const (
	RoleAdmin = "ADMIN"
	// RoleUser is the role stored on student rows created by self-registration.
	RoleUser = "USER"

	AdminStatusActive  = "ACTIVE"
	AdminStatusPending = "PENDING"

	ThesisPending  = "PENDING"
	ThesisApproved = "APPROVED"
	ThesisRejected = "REJECTED"
)

type AdminAccount struct {
	ID              string
	Email           string
	PasswordHash    string
	Name            string
	Role            string
	AdminID         *string
	Birthdate       *time.Time
	College         *string
	Department      *string
	Position        string
	Permissions     []string
	Status          string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type StudentAccount struct {
	ID              string
	Email           string
	PasswordHash    string
	Name            string
	Role            string
	StudentID       string
	Birthdate       *time.Time
	College         *string
	Department      *string
	Course          *string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Thesis struct {
	ID              string
	Title           string
	Abstract        string
	AuthorName      string
	AuthorEmail     *string
	StudentID       *string
	AdvisorName     string
	Department      string
	Program         string
	University      string
	DegreeLevel     string
	CategoryID      string
	Language        string
	SubmissionDate  time.Time
	DefenseDate     *time.Time
	PublicationYear int
	Status          string
	ApprovalDate    *time.Time
	ApprovedBy      *string
	RejectionReason *string
	UploadedBy      *string
	DownloadCount   int
	ViewCount       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Category groups theses. ThesisCount is filled by reads only.
type Category struct {
	ID          string
	Name        string
	Code        string
	Description *string
	IsActive    bool
	ThesisCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ThesisFilter drives the admin thesis listing. Empty Status or CategoryID
// means no filter on that column.
type ThesisFilter struct {
	Status     string
	CategoryID string
	Search     string
	Sort       string
	Offset     int
	Limit      int
}
