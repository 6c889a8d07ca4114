package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"thesisarchive/internal/auth"
	"thesisarchive/internal/model"
	"thesisarchive/internal/repository"
)

const (
	defaultThesisLimit = 12
	maxThesisLimit     = 100
	// keeps (page-1)*limit inside int for any accepted limit
	maxThesisPage = math.MaxInt / maxThesisLimit

	defaultUniversity  = "Technological University of the Philippines - Manila"
	defaultDegreeLevel = "BACHELOR"
	defaultLanguage    = "English"
)

type thesisSummary struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Abstract        string  `json:"abstract"`
	AuthorName      string  `json:"authorName"`
	AuthorEmail     *string `json:"authorEmail"`
	StudentID       *string `json:"studentId"`
	AdvisorName     string  `json:"advisorName"`
	Department      string  `json:"department"`
	Program         string  `json:"program"`
	University      string  `json:"university"`
	DegreeLevel     string  `json:"degreeLevel"`
	CategoryID      string  `json:"categoryId"`
	Language        string  `json:"language"`
	SubmissionDate  string  `json:"submissionDate"`
	DefenseDate     *string `json:"defenseDate"`
	PublicationYear int     `json:"publicationYear"`
	Status          string  `json:"status"`
	ApprovalDate    *string `json:"approvalDate"`
	ApprovedBy      *string `json:"approvedBy"`
	RejectionReason *string `json:"rejectionReason"`
	UploadedBy      *string `json:"uploadedBy"`
	DownloadCount   int     `json:"downloadCount"`
	ViewCount       int     `json:"viewCount"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type thesisListResponse struct {
	Thesis     []thesisSummary `json:"thesis"`
	Pagination pagination      `json:"pagination"`
}

type createThesisRequest struct {
	Title          string  `json:"title"`
	Abstract       string  `json:"abstract"`
	AuthorName     string  `json:"authorName"`
	AuthorEmail    string  `json:"authorEmail"`
	StudentID      string  `json:"studentId"`
	AdvisorName    string  `json:"advisorName"`
	Department     string  `json:"department"`
	Program        string  `json:"program"`
	University     string  `json:"university"`
	DegreeLevel    string  `json:"degreeLevel"`
	CategoryID     string  `json:"categoryId"`
	Language       string  `json:"language"`
	SubmissionDate string  `json:"submissionDate"`
	DefenseDate    *string `json:"defenseDate"`
	Status         string  `json:"status"`
}

// updateThesisRequest is a partial edit: nil fields keep their stored value.
type updateThesisRequest struct {
	ID             string  `json:"id"`
	Title          *string `json:"title"`
	Abstract       *string `json:"abstract"`
	AuthorName     *string `json:"authorName"`
	AuthorEmail    *string `json:"authorEmail"`
	StudentID      *string `json:"studentId"`
	AdvisorName    *string `json:"advisorName"`
	Department     *string `json:"department"`
	Program        *string `json:"program"`
	University     *string `json:"university"`
	DegreeLevel    *string `json:"degreeLevel"`
	CategoryID     *string `json:"categoryId"`
	Language       *string `json:"language"`
	SubmissionDate *string `json:"submissionDate"`
	DefenseDate    *string `json:"defenseDate"`
	Status         *string `json:"status"`
}

type moderateThesisRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// requireAdmin answers 401 unless the request identity is an admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity := auth.IdentityFromContext(r.Context())
	if !identity.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return identity, true
}

func (s *Server) handleListTheses(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	query := r.URL.Query()
	page := parsePositive(query.Get("page"), 1)
	if page > maxThesisPage {
		page = maxThesisPage
	}
	limit := parsePositive(query.Get("limit"), defaultThesisLimit)
	if limit > maxThesisLimit {
		limit = maxThesisLimit
	}
	filter := model.ThesisFilter{
		Status:     allFilter(query.Get("status")),
		CategoryID: allFilter(query.Get("category")),
		Search:     query.Get("search"),
		Sort:       query.Get("sort"),
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}

	theses, total, err := s.store.ListTheses(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list theses", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, thesisListResponse{
		Thesis: mapTheses(theses),
		Pagination: pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	})
}

func (s *Server) handleListPendingTheses(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	theses, err := s.store.ListPendingTheses(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list pending theses", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"thesis": mapTheses(theses)})
}

func (s *Server) handleCreateThesis(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	var req createThesisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Title == "" || req.Abstract == "" || req.AuthorName == "" || req.AdvisorName == "" ||
		req.Department == "" || req.Program == "" || req.CategoryID == "" || req.SubmissionDate == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	submitted, err := parseDate(req.SubmissionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_submission_date")
		return
	}
	var defense *time.Time
	if req.DefenseDate != nil {
		defense, err = parseOptionalDate(*req.DefenseDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_defense_date")
			return
		}
	}

	status := model.ThesisApproved
	if strings.TrimSpace(req.Status) != "" {
		if status, ok = parseThesisStatus(req.Status); !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
	}
	if !s.categoryExists(w, r, req.CategoryID) {
		return
	}

	now := s.now().UTC()
	uploader := admin.ID
	thesis := model.Thesis{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Abstract:        req.Abstract,
		AuthorName:      req.AuthorName,
		AuthorEmail:     optionalString(req.AuthorEmail),
		StudentID:       optionalString(req.StudentID),
		AdvisorName:     req.AdvisorName,
		Department:      req.Department,
		Program:         req.Program,
		University:      withDefault(req.University, defaultUniversity),
		DegreeLevel:     withDefault(req.DegreeLevel, defaultDegreeLevel),
		CategoryID:      req.CategoryID,
		Language:        withDefault(req.Language, defaultLanguage),
		SubmissionDate:  submitted,
		DefenseDate:     defense,
		PublicationYear: submitted.Year(),
		Status:          status,
		UploadedBy:      &uploader,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if status == model.ThesisApproved {
		approver := admin.ID
		thesis.ApprovalDate = &now
		thesis.ApprovedBy = &approver
	}

	if err := s.store.CreateThesis(r.Context(), thesis); err != nil {
		s.logger.ErrorContext(r.Context(), "create thesis", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Thesis created successfully",
		"thesis":  mapThesis(thesis),
	})
}

func (s *Server) handleUpdateThesis(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req updateThesisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}

	thesis, err := s.store.GetThesis(r.Context(), req.ID)
	if err != nil {
		s.moderationFailed(w, r, "update", err)
		return
	}

	for _, field := range []struct {
		value  *string
		target *string
	}{
		{req.Title, &thesis.Title},
		{req.Abstract, &thesis.Abstract},
		{req.AuthorName, &thesis.AuthorName},
		{req.AdvisorName, &thesis.AdvisorName},
		{req.Department, &thesis.Department},
		{req.Program, &thesis.Program},
		{req.University, &thesis.University},
		{req.DegreeLevel, &thesis.DegreeLevel},
		{req.CategoryID, &thesis.CategoryID},
		{req.Language, &thesis.Language},
	} {
		if field.value == nil {
			continue
		}
		if strings.TrimSpace(*field.value) == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}
		*field.target = *field.value
	}
	if req.AuthorEmail != nil {
		thesis.AuthorEmail = optionalString(*req.AuthorEmail)
	}
	if req.StudentID != nil {
		thesis.StudentID = optionalString(*req.StudentID)
	}
	if req.SubmissionDate != nil {
		submitted, err := parseDate(*req.SubmissionDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_submission_date")
			return
		}
		thesis.SubmissionDate = submitted
		thesis.PublicationYear = submitted.Year()
	}
	if req.DefenseDate != nil {
		if thesis.DefenseDate, err = parseOptionalDate(*req.DefenseDate); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_defense_date")
			return
		}
	}
	if req.CategoryID != nil && !s.categoryExists(w, r, thesis.CategoryID) {
		return
	}

	now := s.now().UTC()
	if req.Status != nil {
		status, ok := parseThesisStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		thesis.Status = status
		switch status {
		case model.ThesisApproved:
			approver := admin.ID
			thesis.ApprovalDate = &now
			thesis.ApprovedBy = &approver
			thesis.RejectionReason = nil
		case model.ThesisPending:
			thesis.ApprovalDate = nil
			thesis.ApprovedBy = nil
			thesis.RejectionReason = nil
		case model.ThesisRejected:
			thesis.ApprovalDate = nil
			thesis.ApprovedBy = nil
		}
	}
	thesis.UpdatedAt = now

	if err := s.store.UpdateThesis(r.Context(), thesis); err != nil {
		s.moderationFailed(w, r, "update", err)
		return
	}
	s.logger.InfoContext(r.Context(), "thesis updated", "thesis_id", thesis.ID, "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Thesis updated successfully",
		"thesis":  mapThesis(thesis),
	})
}

func (s *Server) handleDeleteThesis(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}
	if err := s.store.DeleteThesis(r.Context(), id); err != nil {
		s.moderationFailed(w, r, "delete", err)
		return
	}
	s.logger.InfoContext(r.Context(), "thesis deleted", "thesis_id", id, "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Thesis deleted successfully"})
}

func (s *Server) handleApproveThesis(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req moderateThesisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "missing_id")
		return
	}

	thesis, err := s.store.ApproveThesis(r.Context(), req.ID, admin.ID, s.now().UTC())
	if err != nil {
		s.moderationFailed(w, r, "approve", err)
		return
	}
	s.logger.InfoContext(r.Context(), "thesis approved", "thesis_id", thesis.ID, "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"thesis":  mapThesis(thesis),
		"message": "Thesis approved successfully",
	})
}

func (s *Server) handleRejectThesis(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req moderateThesisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.ID == "" || strings.TrimSpace(req.Reason) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	thesis, err := s.store.RejectThesis(r.Context(), req.ID, req.Reason, s.now().UTC())
	if err != nil {
		s.moderationFailed(w, r, "reject", err)
		return
	}
	s.logger.InfoContext(r.Context(), "thesis rejected", "thesis_id", thesis.ID, "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"thesis":  mapThesis(thesis),
		"message": "Thesis rejected",
	})
}

func (s *Server) moderationFailed(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "thesis_not_found")
		return
	}
	s.logger.ErrorContext(r.Context(), "moderate thesis", "action", action, "error", err)
	writeError(w, http.StatusInternalServerError, "server_error")
}

// categoryExists answers 400 invalid_category when id names no category.
func (s *Server) categoryExists(w http.ResponseWriter, r *http.Request, id string) bool {
	_, err := s.store.GetCategory(r.Context(), id)
	switch {
	case err == nil:
		return true
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusBadRequest, "invalid_category")
	default:
		s.logger.ErrorContext(r.Context(), "lookup category", "category_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
	return false
}

func parseThesisStatus(value string) (string, bool) {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case model.ThesisApproved, model.ThesisPending, model.ThesisRejected:
		return status, true
	}
	return "", false
}

func mapTheses(theses []model.Thesis) []thesisSummary {
	out := make([]thesisSummary, 0, len(theses))
	for _, thesis := range theses {
		out = append(out, mapThesis(thesis))
	}
	return out
}

func mapThesis(thesis model.Thesis) thesisSummary {
	return thesisSummary{
		ID:              thesis.ID,
		Title:           thesis.Title,
		Abstract:        thesis.Abstract,
		AuthorName:      thesis.AuthorName,
		AuthorEmail:     thesis.AuthorEmail,
		StudentID:       thesis.StudentID,
		AdvisorName:     thesis.AdvisorName,
		Department:      thesis.Department,
		Program:         thesis.Program,
		University:      thesis.University,
		DegreeLevel:     thesis.DegreeLevel,
		CategoryID:      thesis.CategoryID,
		Language:        thesis.Language,
		SubmissionDate:  thesis.SubmissionDate.Format(time.RFC3339),
		DefenseDate:     formatOptionalTime(thesis.DefenseDate),
		PublicationYear: thesis.PublicationYear,
		Status:          thesis.Status,
		ApprovalDate:    formatOptionalTime(thesis.ApprovalDate),
		ApprovedBy:      thesis.ApprovedBy,
		RejectionReason: thesis.RejectionReason,
		UploadedBy:      thesis.UploadedBy,
		DownloadCount:   thesis.DownloadCount,
		ViewCount:       thesis.ViewCount,
		CreatedAt:       thesis.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       thesis.UpdatedAt.Format(time.RFC3339),
	}
}

func formatOptionalTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.Format(time.RFC3339)
	return &formatted
}

func parsePositive(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

// allFilter maps the "ALL" sentinel (and empty) to no filter.
func allFilter(value string) string {
	if value == "" || value == "ALL" {
		return ""
	}
	return value
}

func withDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
