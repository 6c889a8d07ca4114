package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"thesisarchive/internal/model"
	"thesisarchive/internal/repository"
)

type categorySummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description"`
	IsActive    bool    `json:"isActive"`
	ThesisCount int     `json:"thesisCount"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// updateCategoryRequest is a partial edit: nil fields keep their stored value.
type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	out := make([]categorySummary, 0, len(categories))
	for _, category := range categories {
		out = append(out, mapCategory(category))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.store.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.categoryFailed(w, r, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, mapCategory(category))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	name := strings.TrimSpace(req.Name)
	code := normalizeCategoryCode(req.Code)
	if name == "" || code == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	now := s.now().UTC()
	category := model.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Code:        code,
		Description: optionalString(req.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		s.categoryFailed(w, r, "create", err)
		return
	}
	s.logger.InfoContext(r.Context(), "category created", "category_id", category.ID, "admin_id", admin.ID)
	writeJSON(w, http.StatusCreated, mapCategory(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	category, err := s.store.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.categoryFailed(w, r, "update", err)
		return
	}
	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		category.Code = normalizeCategoryCode(*req.Code)
	}
	if category.Name == "" || category.Code == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if req.Description != nil {
		category.Description = optionalString(*req.Description)
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	category.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateCategory(r.Context(), category); err != nil {
		s.categoryFailed(w, r, "update", err)
		return
	}
	s.logger.InfoContext(r.Context(), "category updated", "category_id", category.ID, "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, mapCategory(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		s.categoryFailed(w, r, "delete", err)
		return
	}
	s.logger.InfoContext(r.Context(), "category deleted", "category_id", id, "admin_id", admin.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}

func (s *Server) categoryFailed(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "category_not_found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "category_exists")
	case errors.Is(err, repository.ErrInUse):
		writeError(w, http.StatusBadRequest, "category_in_use")
	default:
		s.logger.ErrorContext(r.Context(), "category", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func normalizeCategoryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func mapCategory(category model.Category) categorySummary {
	return categorySummary{
		ID:          category.ID,
		Name:        category.Name,
		Code:        category.Code,
		Description: category.Description,
		IsActive:    category.IsActive,
		ThesisCount: category.ThesisCount,
		CreatedAt:   category.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   category.UpdatedAt.Format(time.RFC3339),
	}
}
