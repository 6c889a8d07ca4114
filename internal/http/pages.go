package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"thesisarchive/internal/auth"
	"thesisarchive/internal/policy"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	tmpl *template.Template
}

func loadPages() (*pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &pages{tmpl: tmpl}, nil
}

type link struct {
	Href  string
	Label string
}

type pageData struct {
	Title     string
	User      *auth.Identity
	Home      string
	Role      auth.Role
	Action    string
	Alternate string
	Error     string
	Form      map[string]string
	Links     []link
}

var adminLinks = []link{
	{Href: "/admin/add-thesis", Label: "Add thesis"},
	{Href: "/admin/manage-thesis", Label: "Manage thesis"},
	{Href: "/admin/pending-thesis", Label: "Pending approvals"},
	{Href: "/admin/categories", Label: "Categories"},
	{Href: "/admin/users", Label: "Users"},
	{Href: "/admin/reports", Label: "Reports"},
}

var studentLinks = []link{
	{Href: "/student/browse", Label: "Browse theses"},
	{Href: "/student/categories", Label: "Categories"},
	{Href: "/student/favorites", Label: "Favorites"},
	{Href: "/student/downloads", Label: "Downloads"},
	{Href: "/student/profile", Label: "Profile"},
}

// render buffers the template so a failure never leaves a half written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	if data.User != nil && data.Home == "" {
		data.Home = data.User.Role.HomePath()
	}
	var buf bytes.Buffer
	if err := s.pages.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render page", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", pageData{
		Title: "Home",
		User:  auth.IdentityFromContext(r.Context()),
	})
}

func (s *Server) handleLoginPage(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderLogin(w, http.StatusOK, role, "", "")
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, role auth.Role, email, message string) {
	data := pageData{
		Title:     "Student login",
		Role:      role,
		Action:    policy.StudentLoginPath,
		Alternate: "/student/register",
		Error:     message,
		Form:      map[string]string{"email": email},
	}
	if role == auth.RoleAdmin {
		data.Title = "Admin login"
		data.Action = policy.AdminLoginPath
		data.Alternate = "/admin/register"
	}
	s.render(w, status, "login", data)
}

func (s *Server) handleRegisterPage(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderRegister(w, http.StatusOK, role, nil, "")
	}
}

func (s *Server) renderRegister(w http.ResponseWriter, status int, role auth.Role, form map[string]string, message string) {
	data := pageData{
		Title:     "Student registration",
		Role:      role,
		Action:    "/student/register",
		Alternate: policy.StudentLoginPath,
		Error:     message,
		Form:      form,
	}
	if role == auth.RoleAdmin {
		data.Title = "Admin registration"
		data.Action = "/admin/register"
		data.Alternate = policy.AdminLoginPath
	}
	s.render(w, status, "register", data)
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "dashboard", pageData{
		Title: "Admin dashboard",
		User:  auth.IdentityFromContext(r.Context()),
		Links: adminLinks,
	})
}

func (s *Server) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "dashboard", pageData{
		Title: "Student dashboard",
		User:  auth.IdentityFromContext(r.Context()),
		Links: studentLinks,
	})
}

// handleSection serves the remaining classified pages. Unclassified paths
// under /admin or /student have no page.
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	if s.policy.Classify(r.URL.Path) == policy.Unclassified {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, "section", pageData{
		Title: sectionTitle(r.URL.Path),
		User:  auth.IdentityFromContext(r.Context()),
	})
}

// sectionTitle turns "/admin/manage-thesis" into "Manage Thesis".
func sectionTitle(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return "Thesis Archive"
	}
	words := strings.Split(parts[1], "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
