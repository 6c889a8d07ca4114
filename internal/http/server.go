package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"thesisarchive/internal/auth"
	"thesisarchive/internal/config"
	"thesisarchive/internal/metrics"
	"thesisarchive/internal/model"
	"thesisarchive/internal/notify"
	"thesisarchive/internal/policy"
	"thesisarchive/internal/verification"
)

// Store is the persistence the HTTP layer needs.
type Store interface {
	auth.AccountStore
	GetAdminByAdminID(ctx context.Context, adminID string) (model.AdminAccount, error)
	CreateAdmin(ctx context.Context, admin model.AdminAccount) error
	MarkAdminEmailVerified(ctx context.Context, id string, verifiedAt time.Time) error
	GetStudentByStudentID(ctx context.Context, studentID string) (model.StudentAccount, error)
	CreateStudent(ctx context.Context, student model.StudentAccount) error
	CreateThesis(ctx context.Context, thesis model.Thesis) error
	ListTheses(ctx context.Context, filter model.ThesisFilter) ([]model.Thesis, int, error)
	ListPendingTheses(ctx context.Context) ([]model.Thesis, error)
	ApproveThesis(ctx context.Context, id, adminID string, approvedAt time.Time) (model.Thesis, error)
	RejectThesis(ctx context.Context, id, reason string, rejectedAt time.Time) (model.Thesis, error)
	GetThesis(ctx context.Context, id string) (model.Thesis, error)
	UpdateThesis(ctx context.Context, thesis model.Thesis) error
	DeleteThesis(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (model.Category, error)
	CreateCategory(ctx context.Context, category model.Category) error
	UpdateCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// VerificationStore holds admin email verification tokens.
type VerificationStore interface {
	Enabled() bool
	Issue(ctx context.Context, record verification.Record) (string, error)
	Consume(ctx context.Context, token string) (verification.Record, error)
}

type Server struct {
	cfg           config.Config
	store         Store
	codec         *auth.Codec
	verifier      *auth.Verifier
	resolver      *auth.Resolver
	policy        *policy.Engine
	verifications VerificationStore
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	pages         *pages
	logger        *slog.Logger
	now           func() time.Time
}

type Options struct {
	Policy        *policy.Engine
	Verifications VerificationStore
	Notifier      notify.Notifier
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// NewServer fails with auth.ErrMisconfigured when no session secret is set.
func NewServer(cfg config.Config, store Store, opts Options) (*Server, error) {
	codec, err := auth.NewCodec(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := opts.Policy
	if engine == nil {
		engine = policy.New(policy.DefaultRoutes())
	}
	verifications := opts.Verifications
	if verifications == nil {
		verifications = verification.NewStore(nil, cfg.VerificationTTL)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(cfg.PublicBaseURL, logger)
	}

	return &Server{
		cfg:           cfg,
		store:         store,
		codec:         codec,
		verifier:      auth.NewVerifier(store),
		resolver:      auth.NewResolver(store, codec, logger),
		policy:        engine,
		verifications: verifications,
		notifier:      notifier,
		metrics:       opts.Metrics,
		pages:         pages,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// Resolver is shared with the gRPC identity service.
func (s *Server) Resolver() *auth.Resolver {
	return s.resolver
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.sessionMiddleware)
	r.Use(s.accessMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/", s.handleIndex)
	r.Get(policy.AdminLoginPath, s.handleLoginPage(auth.RoleAdmin))
	r.Post(policy.AdminLoginPath, s.handleLogin(auth.RoleAdmin))
	r.Get(policy.StudentLoginPath, s.handleLoginPage(auth.RoleStudent))
	r.Post(policy.StudentLoginPath, s.handleLogin(auth.RoleStudent))
	r.Get("/admin/register", s.handleRegisterPage(auth.RoleAdmin))
	r.Post("/admin/register", s.handleRegisterAdmin)
	r.Get("/student/register", s.handleRegisterPage(auth.RoleStudent))
	r.Post("/student/register", s.handleRegisterStudent)
	r.Post("/logout", s.handleLogout)

	r.Get("/admin", s.handleAdminDashboard)
	r.Get("/admin/*", s.handleSection)
	r.Get("/student/dashboard", s.handleStudentDashboard)
	r.Get("/student/*", s.handleSection)

	r.Route("/api", func(r chi.Router) {
		r.Get("/me", s.handleGetMe)
		r.Get("/admin/verify-email", s.handleVerifyEmail)
		r.Get("/admin/thesis", s.handleListTheses)
		r.Post("/admin/thesis", s.handleCreateThesis)
		r.Put("/admin/thesis", s.handleUpdateThesis)
		r.Delete("/admin/thesis", s.handleDeleteThesis)
		r.Get("/admin/thesis/pending", s.handleListPendingTheses)
		r.Put("/thesis/approve", s.handleApproveThesis)
		r.Put("/thesis/reject", s.handleRejectThesis)

		r.Get("/category", s.handleListCategories)
		r.Post("/category", s.handleCreateCategory)
		r.Get("/category/{id}", s.handleGetCategory)
		r.Put("/category/{id}", s.handleUpdateCategory)
		r.Patch("/category/{id}", s.handleUpdateCategory)
		r.Delete("/category/{id}", s.handleDeleteCategory)
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Redirect string        `json:"redirect"`
	User     auth.Identity `json:"user"`
}

func (s *Server) handleLogin(page auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonClient := isJSONRequest(r)

		var req loginRequest
		if jsonClient {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request")
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				s.renderLogin(w, http.StatusBadRequest, page, "", "Invalid request")
				return
			}
			req.Email = r.PostForm.Get("email")
			req.Password = r.PostForm.Get("password")
		}

		identity, err := s.verifier.Verify(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				s.metrics.LoginAttempt(metrics.LoginInvalid)
				if jsonClient {
					writeError(w, http.StatusUnauthorized, "invalid_credentials")
					return
				}
				s.renderLogin(w, http.StatusUnauthorized, page, req.Email, "Invalid credentials")
				return
			}
			s.metrics.LoginAttempt(metrics.LoginError)
			s.logger.ErrorContext(r.Context(), "credential check failed", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}

		token, err := s.codec.Issue(identity)
		if err != nil {
			s.metrics.LoginAttempt(metrics.LoginError)
			s.logger.ErrorContext(r.Context(), "issue session token", "error", err)
			writeError(w, http.StatusInternalServerError, "token_error")
			return
		}
		s.metrics.LoginAttempt(metrics.LoginSuccess)
		s.setSessionCookie(w, token)

		home := identity.Role.HomePath()
		if jsonClient {
			writeJSON(w, http.StatusOK, loginResponse{Redirect: home, User: identity})
			return
		}
		http.Redirect(w, r, home, http.StatusSeeOther)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	if isJSONRequest(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
