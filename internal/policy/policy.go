package policy

import (
	"strings"

	"thesisarchive/internal/auth"
)

const (
	AdminLoginPath   = "/admin/login"
	StudentLoginPath = "/student/login"
)

type Tier int

const (
	Unclassified Tier = iota
	Public
	AdminOnly
	StudentOnly
)

func (t Tier) String() string {
	switch t {
	case Public:
		return "public"
	case AdminOnly:
		return "admin"
	case StudentOnly:
		return "student"
	default:
		return "unclassified"
	}
}

// Verdict is either Allow or a redirect to Target.
type Verdict struct {
	Allow  bool
	Target string
}

func allow() Verdict { return Verdict{Allow: true} }

func redirect(target string) Verdict { return Verdict{Target: target} }

func (v Verdict) String() string {
	if v.Allow {
		return "allow"
	}
	return "redirect"
}

// Engine evaluates the page access policy. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	public  map[string]struct{}
	admin   []string
	student []string
	bypass  []string
}

func New(routes Routes) *Engine {
	public := make(map[string]struct{}, len(routes.Public))
	for _, path := range routes.Public {
		public[path] = struct{}{}
	}
	return &Engine{
		public:  public,
		admin:   append([]string(nil), routes.Admin...),
		student: append([]string(nil), routes.Student...),
		bypass:  append([]string(nil), routes.Bypass...),
	}
}

// Bypass reports whether path is outside the page policy (API, assets,
// health checks). Those handlers do their own checks.
func (e *Engine) Bypass(path string) bool {
	return hasAnyPrefix(path, e.bypass)
}

// Classify checks the public set first, then admin prefixes, then student
// prefixes.
func (e *Engine) Classify(path string) Tier {
	if _, ok := e.public[path]; ok {
		return Public
	}
	if hasAnyPrefix(path, e.admin) {
		return AdminOnly
	}
	if hasAnyPrefix(path, e.student) {
		return StudentOnly
	}
	return Unclassified
}

// Authorize never fails: every path yields a verdict. identity is nil for
// anonymous callers.
func (e *Engine) Authorize(path string, identity *auth.Identity) Verdict {
	switch e.Classify(path) {
	case Public:
		if identity != nil && isLoginPage(path) {
			return redirect(identity.Role.HomePath())
		}
		return allow()
	case AdminOnly:
		if identity == nil {
			return redirect(AdminLoginPath)
		}
		if identity.Role != auth.RoleAdmin {
			return redirect(auth.RoleStudent.HomePath())
		}
		return allow()
	case StudentOnly:
		if identity == nil {
			return redirect(StudentLoginPath)
		}
		if identity.Role == auth.RoleAdmin {
			return redirect(auth.RoleAdmin.HomePath())
		}
		return allow()
	default:
		// unclassified paths stay open
		return allow()
	}
}

func isLoginPage(path string) bool {
	return strings.Contains(path, "/login")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
