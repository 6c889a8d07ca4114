package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.LoginAttempt(LoginSuccess)
	m.LoginAttempt(LoginInvalid)
	m.LoginAttempt(LoginInvalid)
	m.Verdict("admin", "redirect")

	if got := testutil.ToFloat64(m.loginAttempts.WithLabelValues(LoginInvalid)); got != 2 {
		t.Fatalf("expected 2 invalid attempts, got %v", got)
	}
	if got := testutil.ToFloat64(m.verdicts.WithLabelValues("admin", "redirect")); got != 1 {
		t.Fatalf("expected 1 verdict, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `thesis_archive_login_attempts_total{result="success"} 1`) {
		t.Fatalf("login counter missing from exposition")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.LoginAttempt(LoginSuccess)
	m.Verdict("public", "allow")
}
