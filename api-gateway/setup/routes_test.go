package setup

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-app/api-gateway/internal/config"
	"fleet-app/pkg/auth"

	"github.com/gin-gonic/gin"
)

// recorder adds CloseNotify, which gin's writer asserts when proxying.
type recorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newRecorder() *recorder {
	return &recorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *recorder) CloseNotify() <-chan bool { return r.closed }

func newGateway(t *testing.T) (*gin.Engine, *auth.JWTUtil, *string) {
	t.Helper()
	hit := new(string)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		AllowedOrigins: []string{"http://localhost:3000"},
		Upstreams: config.Upstreams{
			Users: upstream.URL, Drivers: upstream.URL, Trips: upstream.URL,
			Vehicles: upstream.URL, Notifications: upstream.URL,
		},
	}
	return NewRouter(cfg), auth.NewJWTUtil(cfg.JWTSecret), hit
}

func call(t *testing.T, r *gin.Engine, jwt *auth.JWTUtil, path string, role auth.Role) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		token, err := jwt.GenerateToken("u1", role)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := newRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuthRoutesArePublic(t *testing.T) {
	r, jwt, hit := newGateway(t)
	if code := call(t, r, jwt, "/api/auth/login", ""); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if *hit != "/auth/login" {
		t.Errorf("unexpected upstream path %q", *hit)
	}
}

func TestServiceRoutesNeedToken(t *testing.T) {
	r, jwt, hit := newGateway(t)
	if code := call(t, r, jwt, "/api/job-requests/received", ""); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
	if code := call(t, r, jwt, "/api/job-requests/received", auth.RoleDriver); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if *hit != "/job-requests/received" {
		t.Errorf("unexpected upstream path %q", *hit)
	}
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	r, jwt, hit := newGateway(t)
	if code := call(t, r, jwt, "/api/admin/users", auth.RoleCompany); code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", code)
	}
	if code := call(t, r, jwt, "/api/admin/users", auth.RoleAdmin); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if *hit != "/users" {
		t.Errorf("unexpected upstream path %q", *hit)
	}
}
