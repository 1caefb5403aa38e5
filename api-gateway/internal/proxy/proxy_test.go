package proxy

import (
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestRewritePath(t *testing.T) {
	cases := []struct {
		original, strip, add, want string
	}{
		{"/api/trips/abc/assign", "/api/trips", "/trips", "/trips/abc/assign"},
		{"/api/trips", "/api/trips", "/trips", "/trips"},
		{"/api/vehicles/1", "/api/vehicles", "/api/vehicles", "/api/vehicles/1"},
		{"/api/admin/users/7/block", "/api/admin/users", "/users/", "/users/7/block"},
	}
	for _, tc := range cases {
		if got := rewritePath(tc.original, tc.strip, tc.add); got != tc.want {
			t.Errorf("rewritePath(%q): expected %q, got %q", tc.original, tc.want, got)
		}
	}
}

func TestProxyDropsInternalHeader(t *testing.T) {
	var gotPath, gotInternal string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInternal = r.Header.Get(auth.InternalServiceHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/api/trips/*proxyPath", CreateProxy(upstream.URL, "/api/trips", "/trips"))

	req := httptest.NewRequest(http.MethodGet, "/api/trips/my", nil)
	req.Header.Set(auth.InternalServiceHeader, "true")
	w := newRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if gotPath != "/trips/my" {
		t.Errorf("expected /trips/my upstream, got %q", gotPath)
	}
	if gotInternal != "" {
		t.Errorf("internal header leaked upstream: %q", gotInternal)
	}
}

func TestProxyUpstreamDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/api/trips/*proxyPath", CreateProxy("http://127.0.0.1:1", "/api/trips", "/trips"))

	w := newRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trips/my", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
