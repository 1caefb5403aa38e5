package proxy

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"fleet-app/pkg/auth"

	"github.com/gin-gonic/gin"
)

// CreateProxy forwards to targetHost, replacing stripPrefix with addPrefix.
// The internal service marker is never accepted from outside.
func CreateProxy(targetHost, stripPrefix, addPrefix string) gin.HandlerFunc {
	target, err := url.Parse(targetHost)
	if err != nil {
		log.Fatalf("[GATEWAY] invalid upstream %q: %v", targetHost, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("[GATEWAY] %s %s -> %s failed: %v", r.Method, r.URL.Path, target.Host, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"message":"Upstream unavailable"}`))
	}

	return func(c *gin.Context) {
		c.Request.URL.Path = rewritePath(c.Request.URL.Path, stripPrefix, addPrefix)
		c.Request.URL.RawPath = ""

		c.Request.Header.Del(auth.InternalServiceHeader)
		c.Request.Header.Set("X-Forwarded-Host", c.Request.Host)
		c.Request.Header.Del("X-Forwarded-For")

		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func rewritePath(original, stripPrefix, addPrefix string) string {
	path := strings.TrimPrefix(original, stripPrefix)
	switch {
	case path == "":
		return addPrefix
	case strings.HasSuffix(addPrefix, "/") && strings.HasPrefix(path, "/"):
		return addPrefix + strings.TrimPrefix(path, "/")
	case !strings.HasSuffix(addPrefix, "/") && !strings.HasPrefix(path, "/"):
		return addPrefix + "/" + path
	default:
		return addPrefix + path
	}
}
