package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	InternalServiceHeader = "X-Internal-Service"
	callerKey             = "caller"
)

type ctxKey struct{}

// WithCaller stores the caller on a plain context (used by net/http handlers).
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(ctxKey{}).(Caller)
	return caller, ok
}

// CallerFrom returns the caller placed on the gin context by JWTMiddleware.
func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func isInternal(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(InternalServiceHeader), "true")
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"success": false, "message": message})
}

// JWTMiddleware verifies the bearer token and puts the caller in the context.
func JWTMiddleware(j *JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "authorization header required")
			return
		}
		token := bearerToken(header)
		if token == "" {
			abort(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		caller, err := j.ParseCaller(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(callerKey, caller)
		c.Request = c.Request.WithContext(WithCaller(c.Request.Context(), caller))
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the caller has one of the allowed roles.
func RequireRoles(allowed ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			abort(c, http.StatusForbidden, "role not found")
			return
		}
		for _, role := range allowed {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "access denied")
	}
}

// InternalOnly accepts service-to-service calls marked with X-Internal-Service.
func InternalOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isInternal(c.Request) {
			abort(c, http.StatusForbidden, "internal endpoint")
			return
		}
		c.Next()
	}
}

// InternalOrJWT lets internal calls through and otherwise requires a valid token.
func InternalOrJWT(j *JWTUtil) gin.HandlerFunc {
	jwtMW := JWTMiddleware(j)
	return func(c *gin.Context) {
		if isInternal(c.Request) {
			c.Next()
			return
		}
		jwtMW(c)
	}
}

// HTTPMiddleware is the net/http flavour used by gorilla/mux routers.
// With allowInternal, requests carrying X-Internal-Service skip token checks.
func HTTPMiddleware(j *JWTUtil, allowInternal bool, allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowInternal && isInternal(r) {
				next.ServeHTTP(w, r)
				return
			}
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "bearer token required")
				return
			}
			caller, err := j.ParseCaller(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if len(allowed) > 0 && !hasRole(caller.Role, allowed) {
				writeError(w, http.StatusForbidden, "insufficient privileges")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func hasRole(role Role, allowed []Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}
