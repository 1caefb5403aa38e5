package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
)

const defaultTokenTTL = 72 * time.Hour

// Claims is the payload shared by every service.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTUtil struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTUtil(secret string) *JWTUtil {
	return &JWTUtil{secret: []byte(secret), ttl: defaultTokenTTL, now: time.Now}
}

// WithTTL overrides the token lifetime.
func (j *JWTUtil) WithTTL(ttl time.Duration) *JWTUtil {
	j.ttl = ttl
	return j
}

func (j *JWTUtil) GenerateToken(userID string, role Role) (string, error) {
	now := j.now()
	claims := Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// ParseCaller validates the token signature and expiry and returns the caller.
func (j *JWTUtil) ParseCaller(tokenString string) (Caller, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil || !token.Valid {
		return Caller{}, ErrInvalidToken
	}
	if claims.UserID == "" {
		return Caller{}, ErrInvalidToken
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		return Caller{}, ErrUnknownRole
	}
	return Caller{ID: claims.UserID, Role: role}, nil
}
