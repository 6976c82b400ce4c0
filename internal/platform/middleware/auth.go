package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"agritrace/internal/domain"
	"agritrace/pkg/requestcontext"
)

// AdminVerifier resolves a bearer token into the acting admin. The session
// provider is external; this subsystem only consumes its claims.
type AdminVerifier interface {
	VerifyToken(tokenString string) (domain.Admin, error)
}

type contextKeyAdmin struct{}

// ContextKeyAdmin is exported for tests that build contexts directly.
var ContextKeyAdmin = contextKeyAdmin{}

// AdminFrom retrieves the authenticated admin from the context.
func AdminFrom(ctx context.Context) (domain.Admin, bool) {
	admin, ok := ctx.Value(ContextKeyAdmin).(domain.Admin)
	return admin, ok
}

// WithAdmin injects an admin identity into a context. Useful for handler
// tests that skip the auth middleware.
func WithAdmin(ctx context.Context, admin domain.Admin) context.Context {
	return context.WithValue(ctx, ContextKeyAdmin, admin)
}

// RequireAdmin authenticates admin routes and stores the resolved identity
// in the request context. Handlers pass it explicitly into services.
func RequireAdmin(verifier AdminVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}
			admin, err := verifier.VerifyToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected admin token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}

// adminClaims is the claim shape the session provider issues for admins.
type adminClaims struct {
	Name        string             `json:"name"`
	Level       string             `json:"level"`
	Permissions domain.Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// JWTAdminVerifier validates HMAC-signed admin tokens.
type JWTAdminVerifier struct {
	signingKey []byte
}

func NewJWTAdminVerifier(signingKey string) *JWTAdminVerifier {
	return &JWTAdminVerifier{signingKey: []byte(signingKey)}
}

func (v *JWTAdminVerifier) VerifyToken(tokenString string) (domain.Admin, error) {
	claims := &adminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return domain.Admin{}, fmt.Errorf("parse admin token: %w", err)
	}
	if !token.Valid {
		return domain.Admin{}, fmt.Errorf("admin token invalid")
	}
	level := domain.AdminLevel(claims.Level)
	if level != domain.AdminLevelSuper {
		level = domain.AdminLevelStandard
	}
	return domain.Admin{
		ID:          claims.Subject,
		Name:        claims.Name,
		Level:       level,
		Permissions: claims.Permissions,
	}, nil
}

// MintAdminToken signs a token carrying the admin's identity and permission
// set. The real session provider owns issuance; this exists for tests and
// local development seeding.
func MintAdminToken(signingKey string, admin domain.Admin) (string, error) {
	claims := adminClaims{
		Name:        admin.Name,
		Level:       string(admin.Level),
		Permissions: admin.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: admin.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signingKey))
}
