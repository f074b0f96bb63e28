package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hushcampus-dev/hushcampus/internal/errors"
	"github.com/hushcampus-dev/hushcampus/internal/jwt"
	"github.com/hushcampus-dev/hushcampus/internal/utils"
)

// Key to store the session claims in the request context
type key int

const ClaimsKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService jwt.JwtService
}

func NewAuth(jwtService jwt.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth returns middleware that requires a valid session token
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// ModeratorOnly returns middleware that requires the moderator capability
func (a *Auth) ModeratorOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

func (a *Auth) auth(moderatorOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.extractClaims(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if moderatorOnly && !claims.Moderator && !claims.Admin {
				http.Error(w, "Moderator capability required", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Auth) extractClaims(r *http.Request) (*jwt.Claims, error) {
	// Try the cookie first (browser clients), then the Authorization header
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return nil, &errors.ErrorWithStatusCode{Message: "Missing access token", StatusCode: http.StatusUnauthorized}
	}
	return a.jwtService.DecodeToken(tokenString)
}

// ClaimsFromContext returns the session claims placed by NeedAuth.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims)
	return claims, ok
}
