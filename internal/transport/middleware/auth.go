package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "github.com/frahmantamala/giving-api/internal"
	"github.com/frahmantamala/giving-api/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// GivingClaims are the token claims the API cares about: the tenant and,
// when present, the person acting.
type GivingClaims struct {
	ChurchID string `json:"churchId"`
	PersonID string `json:"personId,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates the Bearer token and stows churchId/personId in
// the request context. Requests without a valid token never reach handlers.
func Authenticator(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				writeAuthError(w, apperrors.ErrInvalidToken)
				return
			}

			claims := &GivingClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, apperrors.ErrInvalidToken
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				appErr := apperrors.ErrInvalidToken
				if err != nil && strings.Contains(err.Error(), jwt.ErrTokenExpired.Error()) {
					appErr = apperrors.ErrTokenExpired
				}
				writeAuthError(w, appErr)
				return
			}

			if claims.ChurchID == "" {
				writeAuthError(w, apperrors.ErrInvalidToken)
				return
			}

			ctx := apperrors.ContextWithChurchID(r.Context(), claims.ChurchID)
			if claims.PersonID != "" {
				ctx = apperrors.ContextWithPersonID(ctx, claims.PersonID)
			}
			ctx = logger.With(ctx, "church_id", claims.ChurchID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return authHeader[7:]
}

func writeAuthError(w http.ResponseWriter, appErr *apperrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
