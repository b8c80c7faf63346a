package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/sirupsen/logrus"
)

// Authenticator resolves the bearer token to a user via the auth service and
// stores "user" and "token" on the request context.
func Authenticator(logger *logrus.Logger, svc *auth.Service) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "missing bearer token")
				return
			}
			u, err := svc.VerifySession(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrSessionExpired):
					api.WriteError(w, http.StatusUnauthorized, api.CodeSessionExpired, "session expired")
				case errors.Is(err, auth.ErrSessionNotFound):
					api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid session")
				default:
					logger.WithError(err).Error("auth: verify session")
					api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
				}
				return
			}
			ctx := context.WithValue(r.Context(), "user", u)
			ctx = context.WithValue(ctx, "token", token)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
