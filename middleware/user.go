package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// WithTargetUser loads the user addressed by {userID} as "target".
func WithTargetUser(db *gorm.DB) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "userID")
			if id == "" {
				api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "missing user id")
				return
			}
			var u model.User
			if err := db.WithContext(r.Context()).First(&u, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "user not found")
				} else {
					api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
				}
				return
			}
			ctx := context.WithValue(r.Context(), "target", &u)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
