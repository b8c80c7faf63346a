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

func WithGroup(db *gorm.DB) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			gid := chi.URLParam(r, "groupID")
			if gid == "" {
				api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "missing group id")
				return
			}
			var grp model.Group
			if err := db.WithContext(r.Context()).First(&grp, "id = ?", gid).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "group not found")
				} else {
					api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
				}
				return
			}
			ctx := context.WithValue(r.Context(), "group", &grp)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
