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

func WithThread(db *gorm.DB) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			tid := chi.URLParam(r, "threadID")
			if tid == "" {
				api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "missing thread id")
				return
			}
			var t model.Thread
			if err := db.WithContext(r.Context()).Preload("Author").First(&t, "id = ?", tid).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "thread not found")
				} else {
					api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
				}
				return
			}
			ctx := context.WithValue(r.Context(), "thread", &t)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
