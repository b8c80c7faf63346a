package notification

import (
	"errors"
	"net/http"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handlers struct {
	logger *logrus.Logger
	db     *gorm.DB
	svc    *auth.Service
}

func NewHandlers(logger *logrus.Logger, db *gorm.DB, svc *auth.Service) *Handlers {
	return &Handlers{logger: logger, db: db, svc: svc}
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	ns := make([]model.Notification, 0)
	err := h.db.WithContext(r.Context()).
		Preload("Actor").
		Where("user_id = ?", u.ID).
		Order("is_read ASC, created_at DESC").
		Limit(100).
		Find(&ns).Error
	if err != nil {
		h.logger.WithError(err).Error("notification: list")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, ns)
}

func (h *Handlers) markRead(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	id := chi.URLParam(r, "notificationID")
	n := &model.Notification{}
	if err := h.db.WithContext(r.Context()).Where("id = ? AND user_id = ?", id, u.ID).First(n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "notification not found")
		} else {
			h.logger.WithError(err).Error("notification: load")
			api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		}
		return
	}
	n.Read = true
	if err := h.db.WithContext(r.Context()).Save(n).Error; err != nil {
		h.logger.WithError(err).Error("notification: mark read")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	err := h.db.WithContext(r.Context()).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", u.ID, false).
		Update("is_read", true).Error
	if err != nil {
		h.logger.WithError(err).Error("notification: mark all read")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger, h.svc))
		r.With(middleware.NoCache).Get("/", h.list)
		r.Post("/{notificationID}/read", h.markRead)
		r.Post("/read-all", h.markAllRead)
	})
}
