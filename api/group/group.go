package group

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/middleware"
	"github.com/Riciboyz/threads-backend/notify"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handlers struct {
	logger     *logrus.Logger
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	svc        *auth.Service
}

func NewHandlers(logger *logrus.Logger, db *gorm.DB, dispatcher *notify.Dispatcher, svc *auth.Service) *Handlers {
	return &Handlers{logger: logger, db: db, dispatcher: dispatcher, svc: svc}
}

func (h *Handlers) listGroups(w http.ResponseWriter, r *http.Request) {
	grps := make([]OutListGroup, 0)
	err := h.db.WithContext(r.Context()).
		Model(&model.Group{}).
		Select("groups.*, (SELECT count(*) FROM memberships WHERE memberships.group_id = groups.id) AS member_count").
		Order("groups.created_at DESC").
		Find(&grps).Error
	if err != nil {
		h.logger.WithError(err).Error("group: list")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, grps)
}

func (h *Handlers) createGroup(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	var body InCreateGroup
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == nil || *body.Name == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "missing field: name")
		return
	}

	g := &model.Group{
		Name:      *body.Name,
		CreatorID: u.ID,
		Members:   []*model.User{u},
	}
	if body.Description != nil {
		g.Description = *body.Description
	}
	if err := h.db.WithContext(r.Context()).Create(g).Error; err != nil {
		h.logger.WithError(err).Error("group: create")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, &OutGroup{Base: g.Base, Name: g.Name, Description: g.Description, CreatorID: g.CreatorID})
}

func (h *Handlers) getGroup(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("group").(*model.Group)
	if err := h.db.WithContext(r.Context()).Preload("Members").First(g, "id = ?", g.ID).Error; err != nil {
		h.logger.WithError(err).Error("group: get")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, g)
}

func (h *Handlers) joinGroup(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	g := r.Context().Value("group").(*model.Group)
	db := h.db.WithContext(r.Context())

	var exists bool
	if err := db.Raw("SELECT EXISTS(SELECT 1 FROM memberships WHERE user_id = ? AND group_id = ?)", u.ID, g.ID).Scan(&exists).Error; err != nil {
		h.logger.WithError(err).Error("group: membership check")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	if exists {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "already joined")
		return
	}

	m := &model.Membership{UserID: u.ID, GroupID: g.ID, Notifications: true}
	if err := db.Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "already joined")
			return
		}
		h.logger.WithError(err).Error("group: join")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}

	h.dispatcher.Dispatch(r.Context(), &model.Notification{
		UserID:  g.CreatorID,
		Type:    model.NotificationGroup,
		ActorID: u.ID,
		Message: fmt.Sprintf("%s joined %s", u.Displayname, g.Name),
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) leaveGroup(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	g := r.Context().Value("group").(*model.Group)
	res := h.db.WithContext(r.Context()).Where("user_id = ? AND group_id = ?", u.ID, g.ID).Delete(&model.Membership{})
	if res.Error != nil {
		h.logger.WithError(res.Error).Error("group: leave")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	if res.RowsAffected == 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "not a member")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) updateNotifications(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	g := r.Context().Value("group").(*model.Group)

	m := &model.Membership{}
	if err := h.db.WithContext(r.Context()).Where("user_id = ? AND group_id = ?", u.ID, g.ID).First(m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not a member")
		} else {
			h.logger.WithError(err).Error("group: load membership")
			api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		}
		return
	}

	var body struct {
		Notifications *bool `json:"notifications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Notifications == nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "missing field: notifications")
		return
	}
	m.Notifications = *body.Notifications
	if err := h.db.WithContext(r.Context()).Save(m).Error; err != nil {
		h.logger.WithError(err).Error("group: update membership")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/groups", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger, h.svc))
		r.Get("/", h.listGroups)
		r.Post("/", h.createGroup)
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithGroup(h.db))
			r.Get("/{groupID}", h.getGroup)
			r.Post("/{groupID}/join", h.joinGroup)
			r.Post("/{groupID}/leave", h.leaveGroup)
			r.Post("/{groupID}/notifications", h.updateNotifications)
		})
	})
}
