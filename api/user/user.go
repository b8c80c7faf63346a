package user

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
	"github.com/Riciboyz/threads-backend/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxAvatarBytes = 5 << 20

type Handlers struct {
	logger     *logrus.Logger
	db         *gorm.DB
	dispatcher *notify.Dispatcher
	svc        *auth.Service
}

func NewHandlers(logger *logrus.Logger, db *gorm.DB, dispatcher *notify.Dispatcher, svc *auth.Service) *Handlers {
	return &Handlers{logger: logger, db: db, dispatcher: dispatcher, svc: svc}
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	target := r.Context().Value("target").(*model.User)
	db := h.db.WithContext(r.Context())
	out := &OutProfile{User: target}
	db.Model(&model.Follow{}).Where("followee_id = ?", target.ID).Count(&out.FollowerCount)
	db.Model(&model.Follow{}).Where("follower_id = ?", target.ID).Count(&out.FollowingCount)
	api.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	var body InUpdateProfile
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid input")
		return
	}
	if body.Displayname != nil {
		if *body.Displayname == "" || len(*body.Displayname) > 50 {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "displayname must be 1-50 characters")
			return
		}
		u.Displayname = *body.Displayname
	}
	if body.Bio != nil {
		if len(*body.Bio) > 500 {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "bio must be at most 500 characters")
			return
		}
		u.Bio = *body.Bio
	}
	if err := h.db.WithContext(r.Context()).Save(u).Error; err != nil {
		h.logger.WithError(err).Error("user: update")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, u)
}

func (h *Handlers) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid multipart body")
		return
	}
	f, _, err := r.FormFile("avatar")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "missing file: avatar")
		return
	}
	defer f.Close()

	url, err := storage.Upload(r.Context(), f)
	if err != nil {
		h.logger.WithError(err).Error("user: avatar upload")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "upload failed")
		return
	}
	u.AvatarURL = url
	if err := h.db.WithContext(r.Context()).Save(u).Error; err != nil {
		h.logger.WithError(err).Error("user: save avatar url")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, u)
}

func (h *Handlers) follow(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	target := r.Context().Value("target").(*model.User)
	if u.ID == target.ID {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "cannot follow yourself")
		return
	}
	f := &model.Follow{FollowerID: u.ID, FolloweeID: target.ID}
	if err := h.db.WithContext(r.Context()).Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "already following")
			return
		}
		h.logger.WithError(err).Error("user: follow")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	h.dispatcher.Dispatch(r.Context(), &model.Notification{
		UserID:  target.ID,
		Type:    model.NotificationFollow,
		ActorID: u.ID,
		Message: fmt.Sprintf("%s followed you", u.Displayname),
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) unfollow(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	target := r.Context().Value("target").(*model.User)
	res := h.db.WithContext(r.Context()).Where("follower_id = ? AND followee_id = ?", u.ID, target.ID).Delete(&model.Follow{})
	if res.Error != nil {
		h.logger.WithError(res.Error).Error("user: unfollow")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	if res.RowsAffected == 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "not following")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) followers(w http.ResponseWriter, r *http.Request) {
	target := r.Context().Value("target").(*model.User)
	users := make([]model.User, 0)
	err := h.db.WithContext(r.Context()).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followee_id = ?", target.ID).
		Find(&users).Error
	if err != nil {
		h.logger.WithError(err).Error("user: followers")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, users)
}

func (h *Handlers) following(w http.ResponseWriter, r *http.Request) {
	target := r.Context().Value("target").(*model.User)
	users := make([]model.User, 0)
	err := h.db.WithContext(r.Context()).
		Joins("JOIN follows ON follows.followee_id = users.id").
		Where("follows.follower_id = ?", target.ID).
		Find(&users).Error
	if err != nil {
		h.logger.WithError(err).Error("user: following")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, users)
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger, h.svc))
		r.Put("/me", h.updateMe)
		r.Post("/me/avatar", h.uploadAvatar)
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithTargetUser(h.db))
			r.With(middleware.NoCache).Get("/{userID}", h.getUser)
			r.Post("/{userID}/follow", h.follow)
			r.Delete("/{userID}/follow", h.unfollow)
			r.Get("/{userID}/followers", h.followers)
			r.Get("/{userID}/following", h.following)
		})
	})
}
