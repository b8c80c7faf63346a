package thread

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/middleware"
	"github.com/Riciboyz/threads-backend/notify"
	"github.com/Riciboyz/threads-backend/ws"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxContentLen = 500

type Handlers struct {
	logger     *logrus.Logger
	db         *gorm.DB
	hub        *ws.Hub
	dispatcher *notify.Dispatcher
	svc        *auth.Service
}

func NewHandlers(logger *logrus.Logger, db *gorm.DB, hub *ws.Hub, dispatcher *notify.Dispatcher, svc *auth.Service) *Handlers {
	return &Handlers{logger: logger, db: db, hub: hub, dispatcher: dispatcher, svc: svc}
}

func (h *Handlers) createThread(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	var body InCreateThread
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid input")
		return
	}
	if body.Content == "" || len(body.Content) > maxContentLen {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "content must be 1-500 characters")
		return
	}

	db := h.db.WithContext(r.Context())
	if body.GroupID != nil {
		var member bool
		if err := db.Raw("SELECT EXISTS(SELECT 1 FROM memberships WHERE user_id = ? AND group_id = ?)", u.ID, *body.GroupID).Scan(&member).Error; err != nil {
			h.logger.WithError(err).Error("thread: membership check")
			api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
			return
		}
		if !member {
			api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not a member of this group")
			return
		}
	}
	if body.TopicID != nil {
		var exists bool
		if err := db.Raw("SELECT EXISTS(SELECT 1 FROM topics WHERE id = ? AND deleted_at IS NULL)", *body.TopicID).Scan(&exists).Error; err != nil {
			h.logger.WithError(err).Error("thread: topic check")
			api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
			return
		}
		if !exists {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "topic not found")
			return
		}
	}

	t := &model.Thread{
		AuthorID: u.ID,
		GroupID:  body.GroupID,
		TopicID:  body.TopicID,
		Content:  body.Content,
	}
	if err := db.Create(t).Error; err != nil {
		h.logger.WithError(err).Error("thread: create")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	t.Author = u

	h.hub.Publish(ws.EventNewThread, t, threadScope(t))
	api.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handlers) listThreads(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	q := h.db.WithContext(r.Context()).
		Model(&model.Thread{}).
		Select("threads.*, " +
			"(SELECT count(*) FROM likes WHERE likes.thread_id = threads.id) AS like_count, " +
			"(SELECT count(*) FROM comments WHERE comments.thread_id = threads.id AND comments.deleted_at IS NULL) AS comment_count").
		Preload("Author").
		Order("threads.created_at DESC").
		Limit(limit).
		Offset(offset)
	if gid := r.URL.Query().Get("group"); gid != "" {
		q = q.Where("threads.group_id = ?", gid)
	}
	if tid := r.URL.Query().Get("topic"); tid != "" {
		q = q.Where("threads.topic_id = ?", tid)
	}
	threads := make([]model.Thread, 0)
	if err := q.Find(&threads).Error; err != nil {
		h.logger.WithError(err).Error("thread: list")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, threads)
}

func (h *Handlers) getThread(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value("thread").(*model.Thread)
	db := h.db.WithContext(r.Context())
	db.Model(&model.Like{}).Where("thread_id = ?", t.ID).Count(&t.LikeCount)
	db.Model(&model.Comment{}).Where("thread_id = ?", t.ID).Count(&t.CommentCount)
	api.WriteJSON(w, http.StatusOK, t)
}

func (h *Handlers) updateThread(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	t := r.Context().Value("thread").(*model.Thread)
	if t.AuthorID != u.ID {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not the author")
		return
	}
	var body InUpdateThread
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" || len(body.Content) > maxContentLen {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "content must be 1-500 characters")
		return
	}
	t.Content = body.Content
	if err := h.db.WithContext(r.Context()).Save(t).Error; err != nil {
		h.logger.WithError(err).Error("thread: update")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	h.hub.Publish(ws.EventThreadUpdated, t, threadScope(t))
	api.WriteJSON(w, http.StatusOK, t)
}

func (h *Handlers) deleteThread(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	t := r.Context().Value("thread").(*model.Thread)
	if t.AuthorID != u.ID {
		api.WriteError(w, http.StatusForbidden, api.CodeForbidden, "not the author")
		return
	}
	if err := h.db.WithContext(r.Context()).Delete(t).Error; err != nil {
		h.logger.WithError(err).Error("thread: delete")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) like(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	t := r.Context().Value("thread").(*model.Thread)
	l := &model.Like{UserID: u.ID, ThreadID: t.ID}
	if err := h.db.WithContext(r.Context()).Create(l).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "already liked")
			return
		}
		h.logger.WithError(err).Error("thread: like")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	h.dispatcher.Dispatch(r.Context(), &model.Notification{
		UserID:   t.AuthorID,
		Type:     model.NotificationLike,
		ActorID:  u.ID,
		ThreadID: &t.ID,
		Message:  fmt.Sprintf("%s liked your thread", u.Displayname),
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) unlike(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	t := r.Context().Value("thread").(*model.Thread)
	res := h.db.WithContext(r.Context()).Where("user_id = ? AND thread_id = ?", u.ID, t.ID).Delete(&model.Like{})
	if res.Error != nil {
		h.logger.WithError(res.Error).Error("thread: unlike")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	if res.RowsAffected == 0 {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "not liked")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) listComments(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value("thread").(*model.Thread)
	comments := make([]model.Comment, 0)
	err := h.db.WithContext(r.Context()).
		Preload("Author").
		Where("thread_id = ?", t.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		h.logger.WithError(err).Error("thread: list comments")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handlers) createComment(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	t := r.Context().Value("thread").(*model.Thread)
	var body InCreateComment
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" || len(body.Content) > maxContentLen {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "content must be 1-500 characters")
		return
	}
	c := &model.Comment{ThreadID: t.ID, AuthorID: u.ID, Content: body.Content}
	if err := h.db.WithContext(r.Context()).Create(c).Error; err != nil {
		h.logger.WithError(err).Error("thread: create comment")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	c.Author = u
	h.dispatcher.Dispatch(r.Context(), &model.Notification{
		UserID:   t.AuthorID,
		Type:     model.NotificationComment,
		ActorID:  u.ID,
		ThreadID: &t.ID,
		Message:  fmt.Sprintf("%s commented on your thread", u.Displayname),
	})
	h.hub.Publish(ws.EventThreadUpdated, t, threadScope(t))
	api.WriteJSON(w, http.StatusCreated, c)
}

// threadScope picks where a thread's relay events go: its group topic, or
// every connected client for groupless threads.
func threadScope(t *model.Thread) string {
	if t.GroupID != nil {
		return ws.GroupTopic(*t.GroupID)
	}
	return ws.ScopeAll
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/threads", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger, h.svc))
		r.Get("/", h.listThreads)
		r.Post("/", h.createThread)
		r.Group(func(r chi.Router) {
			r.Use(middleware.WithThread(h.db))
			r.Get("/{threadID}", h.getThread)
			r.Put("/{threadID}", h.updateThread)
			r.Delete("/{threadID}", h.deleteThread)
			r.Post("/{threadID}/like", h.like)
			r.Delete("/{threadID}/like", h.unlike)
			r.Get("/{threadID}/comments", h.listComments)
			r.Post("/{threadID}/comments", h.createComment)
		})
	})
}
