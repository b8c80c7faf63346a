package topic

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

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

func (h *Handlers) listTopics(w http.ResponseWriter, r *http.Request) {
	topics := make([]model.Topic, 0)
	if err := h.db.WithContext(r.Context()).Order("date DESC").Find(&topics).Error; err != nil {
		h.logger.WithError(err).Error("topic: list")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, topics)
}

func (h *Handlers) today(w http.ResponseWriter, r *http.Request) {
	t := &model.Topic{}
	today := time.Now().Format("2006-01-02")
	if err := h.db.WithContext(r.Context()).Where("date = ? AND active = ?", today, true).First(t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "no topic today")
		} else {
			h.logger.WithError(err).Error("topic: today")
			api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, t)
}

func (h *Handlers) createTopic(w http.ResponseWriter, r *http.Request) {
	var body InCreateTopic
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Title == "" || body.Date == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "title and date are required")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "date must be YYYY-MM-DD")
		return
	}

	t := &model.Topic{
		Title:       body.Title,
		Description: body.Description,
		Date:        body.Date,
		Active:      body.Date == time.Now().Format("2006-01-02"),
	}
	if err := h.db.WithContext(r.Context()).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			api.WriteError(w, http.StatusConflict, api.CodeValidation, "a topic already exists for that date")
			return
		}
		h.logger.WithError(err).Error("topic: create")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	api.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/topics", func(r chi.Router) {
		r.Use(middleware.Authenticator(h.logger, h.svc))
		r.Get("/", h.listTopics)
		r.With(middleware.NoCache).Get("/today", h.today)
		r.Post("/", h.createTopic)
	})
}
