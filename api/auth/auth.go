package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	logger *logrus.Logger
	svc    *auth.Service
}

func NewHandlers(logger *logrus.Logger, svc *auth.Service) *Handlers {
	return &Handlers{logger: logger, svc: svc}
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var body auth.RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid input")
		return
	}
	u, err := h.svc.Register(r.Context(), body)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handlers) signin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid input")
		return
	}
	if body.Email == "" || body.Password == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid input")
		return
	}
	u, sess, err := h.svc.Login(r.Context(), body.Email, body.Password, r.Header.Get("X-Expo-Push-Token"))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, &OutSignin{
		User:      u,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (h *Handlers) signout(w http.ResponseWriter, r *http.Request) {
	token := r.Context().Value("token").(string)
	if err := h.svc.Logout(r.Context(), token); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		h.logger.WithError(err).Error("auth: signout")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) user(w http.ResponseWriter, r *http.Request) {
	u := r.Context().Value("user").(*model.User)
	api.WriteJSON(w, http.StatusOK, u)
}

func (h *Handlers) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid input")
	case errors.Is(err, auth.ErrDuplicateEmail):
		api.WriteError(w, http.StatusConflict, api.CodeDuplicateEmail, "email already registered")
	case errors.Is(err, auth.ErrDuplicateUsername):
		api.WriteError(w, http.StatusConflict, api.CodeDuplicateUsername, "username already taken")
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.WriteError(w, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid email or password")
	default:
		h.logger.WithError(err).Error("auth: handler")
		api.WriteError(w, http.StatusInternalServerError, api.CodeStorage, "internal error")
	}
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/signin", h.signin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(h.logger, h.svc))
			r.With(middleware.NoCache).Get("/user", h.user)
			r.Post("/signout", h.signout)
		})
	})
}
