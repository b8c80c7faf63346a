package socket

import (
	"net/http"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/ws"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handlers struct {
	logger *logrus.Logger
	hub    *ws.Hub
	svc    *auth.Service
}

func NewHandlers(logger *logrus.Logger, hub *ws.Hub, svc *auth.Service) *Handlers {
	return &Handlers{logger: logger, hub: hub, svc: svc}
}

// connect upgrades to a websocket. A ?token= query binds the connection to
// the verified user immediately; a bare connection stays unauthenticated
// until it sends an authenticate event. Either way the identity comes from
// the session store, never from a claimed id.
func (h *Handlers) connect(w http.ResponseWriter, r *http.Request) {
	var userID string
	if token := r.URL.Query().Get("token"); token != "" {
		u, err := h.svc.VerifySession(r.Context(), token)
		if err != nil {
			api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid session")
			return
		}
		userID = u.ID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("socket: upgrade")
		return
	}
	c := ws.NewClient(&ws.ClientCfg{
		Logger:   h.logger,
		Hub:      h.hub,
		Conn:     conn,
		Verifier: h.svc,
		UserID:   userID,
	})
	h.hub.Register() <- c
	go c.WritePump()
	go c.ReadPump()
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Get("/socket", h.connect)
}
