package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/env"
	"github.com/Riciboyz/threads-backend/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	srv *httptest.Server
	hub *ws.Hub
	svc *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := db.Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	env.BCRYPT_COST = bcrypt.MinCost
	svc := auth.NewService(gdb, logger)
	hub := ws.NewHub(logger)
	go hub.Run()

	r := chi.NewRouter()
	NewHandlers(logger, hub, svc).SetupRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return &fixture{srv: srv, hub: hub, svc: svc}
}

func (f *fixture) newUser(t *testing.T, email, username string) (*model.User, string) {
	t.Helper()
	u, err := f.svc.Register(context.Background(), auth.RegisterParams{
		Email: email, Username: username, Password: "password1",
	})
	require.NoError(t, err)
	_, sess, err := f.svc.Login(context.Background(), email, "password1", "")
	require.NoError(t, err)
	return u, sess.Token
}

func (f *fixture) wsURL(query string) string {
	u := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/socket"
	if query != "" {
		u += "?" + query
	}
	return u
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(query), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *ws.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	// coalesced frames carry one event per line
	line, _, _ := strings.Cut(string(data), "\n")
	evt := &ws.Event{}
	require.NoError(t, json.Unmarshal([]byte(line), evt))
	return evt
}

// publishUntilRead republishes in the background while a single read waits,
// covering the window before an inbound subscription takes effect.
func publishUntilRead(t *testing.T, conn *websocket.Conn, publish func()) *ws.Event {
	t.Helper()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				publish()
				time.Sleep(50 * time.Millisecond)
			}
		}
	}()
	return readEvent(t, conn)
}

func TestConnectRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL("token="+strings.Repeat("00", 32)), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectWithTokenBindsUserTopic(t *testing.T) {
	f := newFixture(t)
	u, token := f.newUser(t, "alice@x.com", "alice")
	conn := f.dial(t, "token="+token)

	// registration races the handshake, so republish until the read lands
	evt := publishUntilRead(t, conn, func() {
		f.hub.Publish(ws.EventNewNotification, map[string]string{"id": "n1"}, ws.UserTopic(u.ID))
	})
	assert.Equal(t, ws.EventNewNotification, evt.Event)
}

func TestAnonymousConnectAuthenticatesOverWire(t *testing.T) {
	f := newFixture(t)
	u, token := f.newUser(t, "alice@x.com", "alice")
	conn := f.dial(t, "")

	payload, err := json.Marshal(map[string]string{"token": token})
	require.NoError(t, err)
	msg, err := json.Marshal(&ws.Event{Event: ws.EventAuthenticate, Payload: payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))

	evt := publishUntilRead(t, conn, func() {
		f.hub.Publish(ws.EventNewNotification, nil, ws.UserTopic(u.ID))
	})
	assert.Equal(t, ws.EventNewNotification, evt.Event)
}

func TestJoinGroupOverWire(t *testing.T) {
	f := newFixture(t)
	conn := f.dial(t, "")

	payload, err := json.Marshal(map[string]string{"group_id": "g1"})
	require.NoError(t, err)
	msg, err := json.Marshal(&ws.Event{Event: ws.EventJoinGroup, Payload: payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, msg))

	evt := publishUntilRead(t, conn, func() {
		f.hub.Publish(ws.EventNewThread, nil, ws.GroupTopic("g1"))
	})
	assert.Equal(t, ws.EventNewThread, evt.Event)
}
