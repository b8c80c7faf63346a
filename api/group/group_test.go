package group

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/env"
	"github.com/Riciboyz/threads-backend/notify"
	"github.com/Riciboyz/threads-backend/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	router *chi.Mux
	db     *gorm.DB
	svc    *auth.Service
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
	t.Cleanup(hub.Close)

	r := chi.NewRouter()
	NewHandlers(logger, gdb, notify.NewDispatcher(gdb, hub, logger), svc).SetupRoutes(r)
	return &fixture{router: r, db: gdb, svc: svc}
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

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createGroup(t *testing.T, token, name string) *OutGroup {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/groups", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	g := &OutGroup{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), g))
	return g
}

func TestCreateAndListGroups(t *testing.T) {
	f := newFixture(t)
	alice, tok := f.newUser(t, "alice@x.com", "alice")

	rec := f.do(t, http.MethodPost, "/groups", tok, map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	g := f.createGroup(t, tok, "gophers")
	assert.Equal(t, alice.ID, g.CreatorID)

	rec = f.do(t, http.MethodGet, "/groups", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []OutListGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "gophers", groups[0].Name)
	// the creator is a member from the start
	assert.Equal(t, int64(1), groups[0].MemberCount)
}

func TestJoinAndLeaveGroup(t *testing.T) {
	f := newFixture(t)
	alice, aliceTok := f.newUser(t, "alice@x.com", "alice")
	bob, bobTok := f.newUser(t, "bob@x.com", "bob")
	g := f.createGroup(t, aliceTok, "gophers")

	rec := f.do(t, http.MethodPost, "/groups/"+g.ID+"/join", bobTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/groups/"+g.ID+"/join", bobTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var n model.Notification
	require.NoError(t, f.db.First(&n, "user_id = ?", alice.ID).Error)
	assert.Equal(t, model.NotificationGroup, n.Type)
	assert.Equal(t, bob.ID, n.ActorID)

	rec = f.do(t, http.MethodGet, "/groups/"+g.ID, aliceTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Group
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Members, 2)

	rec = f.do(t, http.MethodPost, "/groups/"+g.ID+"/leave", bobTok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/groups/"+g.ID+"/leave", bobTok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGroupNotFound(t *testing.T) {
	f := newFixture(t)
	_, tok := f.newUser(t, "alice@x.com", "alice")
	rec := f.do(t, http.MethodGet, "/groups/"+uuid.NewString(), tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateNotificationPreference(t *testing.T) {
	f := newFixture(t)
	_, aliceTok := f.newUser(t, "alice@x.com", "alice")
	bob, bobTok := f.newUser(t, "bob@x.com", "bob")
	g := f.createGroup(t, aliceTok, "gophers")

	rec := f.do(t, http.MethodPost, "/groups/"+g.ID+"/notifications", bobTok, map[string]bool{"notifications": false})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/groups/"+g.ID+"/join", bobTok, nil).Code)

	rec = f.do(t, http.MethodPost, "/groups/"+g.ID+"/notifications", bobTok, map[string]bool{"notifications": false})
	assert.Equal(t, http.StatusOK, rec.Code)

	var m model.Membership
	require.NoError(t, f.db.First(&m, "user_id = ? AND group_id = ?", bob.ID, g.ID).Error)
	assert.False(t, m.Notifications)

	rec = f.do(t, http.MethodPost, "/groups/"+g.ID+"/notifications", bobTok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
