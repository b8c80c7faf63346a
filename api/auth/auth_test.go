package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Riciboyz/threads-backend/api"
	"github.com/Riciboyz/threads-backend/auth"
	"github.com/Riciboyz/threads-backend/db"
	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/env"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestAPI(t *testing.T) (*chi.Mux, *gorm.DB) {
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

	r := chi.NewRouter()
	NewHandlers(logger, svc).SetupRoutes(r)
	return r, gdb
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerAndSignin(t *testing.T, h http.Handler, email, username string) (user map[string]any, token string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email": email, "username": username, "password": "password1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/signin", map[string]string{
		"email": email, "password": "password1",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.User, out.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Error
}

func TestRegisterEndpoint(t *testing.T) {
	h, _ := newTestAPI(t)
	rec := doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email": "alice@x.com", "username": "alice", "password": "password1",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var u map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "alice@x.com", u["email"])
	assert.Equal(t, "alice", u["username"])
	assert.NotEmpty(t, u["id"])
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "pass")
}

func TestRegisterConflicts(t *testing.T) {
	h, _ := newTestAPI(t)
	registerAndSignin(t, h, "alice@x.com", "alice")

	rec := doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email": "alice@x.com", "username": "other", "password": "password1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeDuplicateEmail, errorCode(t, rec))

	rec = doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email": "other@x.com", "username": "alice", "password": "password1",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeDuplicateUsername, errorCode(t, rec))
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	h, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email": "not-an-email", "username": "alice", "password": "password1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.CodeValidation, errorCode(t, rec))
}

func TestSigninAndCurrentUser(t *testing.T) {
	h, gdb := newTestAPI(t)
	rec := doJSON(t, h, http.MethodPost, "/auth/register", map[string]string{
		"email": "alice@x.com", "username": "alice", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/auth/signin", map[string]string{
		"email": "alice@x.com", "password": "password1",
	}, map[string]string{"X-Expo-Push-Token": "ExponentPushToken[abc]"})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.ExpiresAt.After(time.Now()))

	var sess model.Session
	require.NoError(t, gdb.First(&sess, "token = ?", out.Token).Error)
	assert.Equal(t, "ExponentPushToken[abc]", sess.PushToken)

	rec = doJSON(t, h, http.MethodGet, "/auth/user", nil, bearer(out.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	var u map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "alice@x.com", u["email"])
}

func TestSigninFailuresAreIndistinguishable(t *testing.T) {
	h, _ := newTestAPI(t)
	registerAndSignin(t, h, "alice@x.com", "alice")

	wrongPass := doJSON(t, h, http.MethodPost, "/auth/signin", map[string]string{
		"email": "alice@x.com", "password": "wrongpass1",
	}, nil)
	noUser := doJSON(t, h, http.MethodPost, "/auth/signin", map[string]string{
		"email": "nobody@x.com", "password": "password1",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, noUser.Code)
	assert.Equal(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestCurrentUserRequiresValidSession(t *testing.T) {
	h, gdb := newTestAPI(t)
	user, _ := registerAndSignin(t, h, "alice@x.com", "alice")

	rec := doJSON(t, h, http.MethodGet, "/auth/user", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, api.CodeUnauthorized, errorCode(t, rec))

	rec = doJSON(t, h, http.MethodGet, "/auth/user", nil, bearer(strings.Repeat("00", 32)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, api.CodeUnauthorized, errorCode(t, rec))

	expired := &model.Session{
		UserID:    user["id"].(string),
		Token:     strings.Repeat("ab", 32),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, gdb.Create(expired).Error)
	rec = doJSON(t, h, http.MethodGet, "/auth/user", nil, bearer(expired.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, api.CodeSessionExpired, errorCode(t, rec))
}

func TestSignoutInvalidatesToken(t *testing.T) {
	h, _ := newTestAPI(t)
	_, token := registerAndSignin(t, h, "alice@x.com", "alice")
	_, token2 := registerAndSignin(t, h, "bob@x.com", "bob")

	rec := doJSON(t, h, http.MethodPost, "/auth/signout", nil, bearer(token))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/auth/user", nil, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// an unrelated session keeps working
	rec = doJSON(t, h, http.MethodGet, "/auth/user", nil, bearer(token2))
	assert.Equal(t, http.StatusOK, rec.Code)
}
