package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarkussPinkovskis/ColorGen/avatar"
	"github.com/MarkussPinkovskis/ColorGen/config"
	"github.com/MarkussPinkovskis/ColorGen/eventlogger"
	"github.com/MarkussPinkovskis/ColorGen/palette"
	"github.com/MarkussPinkovskis/ColorGen/server"
	"github.com/MarkussPinkovskis/ColorGen/session"
	"github.com/MarkussPinkovskis/ColorGen/store"
	"github.com/MarkussPinkovskis/ColorGen/user"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	reply string
	err   error
	calls int
}

func (m *stubModel) Complete(ctx context.Context, system, usr string) (string, error) {
	m.calls++
	return m.reply, m.err
}

func newTestServer(t *testing.T, model *stubModel) *server.Server {
	t.Helper()
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	db, _, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := user.NewSQLiteRepository(db)
	sessions := session.NewSQLiteRepository(db, time.Hour)

	worker := eventlogger.NewWorker(eventlogger.NewSQLiteEventLogger(db), 100)
	worker.Start()
	t.Cleanup(worker.Shutdown)

	avatars, err := avatar.NewManager(filepath.Join(t.TempDir(), "avatars"), users)
	require.NoError(t, err)

	return server.New(users, sessions, avatars, palette.NewService(model), worker, "../templates", "../static")
}

func postForm(srv *server.Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, srv *server.Server, email, password string) *http.Cookie {
	t.Helper()
	w := postForm(srv, "/register", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusOK, w.Code)

	w = postForm(srv, "/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestRegisterThenLogin(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	w := postForm(srv, "/register", url.Values{"email": {"a@x.com"}, "password": {"right"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Registration successful")

	w = postForm(srv, "/login", url.Values{"email": {"a@x.com"}, "password": {"right"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Result().Header.Get("Location"))
	require.NotEmpty(t, w.Result().Cookies())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	w := postForm(srv, "/register", url.Values{"email": {"a@x.com"}, "password": {"right"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = postForm(srv, "/register", url.Values{"email": {"a@x.com"}, "password": {"other"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Email already exists!")
}

func TestRegisterEmptyFields(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	w := postForm(srv, "/register", url.Values{"email": {""}, "password": {""}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Email and password are required")
}

// Wrong password and unknown email must be indistinguishable.
func TestLoginFailuresAreIdentical(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	w := postForm(srv, "/register", url.Values{"email": {"a@x.com"}, "password": {"right"}})
	require.Equal(t, http.StatusOK, w.Code)

	wrongPassword := postForm(srv, "/login", url.Values{"email": {"a@x.com"}, "password": {"wrong"}})
	unknownEmail := postForm(srv, "/login", url.Values{"email": {"unknown@x.com"}, "password": {"right"}})

	require.Equal(t, wrongPassword.Code, unknownEmail.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	require.Contains(t, wrongPassword.Body.String(), "Invalid email or password")
}

func TestProtectedPagesRedirect(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	for _, path := range []string{"/", "/profile"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		require.Equal(t, http.StatusSeeOther, w.Code, path)
		require.Equal(t, "/login", w.Result().Header.Get("Location"), path)
	}
}

func TestProtectedAPIsReturn401(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	for _, path := range []string{"/color-recomend", "/color-random", "/upload-avatar"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, path)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), path)
		require.Equal(t, "Not logged in", resp["error"], path)
	}
}

func TestColorRecommend(t *testing.T) {
	model := &stubModel{reply: "```json\n" +
		`[{"hex":"#C70039","name":"Crimson"},{"hex":"#900C3F","name":"Berry"},` +
		`{"hex":"#581845","name":"Plum"},{"hex":"#FFC300","name":"Gold"}]` + "\n```"}
	srv := newTestServer(t, model)
	cookie := loginAs(t, srv, "a@x.com", "right")

	req := httptest.NewRequest(http.MethodPost, "/color-recomend", strings.NewReader(`{"color":"#FF5733"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Colors []palette.Color `json:"colors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Colors, 4)
	require.Equal(t, "Crimson", resp.Colors[0].Name)
}

func TestColorRecommendEmptyColor(t *testing.T) {
	model := &stubModel{}
	srv := newTestServer(t, model)
	cookie := loginAs(t, srv, "a@x.com", "right")

	req := httptest.NewRequest(http.MethodPost, "/color-recomend", strings.NewReader(`{"color":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "No color provided")
	require.Zero(t, model.calls, "no upstream call on empty color")
}

func TestColorRecommendUpstreamFailure(t *testing.T) {
	model := &stubModel{err: errors.New("upstream timeout")}
	srv := newTestServer(t, model)
	cookie := loginAs(t, srv, "a@x.com", "right")

	req := httptest.NewRequest(http.MethodPost, "/color-recomend", strings.NewReader(`{"color":"#FF5733"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "upstream timeout")
}

func TestColorRandom(t *testing.T) {
	model := &stubModel{reply: `{"primary":{"hex":"#2E86AB","name":"Ocean"},` +
		`"colors":[{"hex":"#A23B72","name":"Magenta"},{"hex":"#F18F01","name":"Tangerine"},` +
		`{"hex":"#C73E1D","name":"Rust"},{"hex":"#3B1F2B","name":"Cocoa"}]}`}
	srv := newTestServer(t, model)
	cookie := loginAs(t, srv, "a@x.com", "right")

	req := httptest.NewRequest(http.MethodPost, "/color-random", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Primary palette.Color   `json:"primary"`
		Colors  []palette.Color `json:"colors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Ocean", resp.Primary.Name)
	require.Len(t, resp.Colors, 4)
}

func uploadAvatarRequest(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadAvatar(t *testing.T) {
	srv := newTestServer(t, &stubModel{})
	cookie := loginAs(t, srv, "a@x.com", "right")

	body, contentType := uploadAvatarRequest(t, "photo.PNG")
	req := httptest.NewRequest(http.MethodPost, "/upload-avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, strings.HasSuffix(resp["avatar"], ".png"))
}

func TestUploadAvatarInvalidType(t *testing.T) {
	srv := newTestServer(t, &stubModel{})
	cookie := loginAs(t, srv, "a@x.com", "right")

	body, contentType := uploadAvatarRequest(t, "photo.exe")
	req := httptest.NewRequest(http.MethodPost, "/upload-avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid file type")
}

func TestUploadAvatarNoFile(t *testing.T) {
	srv := newTestServer(t, &stubModel{})
	cookie := loginAs(t, srv, "a@x.com", "right")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "No file uploaded")
}

func TestLogoutWithoutSession(t *testing.T) {
	srv := newTestServer(t, &stubModel{})

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Result().Header.Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	srv := newTestServer(t, &stubModel{})
	cookie := loginAs(t, srv, "a@x.com", "right")

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)

	// the old cookie no longer grants access
	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/login", w.Result().Header.Get("Location"))
}

func TestProfilePage(t *testing.T) {
	srv := newTestServer(t, &stubModel{})
	cookie := loginAs(t, srv, "a@x.com", "right")

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "a@x.com")
	require.Contains(t, w.Body.String(), "Member since")
}
