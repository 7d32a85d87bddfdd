package handle_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/audio"
	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/internal/handle"
	"github.com/yeisme/soundvault/pkg/internal/router"
	"github.com/yeisme/soundvault/pkg/internal/storage/blob"
	"github.com/yeisme/soundvault/pkg/internal/storage/db/dbtest"
	"github.com/yeisme/soundvault/pkg/internal/storage/kv"
	"github.com/yeisme/soundvault/pkg/internal/users"
	"github.com/yeisme/soundvault/pkg/middleware"
)

const (
	domain     = "example.test"
	cookieName = "soundvault.sid"
)

type server struct {
	engine *gin.Engine
	fs     afero.Fs
}

func newServer(t *testing.T) *server {
	t.Helper()

	return newServerWithFs(t, afero.NewMemMapFs())
}

func newServerWithFs(t *testing.T, fs afero.Fs) *server {
	t.Helper()

	gin.SetMode(gin.TestMode)

	client := dbtest.New(t)
	store, err := kv.NewMemoryKV(t.Context(), nil)
	require.NoError(t, err)

	local, err := blob.NewLocal(fs, "/store")
	require.NoError(t, err)

	hasher := &auth.Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}
	authSvc := auth.NewService(client.DB, hasher, store, time.Minute)
	audios := audio.NewGormStore(client.DB)
	gate := &audio.Gate{MaxSize: 1 << 20, AllowedMimetypes: configs.DefaultAllowedMimetypes, Slugs: audios}

	h := &handle.Handlers{
		Auth:      authSvc,
		Sessions:  auth.NewSessions(store, time.Hour),
		Users:     users.NewService(client.DB, hasher, 4, authSvc),
		Audios:    &audio.Service{Store: audios, Gate: gate, Blob: local},
		Ingestor:  &audio.Ingestor{Fs: fs, Gate: gate, Store: audios, Blob: local},
		Fs:        fs,
		UploadDir: "/tmp/uploads",
		Domain:    domain,
		Cookie:    handle.CookieConfig{Name: cookieName, TTL: time.Hour},
	}

	engine := gin.New()
	engine.Use(middleware.SessionMiddleware(h.Sessions, h.Auth, cookieName), h.Stream())
	engine.POST("/login", h.Login)
	engine.POST("/logout", h.Logout)

	api := engine.Group("/api")
	router.RegisterUserRoutes(api, h)
	router.RegisterAudioRoutes(api, h)

	return &server{engine: engine, fs: fs}
}

func (s *server) do(t *testing.T, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	return rec
}

func (s *server) json(t *testing.T, method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return s.do(t, req, cookie)
}

// signup 注册用户并返回会话 cookie.
func (s *server) signup(t *testing.T, username string) *http.Cookie {
	t.Helper()

	rec := s.json(t, http.MethodPost, "/api/users",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"hunter2","password2":"hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return sessionCookie(t, rec)
}

func (s *server) upload(t *testing.T, cookie *http.Cookie, name, mimetype string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", mimetype)

	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/audios", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return s.do(t, req, cookie)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}

	t.Fatalf("no session cookie in response")

	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func TestSignupLoginLogout(t *testing.T) {
	s := newServer(t)
	cookie := s.signup(t, "Alice")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/users/me", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])
	assert.NotContains(t, rec.Body.String(), "argon2")

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/users/me", nil), cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.json(t, http.MethodPost, "/login", `{"username":"alice","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decode(t, rec)["ok"])

	rec = s.json(t, http.MethodPost, "/login", `{"username":"alice","password":"hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/users/me", nil), sessionCookie(t, rec))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	s := newServer(t)
	s.signup(t, "alice")

	rec := s.json(t, http.MethodPost, "/api/users",
		`{"username":"alice","email":"not-an-email","password":"hunter2","password2":"hunter3"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for _, code := range []string{
		users.CodeUsernameTaken,
		users.CodeInvalidEmail,
		users.CodePasswordsDoNotMatch,
	} {
		assert.Contains(t, rec.Body.String(), code)
	}

	assert.Empty(t, rec.Result().Cookies())
}

func TestAudioRoutesRequireSession(t *testing.T) {
	s := newServer(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/audios", nil),
		httptest.NewRequest(http.MethodPost, "/api/audios", nil),
		httptest.NewRequest(http.MethodPut, "/api/audios/1", nil),
		httptest.NewRequest(http.MethodDelete, "/api/audios/1", nil),
	} {
		rec := s.do(t, req, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, req.Method)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := newServer(t)
	cookie := s.signup(t, "alice")

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/audios", nil), cookie)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_FILE")

	rec = s.upload(t, cookie, "notes.txt", "text/plain", []byte("hello"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_MIMETYPE")
}

// brokenPipeFs 创建的文件写入一半后失败，相当于客户端在上传途中断开.
type brokenPipeFs struct {
	afero.Fs
}

func (b brokenPipeFs) Create(name string) (afero.File, error) {
	f, err := b.Fs.Create(name)
	if err != nil {
		return nil, err
	}

	return brokenPipeFile{File: f}, nil
}

type brokenPipeFile struct {
	afero.File
}

func (f brokenPipeFile) Write(p []byte) (int, error) {
	n, _ := f.File.Write(p[:len(p)/2])

	return n, errors.New("connection reset by peer")
}

func TestUploadAbortedMidCopyLeavesNoTempFile(t *testing.T) {
	s := newServerWithFs(t, brokenPipeFs{Fs: afero.NewMemMapFs()})
	cookie := s.signup(t, "alice")

	rec := s.upload(t, cookie, "chicken.mp3", "audio/mpeg", bytes.Repeat([]byte("cluck"), 300))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["ok"])

	entries, err := afero.ReadDir(s.fs, "/tmp/uploads")
	require.NoError(t, err)
	assert.Empty(t, entries)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/audios", nil), cookie)
	assert.Len(t, decode(t, rec)["records"], 0)
}

func TestAudioLifecycle(t *testing.T) {
	s := newServer(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")
	data := bytes.Repeat([]byte("cluck"), 300)

	rec := s.upload(t, alice, "Chicken.mp3", "audio/mpeg", data)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode(t, rec)["audio"].(map[string]any)
	assert.Equal(t, "chicken.mp3", created["url"])
	assert.Equal(t, float64(len(data)), created["size"])
	assert.Nil(t, created["duration"])

	audioPath := "/api/audios/" + strconv.FormatFloat(created["id"].(float64), 'f', -1, 64)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/audios", nil), alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["records"], 1)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/audios", nil), bob)
	assert.Len(t, decode(t, rec)["records"], 0)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "http://alice.example.test/chicken.mp3", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, data, rec.Body.Bytes())

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "http://alice.example.test/chicken.mp3/download", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment"))

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "http://bob.example.test/chicken.mp3", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.json(t, http.MethodPut, audioPath, `{"visible":false}`, bob)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_OWNER")

	rec = s.json(t, http.MethodPut, audioPath, `{"visible":false}`, alice)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "http://alice.example.test/chicken.mp3", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "hidden audio is not public")

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "http://alice.example.test/chicken.mp3", nil), alice)
	assert.Equal(t, http.StatusOK, rec.Code, "owner still sees hidden audio")

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, audioPath, nil), alice)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "http://alice.example.test/chicken.mp3", nil), alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodDelete, audioPath, nil), alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubdomainUser(t *testing.T) {
	cases := []struct {
		host string
		user string
		ok   bool
	}{
		{"alice.example.test", "alice", true},
		{"Alice.Example.Test:8080", "alice", true},
		{"example.test", "", false},
		{"a.b.example.test", "", false},
		{"alice.other.test", "", false},
	}

	for _, tc := range cases {
		user, ok := handle.SubdomainUser(tc.host, domain)
		assert.Equal(t, tc.ok, ok, tc.host)
		assert.Equal(t, tc.user, user, tc.host)
	}
}
