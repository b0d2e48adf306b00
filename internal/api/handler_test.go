package api

import (
	"bufio"
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medadmin/m/domain"
	"medadmin/m/internal/auth"
	"medadmin/m/internal/catalog"
	"medadmin/m/internal/database"
	"medadmin/m/internal/docstore"
	"medadmin/m/internal/imagehost"
	"medadmin/m/internal/migrations"
	"medadmin/m/internal/session"
)

type countingStore struct {
	catalog.Store
	calls   atomic.Int32
	deletes atomic.Int32
	listErr error
}

func (c *countingStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Medicine, error) {
	c.calls.Add(1)
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.Store.ListByOwner(ctx, ownerID)
}

func (c *countingStore) Get(ctx context.Context, id string) (domain.Medicine, error) {
	c.calls.Add(1)
	return c.Store.Get(ctx, id)
}

func (c *countingStore) Create(ctx context.Context, m domain.Medicine) (string, error) {
	c.calls.Add(1)
	return c.Store.Create(ctx, m)
}

func (c *countingStore) Update(ctx context.Context, m domain.Medicine) error {
	c.calls.Add(1)
	return c.Store.Update(ctx, m)
}

func (c *countingStore) Delete(ctx context.Context, id string) error {
	c.calls.Add(1)
	c.deletes.Add(1)
	return c.Store.Delete(ctx, id)
}

type stubUploader struct {
	url string
	err error
}

func (s stubUploader) Upload(context.Context, imagehost.File) (string, error) {
	return s.url, s.err
}

type downRegistry struct{ auth.Registry }

func (downRegistry) Exists(context.Context, string) (bool, error) {
	return false, assert.AnError
}

type stuckRegistry struct{ auth.Registry }

func (stuckRegistry) Revoke(context.Context, string) error {
	return assert.AnError
}

type testEnv struct {
	provider *auth.Provider
	store    *countingStore
	router   http.Handler
}

func newTestEnv(t *testing.T, registry auth.Registry, uploader imagehost.Uploader) *testEnv {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db))
	t.Cleanup(func() { _ = db.Close() })

	provider := auth.NewProvider(db, registry, auth.Options{
		Secret:           "test-secret",
		TTL:              time.Hour,
		AdminEmailSuffix: "@admin.com",
		MinPasswordLen:   6,
	})
	store := &countingStore{Store: catalog.NewDocumentStore(docstore.NewSQLStore(db), "categories")}
	h := New(provider, catalog.NewService(store, uploader), Options{
		AdminEmailSuffix: "@admin.com",
		SessionTTL:       time.Hour,
		Heartbeat:        50 * time.Millisecond,
	})
	return &testEnv{provider: provider, store: store, router: h.Router()}
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUp(t *testing.T, email string) *http.Cookie {
	t.Helper()
	form := url.Values{"mode": {"signup"}, "email": {email}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := e.do(t, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func multipartRecord(t *testing.T, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "pill.png")
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/admin/records", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnauthenticatedRedirectsWithoutStoreQuery(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})

	for _, path := range []string{"/admin", "/admin/records", "/admin/records/x/delete", "/somewhere/else"} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	bogus := &http.Cookie{Name: session.CookieName, Value: "not-a-token"}
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), bogus)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Zero(t, env.store.calls.Load())
}

func TestLoginPageRedirectsSignedInAdmin(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Add Medicine")
	assert.Contains(t, rec.Body.String(), `class="skeleton"`)
}

func TestLoginRejected(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})

	form := url.Values{"mode": {"login"}, "email": {"user@example.com"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(t, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only admin emails allowed (e.g. admin@admin.com)")
	assert.Contains(t, rec.Body.String(), `value="user@example.com"`)
}

func TestPendingSessionShowsLoadingPage(t *testing.T) {
	env := newTestEnv(t, downRegistry{auth.NewMemoryRegistry()}, stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Checking your session")
	assert.Zero(t, env.store.calls.Load())
}

func TestRecordLifecycle(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{url: "https://i.ibb.co/pill.png"})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/admin/records", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No medicines yet")

	rec = env.do(t, multipartRecord(t, map[string]string{"name": "Paracetamol", "description": "Pain reliever", "brand": "Napa"}, []byte("png")), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin/records", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Paracetamol")
	assert.Contains(t, body, "https://i.ibb.co/pill.png")

	owner, ok := env.provider.Resolve(context.Background(), cookie.Value).Session()
	require.True(t, ok)
	records, err := env.store.ListByOwner(context.Background(), owner.UserID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	id := records[0].ID

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin?edit="+id, nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edit Medicine")
	assert.Contains(t, rec.Body.String(), "Update Medicine")
	assert.Contains(t, rec.Body.String(), `value="Paracetamol"`)

	rec = env.do(t, multipartRecord(t, map[string]string{"edit_id": id, "name": "Paracetamol", "brand": "Ace", "description": "Fever", "company": ""}, nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	updated, err := env.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Paracetamol", updated.Name)
	assert.Equal(t, "Fever", updated.Description)
	assert.Equal(t, "ace", updated.BrandLowercase)
	assert.Equal(t, "https://i.ibb.co/pill.png", updated.Image)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin/records/"+id+"/delete", nil), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure")

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/admin/records/"+id+"/delete", nil), cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, int32(1), env.store.deletes.Load())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin/records", nil), cookie)
	assert.Contains(t, rec.Body.String(), "No medicines yet")
}

func TestSubmitValidationKeepsForm(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, multipartRecord(t, map[string]string{"name": "", "description": "Only a description", "company": "Square"}, nil), cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name and description are required")
	assert.Contains(t, rec.Body.String(), "Only a description")
	assert.Contains(t, rec.Body.String(), `value="Square"`)
	assert.Zero(t, env.store.calls.Load())
}

func TestSubmitUploadFailure(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{err: imagehost.ErrRejected})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, multipartRecord(t, map[string]string{"name": "Napa", "description": "Fever"}, []byte("png")), cookie)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image upload failed")
	assert.Zero(t, env.store.calls.Load())
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/admin/logout", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLogoutFailureKeepsSession(t *testing.T) {
	env := newTestEnv(t, stuckRegistry{auth.NewMemoryRegistry()}, stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/admin/logout", nil), cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	var notice string
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, session.CookieName, c.Name, "session cookie must not be cleared")
		if c.Name == noticeCookie {
			notice, _ = url.QueryUnescape(c.Value)
		}
	}
	assert.Contains(t, notice, "Sign out failed")

	state := env.provider.Resolve(context.Background(), cookie.Value)
	assert.Equal(t, session.KindAuthenticated, state.Kind())

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/admin", nil), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListRecordsFailure(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")
	env.store.listErr = assert.AnError

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/admin/records", nil), cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Could not load medicines")
	assert.NotContains(t, rec.Body.String(), "No medicines yet")
}

func TestSessionEventsSignedOut(t *testing.T) {
	env := newTestEnv(t, auth.NewMemoryRegistry(), stubUploader{})
	cookie := env.signUp(t, "owner@admin.com")
	sess, ok := env.provider.Resolve(context.Background(), cookie.Value).Session()
	require.True(t, ok)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/admin/session/events", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.NoError(t, env.provider.SignOut(context.Background(), sess.ID))

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event:") {
			break
		}
	}
	assert.Equal(t, "event: signed-out\n", line)
}
