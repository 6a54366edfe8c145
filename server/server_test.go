package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/careerlink/session-gate/authapi"
	"github.com/careerlink/session-gate/internal/config"
	"github.com/careerlink/session-gate/internal/errors"
	"github.com/careerlink/session-gate/server"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "member@example.com"
	testPassword = "password123"
)

var testNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeAuthenticator struct {
	grant authapi.Grant
	err   error
	calls int
}

func (f *fakeAuthenticator) SignIn(_ context.Context, email, password string) (authapi.Grant, error) {
	f.calls++
	if f.err != nil {
		return authapi.Grant{}, f.err
	}
	if email != testEmail || password != testPassword {
		return authapi.Grant{}, errors.ErrInvalidCredentials
	}
	return f.grant, nil
}

type testFixture struct {
	auth   *fakeAuthenticator
	server *server.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("ALLOWED_ORIGINS", "https://app.careerlink.test")

	f := &testFixture{auth: &fakeAuthenticator{}}
	srv, err := server.New(config.New(), f.auth, server.WithNowFunc(func() time.Time { return testNow }))
	require.NoError(t, err)
	f.server = srv
	return f
}

func roleToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"role": role,
		"sub":  "member-7",
		"exp":  exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return signed
}

func (f *testFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func withCookie(req *http.Request, value string) *http.Request {
	req.AddCookie(&http.Cookie{Name: server.AccessTokenCookie, Value: value})
	return req
}

func TestRouteGate(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("admin page without cookie", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/members/admin/settings", nil))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login?next=%2Fmembers%2Fadmin%2Fsettings", rec.Header().Get("Location"))
	})

	t.Run("admin page as user", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/members/admin/settings", nil), roleToken(t, "USER", testNow.Add(time.Hour)))
		rec := f.do(req)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/forbidden", rec.Header().Get("Location"))
	})

	t.Run("admin page as admin", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/members/admin/settings", nil), roleToken(t, "ADMIN", testNow.Add(time.Hour)))
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Location"))
		require.Contains(t, rec.Body.String(), "member-7")
		require.Contains(t, rec.Body.String(), "<h1>admin</h1>")
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("public page without cookie", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/public/about", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "About Career Link")
	})

	t.Run("public page with garbage cookie", func(t *testing.T) {
		rec := f.do(withCookie(httptest.NewRequest(http.MethodGet, "/public/about", nil), "garbage"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown public page", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/public/missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed cookie keeps the query", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/members/emp/postings?page=3", nil), "garbage")
		rec := f.do(req)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login?next=%2Fmembers%2Femp%2Fpostings%3Fpage%3D3", rec.Header().Get("Location"))
	})

	t.Run("shared members page", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/members/", nil), roleToken(t, "EMP", testNow.Add(time.Hour)))
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "mypage")
	})

	t.Run("htmx requests get an HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/members/user/resumes", nil)
		req.Header.Set("HX-Request", "true")
		rec := f.do(req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "/login?next=%2Fmembers%2Fuser%2Fresumes", rec.Header().Get("HX-Redirect"))
	})

	t.Run("forbidden page", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/forbidden", nil))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Access denied")
		require.Empty(t, rec.Header().Get("Location"))
	})
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLogin(t *testing.T) {
	t.Run("page keeps next", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(httptest.NewRequest(http.MethodGet, "/login?next=%2Fmembers%2Fadmin%2Fsettings", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `value="/members/admin/settings"`)
	})

	t.Run("success resumes navigation", func(t *testing.T) {
		f := setupTestFixture(t)
		accessToken := roleToken(t, "ADMIN", testNow.Add(10*time.Minute))
		f.auth.grant = authapi.Grant{AccessToken: accessToken, TTL: 10 * time.Minute}

		rec := f.do(postForm("/auth/login", url.Values{
			"email":    {testEmail},
			"password": {testPassword},
			"next":     {"/members/admin/settings?tab=2"},
		}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/members/admin/settings?tab=2", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, server.AccessTokenCookie, cookies[0].Name)
		require.Equal(t, accessToken, cookies[0].Value)
		require.Equal(t, 600, cookies[0].MaxAge)
		require.True(t, cookies[0].HttpOnly)
	})

	t.Run("external next falls back to members home", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.grant = authapi.Grant{AccessToken: "tok", TTL: time.Minute}

		rec := f.do(postForm("/auth/login", url.Values{
			"email":    {testEmail},
			"password": {testPassword},
			"next":     {"//evil.example/steal"},
		}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/members/", rec.Header().Get("Location"))
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(postForm("/auth/login", url.Values{
			"email":    {testEmail},
			"password": {"wrong"},
			"next":     {"/members/emp"},
		}))
		require.Equal(t, http.StatusSeeOther, rec.Code)

		location, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "/login", location.Path)
		require.Equal(t, "Invalid email or password", location.Query().Get("error"))
		require.Equal(t, "/members/emp", location.Query().Get("next"))
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("missing fields skip the identity service", func(t *testing.T) {
		f := setupTestFixture(t)
		rec := f.do(postForm("/auth/login", url.Values{"email": {testEmail}}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Contains(t, rec.Header().Get("Location"), "Email+and+password+are+required")
		require.Equal(t, 0, f.auth.calls)
	})

	t.Run("identity service down", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.err = errors.ErrAuthUnavailable
		rec := f.do(postForm("/auth/login", url.Values{"email": {testEmail}, "password": {testPassword}}))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Contains(t, rec.Header().Get("Location"), "temporarily+unavailable")
	})
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	rec := f.do(withCookie(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "tok"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, server.AccessTokenCookie, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Less(t, cookies[0].MaxAge, 0)
}

func TestSessionStatus(t *testing.T) {
	f := setupTestFixture(t)

	decode := func(t *testing.T, rec *httptest.ResponseRecorder) server.SessionStatus {
		t.Helper()
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		var status server.SessionStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		return status
	}

	t.Run("no cookie", func(t *testing.T) {
		status := decode(t, f.do(httptest.NewRequest(http.MethodGet, "/api/session", nil)))
		require.False(t, status.Authenticated)
		require.True(t, status.ExpiringSoon)
	})

	t.Run("valid cookie", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/api/session", nil), roleToken(t, "EMP", testNow.Add(10*time.Minute)))
		status := decode(t, f.do(req))
		require.True(t, status.Authenticated)
		require.Equal(t, "EMP", *status.Role)
		require.Equal(t, "member-7", *status.SubjectID)
		require.Equal(t, 600, status.RemainingSeconds)
		require.False(t, status.ExpiringSoon)
	})

	t.Run("expiring cookie", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/api/session", nil), roleToken(t, "EMP", testNow.Add(time.Minute)))
		status := decode(t, f.do(req))
		require.True(t, status.Authenticated)
		require.True(t, status.ExpiringSoon)
	})

	t.Run("expired cookie", func(t *testing.T) {
		req := withCookie(httptest.NewRequest(http.MethodGet, "/api/session", nil), roleToken(t, "EMP", testNow.Add(-time.Minute)))
		status := decode(t, f.do(req))
		require.False(t, status.Authenticated)
		require.Nil(t, status.Role)
	})

	t.Run("garbage cookie", func(t *testing.T) {
		status := decode(t, f.do(withCookie(httptest.NewRequest(http.MethodGet, "/api/session", nil), "garbage")))
		require.False(t, status.Authenticated)
		require.True(t, status.ExpiringSoon)
	})
}

func TestCors(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("allowed preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
		req.Header.Set("Origin", "https://app.careerlink.test")
		rec := f.do(req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "https://app.careerlink.test", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMiddleware(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("request id", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/public/about", nil))
		require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		req := httptest.NewRequest(http.MethodGet, "/public/about", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec = f.do(req)
		require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("frame security", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	})

	t.Run("www redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/public/about", nil)
		req.Host = "www.careerlink.test"
		rec := f.do(req)
		require.Equal(t, http.StatusMovedPermanently, rec.Code)
		require.Equal(t, "https://careerlink.test/public/about", rec.Header().Get("Location"))
	})

	t.Run("recover", func(t *testing.T) {
		handler := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}, f.server.HTMLMiddleWare()...)

		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/explode", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("health", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})
}

func TestNew_RequiresAuthenticator(t *testing.T) {
	_, err := server.New(config.New(), nil)
	require.Error(t, err)
}
