package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SetAccessTokenCookie mirrors a fresh bearer token into the cookie the
// route gate reads. The cookie lives exactly as long as the token.
func (s *Server) SetAccessTokenCookie(w http.ResponseWriter, r *http.Request, accessToken string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
		Expires:  s.nowFunc().Add(ttl),
	})
}

// ClearAccessTokenCookie deletes the gate cookie.
func (s *Server) ClearAccessTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// isHTMXRequest checks if the request came from htmx
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirectSuccess redirects, or tells htmx to, for partial page requests
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError sends the user back to path with an error message,
// keeping the return target.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg, next string) {
	values := url.Values{"error": {errorMsg}}
	if next != "" {
		values.Set(nextParam, next)
	}
	redirectSuccess(w, r, path+"?"+values.Encode())
}

// safeNext only accepts local absolute paths so the next parameter cannot
// be used as an open redirect.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
