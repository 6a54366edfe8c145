package server

import (
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/careerlink/session-gate/internal/utils"
	"github.com/rs/zerolog"
)

// publicPages are the static information pages served under /public.
var publicPages = map[string]string{
	"about":   "About Career Link",
	"terms":   "Terms of Service",
	"privacy": "Privacy Policy",
	"notices": "Notices",
}

var pageNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// IndexHandler renders the home page
func (s *Server) IndexHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]interface{}{
			"AppName":       s.config.GetAppName(),
			"MembersPath":   s.config.GetProtectedPrefix() + membersHome,
			"LoginPath":     s.config.GetLoginPath(),
			"SignedIn":      accessTokenFromCookie(r) != "",
			"PublicPages":   publicPages,
			"LogoutPath":    RouteAuthLogout,
			"SessionAPIURL": RouteAPISession,
		}
		s.render(w, r, tmpl, data)
	}, nil
}

// PublicPageHandler serves the pages anyone may read
func (s *Server) PublicPageHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("public.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		page := r.PathValue("page")
		title, ok := publicPages[page]
		if !ok || !pageNamePattern.MatchString(page) {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		s.render(w, r, tmpl, map[string]interface{}{
			"AppName": s.config.GetAppName(),
			"Title":   title,
			"Page":    page,
		})
	}, nil
}

// ForbiddenHandler is where the gate sends a signed-in user whose role does
// not match the area.
func (s *Server) ForbiddenHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("forbidden.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeHTML)
		w.WriteHeader(http.StatusForbidden)
		s.render(w, r, tmpl, map[string]interface{}{
			"AppName":    s.config.GetAppName(),
			"HomePath":   "/",
			"LogoutPath": RouteAuthLogout,
		})
	}, nil
}

// MembersPageData describes the signed-in member for the members area pages
type MembersPageData struct {
	AppName   string
	Area      string
	Path      string
	Role      string
	SubjectID string
	ExpiresAt string
}

// MembersPageHandler renders every page under the protected prefix. The
// gate has already run, so the request carries decoded claims.
func (s *Server) MembersPageHandler() (http.HandlerFunc, error) {
	tmpl, err := ParseTemplate("members.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())

		data := MembersPageData{
			AppName:   s.config.GetAppName(),
			Area:      membersArea(strings.TrimPrefix(r.URL.Path, s.config.GetProtectedPrefix())),
			Path:      r.URL.Path,
			Role:      utils.Value(claims.Role),
			SubjectID: utils.Value(claims.SubjectID),
		}
		if expiry, ok := claims.ExpiryTime(); ok {
			data.ExpiresAt = expiry.UTC().Format(time.RFC3339)
		}
		s.render(w, r, tmpl, data)
	}, nil
}

// membersArea names the first path segment below the prefix.
func membersArea(rest string) string {
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "mypage"
	}
	area, _, _ := strings.Cut(rest, "/")
	return area
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := tmpl.Execute(w, data); err != nil {
		zerolog.Ctx(r.Context()).Err(err).Msg("Failed to render template")
	}
}
