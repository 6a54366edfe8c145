package server

// Route path constants
// The members area root comes from configuration; everything else is fixed.
const (
	// Public pages
	RouteIndex  = "/{$}"
	RoutePublic = "/public/{page}"

	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// API Routes
	RouteAPISession = "/api/session"
	RouteHealth     = "/healthz"

	// Default landing page after sign-in, relative to the protected prefix
	membersHome = "/"
)

const (
	// AccessTokenCookie carries the bearer token the route gate inspects
	AccessTokenCookie = "accessToken"

	nextParam = "next"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)
