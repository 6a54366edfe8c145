package server

import (
	"net/http"

	"github.com/careerlink/session-gate/internal/errors"
	"github.com/rs/zerolog"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
	Next    string // Return target carried through the form
	Error   string
	Email   string // Preserve email on error
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() (http.HandlerFunc, error) {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		return nil, err
	}

	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		data := LoginPageData{
			AppName: s.config.GetAppName(),
			Next:    safeNext(query.Get(nextParam), ""),
			Error:   query.Get("error"),
			Email:   query.Get("email"),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := loginTmpl.Execute(w, data); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("Failed to render login template")
			http.Error(w, "Failed to render login page", http.StatusInternalServerError)
		}
	}, nil
}

// LoginSubmissionHandler exchanges the form credentials for a bearer token,
// stores it in the gate cookie and resumes the original navigation.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := r.PostFormValue("email")
		password := r.PostFormValue("password")
		next := safeNext(r.PostFormValue(nextParam), "")
		loginPath := s.config.GetLoginPath()

		if email == "" || password == "" {
			redirectWithError(w, r, loginPath, "Email and password are required", next)
			return
		}

		grant, err := s.auth.SignIn(r.Context(), email, password)
		if err != nil {
			if errors.Is(err, errors.ErrInvalidCredentials) {
				logger.Info().Msg("sign-in rejected")
				redirectWithError(w, r, loginPath, "Invalid email or password", next)
				return
			}
			logger.Err(err).Msg("sign-in failed")
			redirectWithError(w, r, loginPath, "Sign-in is temporarily unavailable", next)
			return
		}

		s.SetAccessTokenCookie(w, r, grant.AccessToken, grant.TTL)
		redirectSuccess(w, r, safeNext(next, s.config.GetProtectedPrefix()+membersHome))
	}
}

// LogoutHandler drops the gate cookie. The client clears its own token
// record through its session manager.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.ClearAccessTokenCookie(w, r)
		redirectSuccess(w, r, "/")
	}
}
