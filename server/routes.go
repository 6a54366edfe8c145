package server

func (s *Server) initRoutes() error {
	prefix := s.config.GetProtectedPrefix()

	index, err := s.IndexHandler()
	if err != nil {
		return err
	}
	public, err := s.PublicPageHandler()
	if err != nil {
		return err
	}
	loginPage, err := s.LoginPageHandler()
	if err != nil {
		return err
	}
	forbidden, err := s.ForbiddenHandler()
	if err != nil {
		return err
	}
	members, err := s.MembersPageHandler()
	if err != nil {
		return err
	}

	// Public pages still pass the gate; it lets them through without decoding
	s.RegisterRouteHandler("GET "+RouteIndex, ChainMiddleware(index, s.HTMLMiddleWare(s.RequireRouteAuthorization())...))
	s.RegisterRouteHandler("GET "+RoutePublic, ChainMiddleware(public, s.HTMLMiddleWare(s.RequireRouteAuthorization())...))

	// LOGIN
	s.RegisterRouteHandler("GET "+s.config.GetLoginPath(), ChainMiddleware(loginPage, s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+s.config.GetForbiddenPath(), ChainMiddleware(forbidden, s.HTMLMiddleWare()...))

	// Members area
	s.RegisterRouteHandler("GET "+prefix+"/", ChainMiddleware(members, s.HTMLMiddleWare(s.NoStoreMiddleware, s.RequireRouteAuthorization())...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionStatusHandler(), s.APIMiddleware(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPISession, ChainMiddleware(s.SessionStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	return nil
}
