package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RoutePaymentSuccess, ChainMiddleware(s.PaymentSuccessHandler(), s.StandardMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePaymentCancel, ChainMiddleware(s.PaymentCancelHandler(), s.StandardMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
