package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteIndex+"{$}", ChainMiddleware(s.IndexHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTest, ChainMiddleware(s.TestHandler(), s.APIMiddleware()...))

	// Auth
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthCheck, ChainMiddleware(s.CheckAuthHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Rooms
	s.RegisterRouteHandler("GET "+RouteRooms, ChainMiddleware(s.ListRoomsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteRooms, ChainMiddleware(s.CreateRoomHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteRoom, ChainMiddleware(s.GetRoomHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteRoomToken, ChainMiddleware(s.RoomTokenHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteRoomJoin, ChainMiddleware(s.JoinRoomHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteRoomRecording, ChainMiddleware(s.RecordingHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteRoomParticipants, ChainMiddleware(s.ParticipantsHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Admin
	s.RegisterRouteHandler("POST "+RouteAdminReconcile, ChainMiddleware(s.ReconcileHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteAdminPresence, ChainMiddleware(s.PresenceStatsHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Presence
	s.RegisterRouteHandler("GET "+RouteWebSocket, ChainMiddleware(s.WebSocketHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight for every API path
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}
