package server

// Route path constants
const (
	RouteIndex = "/"
	RouteTest  = "/api/test"

	// Auth
	RouteAuthRegister = "/api/auth/register"
	RouteAuthLogin    = "/api/auth/login"
	RouteAuthLogout   = "/api/auth/logout"
	RouteAuthCheck    = "/api/auth/check"
	RouteAuthRefresh  = "/api/auth/refresh"

	// Rooms
	RouteRooms            = "/api/rooms"
	RouteRoom             = "/api/rooms/{roomId}"
	RouteRoomToken        = "/api/rooms/{roomId}/token"
	RouteRoomJoin         = "/api/rooms/{roomId}/join"
	RouteRoomRecording    = "/api/rooms/{roomId}/recording"
	RouteRoomParticipants = "/api/rooms/{roomId}/participants"

	// Admin
	RouteAdminReconcile = "/api/admin/reconcile"
	RouteAdminPresence  = "/api/admin/presence"

	// Presence channel
	RouteWebSocket = "/ws"
)
