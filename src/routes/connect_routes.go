package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talentgrid/connect/src/controllers"
)

// ConnectRoutes sets up the Connect view routes: state, follows, connection requests, connections, messages, catalog, and session teardown
func ConnectRoutes(app *fiber.App, h *controllers.ConnectController, auth fiber.Handler) {
	connect := app.Group("/api/v1/connect", auth)

	connect.Get("/", h.GetState)
	connect.Get("/toasts", h.GetToasts)

	connect.Post("/follow/:creatorId", h.FollowCreator)
	connect.Delete("/follow/:creatorId", h.UnfollowCreator)

	connect.Post("/request/:userId", h.SendConnectionRequest)
	connect.Put("/accept/:userId", h.AcceptConnectionRequest)
	connect.Put("/decline/:userId", h.RejectConnectionRequest)
	connect.Get("/requests", h.GetConnectionRequests)

	connect.Get("/connections", h.GetUserConnections)
	connect.Delete("/connections/:userId", h.RemoveConnection)

	connect.Get("/messages/:userId", h.GetMessageThread)
	connect.Post("/messages/:userId", h.SendMessage)

	connect.Get("/groups", h.GetGroups)
	connect.Get("/teams", h.GetTeams)
	connect.Get("/recommendations", h.GetRecommendations)

	connect.Delete("/session", h.ReleaseSession)
}
