package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/talentgrid/connect/src/lib"
	"github.com/talentgrid/connect/src/models"
	"github.com/talentgrid/connect/src/reconciler"
)

// ConnectController exposes the reconciler's derived state and the
// Connect actions over HTTP. It never touches the store directly; every
// read and write goes through the viewer's session.
type ConnectController struct {
	manager *reconciler.Manager
	log     *zap.SugaredLogger
}

func NewConnectController(manager *reconciler.Manager, log *zap.SugaredLogger) *ConnectController {
	return &ConnectController{manager: manager, log: log}
}

func (h *ConnectController) session(c *fiber.Ctx) (*reconciler.Session, error) {
	viewer := c.Locals("viewer").(models.Profile)
	sess, err := h.manager.Session(c.Context(), viewer.Id)
	if err != nil {
		h.log.Errorf("Error starting session for %s: %v", viewer.Id.Hex(), err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return sess, nil
}

func paramID(c *fiber.Ctx, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(name))
	if err != nil {
		return primitive.NilObjectID, c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid user ID format"))
	}
	return id, nil
}

// GetState returns the full derived Connect view for the viewer.
func (h *ConnectController) GetState(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"creators":         sess.Creators(),
		"members":          sess.Members(),
		"connections":      sess.Connections(),
		"incomingRequests": sess.IncomingRequests(),
		"toasts":           sess.Toasts(),
	})
}

// FollowCreator follows the creator in both follow relations.
func (h *ConnectController) FollowCreator(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	creatorID, err := paramID(c, "creatorId")
	if err != nil {
		return err
	}

	creator, ok := sess.CreatorSummary(creatorID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Creator not found"))
	}

	if err := sess.FollowCreator(c.Context(), creator); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to follow creator"))
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Now following creator"))
}

// UnfollowCreator removes the follow from both relations.
func (h *ConnectController) UnfollowCreator(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	creatorID, err := paramID(c, "creatorId")
	if err != nil {
		return err
	}

	creator, ok := sess.CreatorSummary(creatorID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Creator not found"))
	}

	if err := sess.UnfollowCreator(c.Context(), creator); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to unfollow creator"))
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Unfollowed creator"))
}

// SendConnectionRequest sends a connection request from the viewer to another member
func (h *ConnectController) SendConnectionRequest(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	targetID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	// Validar que no se envíe solicitud a uno mismo
	if targetID == sess.Viewer() {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("You can't send a connection request to yourself"))
	}

	member, ok := sess.MemberSummary(targetID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Member not found"))
	}

	var body struct {
		Message string `json:"message"`
	}
	_ = c.BodyParser(&body)

	if err := sess.ConnectMember(c.Context(), member, body.Message); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to send connection request"))
	}
	return c.Status(fiber.StatusCreated).JSON(lib.MessageResponse("Connection request sent successfully"))
}

// AcceptConnectionRequest accepts the pending request from the given member
func (h *ConnectController) AcceptConnectionRequest(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	memberID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	// Sin solicitud pendiente es un no-op silencioso
	if err := sess.AcceptRequest(c.Context(), memberID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to accept connection request"))
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Connection accepted successfully"))
}

// RejectConnectionRequest declines the pending request from the given member
func (h *ConnectController) RejectConnectionRequest(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	memberID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	if err := sess.DeclineRequest(c.Context(), memberID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to reject connection request"))
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Connection request rejected"))
}

// GetConnectionRequests returns the pending requests addressed to the viewer
func (h *ConnectController) GetConnectionRequests(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sess.IncomingRequests())
}

// GetUserConnections returns the viewer's connection list
func (h *ConnectController) GetUserConnections(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sess.Connections())
}

// RemoveConnection disconnects the viewer from another member
func (h *ConnectController) RemoveConnection(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	targetID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	// Validar que no sea el mismo usuario
	if targetID == sess.Viewer() {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("You cannot remove yourself as a connection"))
	}

	if err := sess.DisconnectMember(c.Context(), targetID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to remove connection"))
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Connection removed successfully"))
}

// GetToasts returns the active transient notifications.
func (h *ConnectController) GetToasts(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sess.Toasts())
}

// ReleaseSession tears down the viewer's session and its subscriptions.
func (h *ConnectController) ReleaseSession(c *fiber.Ctx) error {
	viewer := c.Locals("viewer").(models.Profile)
	h.manager.Release(viewer.Id)
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Session released"))
}
