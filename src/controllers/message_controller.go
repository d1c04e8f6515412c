package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/talentgrid/connect/src/lib"
)

// GetMessageThread returns the conversation between the viewer and the
// given member, both directions merged in time order.
func (h *ConnectController) GetMessageThread(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	peerID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	sess.LoadThread(c.Context(), peerID)
	_, thread := sess.Thread()
	return c.Status(fiber.StatusOK).JSON(thread)
}

// SendMessage inserts a message to the given member. An empty or
// whitespace-only body is a no-op; no row is created.
func (h *ConnectController) SendMessage(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	peerID, err := paramID(c, "userId")
	if err != nil {
		return err
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid request body"))
	}

	if err := sess.SendMessage(c.Context(), peerID, body.Content); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Failed to send message"))
	}
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Message sent"))
}
