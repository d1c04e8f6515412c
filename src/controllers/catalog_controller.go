package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// The groups/teams catalog and the recommendation feed are read-only;
// these handlers just expose the session's loaded lists.

func (h *ConnectController) GetGroups(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sess.Groups())
}

func (h *ConnectController) GetTeams(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sess.Teams())
}

func (h *ConnectController) GetRecommendations(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if sess == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(sess.Recommendations())
}
