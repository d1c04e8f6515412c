package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/lib"
	"github.com/talentgrid/connect/src/models"
)

const testSecret = "middleware-test-secret"

func newTestApp(gw gateway.Gateway) *fiber.App {
	app := fiber.New()
	app.Get("/me", SessionRoute(gw, testSecret), func(c *fiber.Ctx) error {
		viewer := c.Locals("viewer").(models.Profile)
		return c.JSON(fiber.Map{"id": viewer.Id.Hex()})
	})
	return app
}

func TestSessionRouteAttachesViewerProfile(t *testing.T) {
	gw := gateway.NewMemory()
	viewer := models.Profile{
		Id:          primitive.NewObjectID(),
		Name:        "Viewer",
		AccountType: models.AccountTypeMember,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, gw.Insert(context.Background(), gateway.RelationProfiles, viewer))

	token, err := lib.GenerateJWT(viewer.Id.Hex(), testSecret)
	require.NoError(t, err)

	app := newTestApp(gw)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionRouteRejectsMissingAndMalformedTokens(t *testing.T) {
	app := newTestApp(gateway.NewMemory())

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionRouteRejectsTokenSignedWithOtherSecret(t *testing.T) {
	gw := gateway.NewMemory()
	viewer := models.Profile{
		Id:          primitive.NewObjectID(),
		Name:        "Viewer",
		AccountType: models.AccountTypeMember,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, gw.Insert(context.Background(), gateway.RelationProfiles, viewer))

	// A token minted under any other secret, the hard-coded development
	// fallback included, must not pass verification.
	token, err := lib.GenerateJWT(viewer.Id.Hex(), "fallback-secret-key")
	require.NoError(t, err)

	app := newTestApp(gw)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionRouteRejectsUnknownUser(t *testing.T) {
	app := newTestApp(gateway.NewMemory())

	token, err := lib.GenerateJWT(primitive.NewObjectID().Hex(), testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
