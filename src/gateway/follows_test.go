package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/models"
)

func TestFollowStoreUnionsBothRelations(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()
	store := NewFollowStore(gw)

	user := primitive.NewObjectID()
	creator := primitive.NewObjectID()

	require.NoError(t, store.Add(ctx, FollowEdge{UserID: user, CreatorID: creator, Kind: FollowGraph}))
	require.NoError(t, store.Add(ctx, FollowEdge{UserID: user, CreatorName: "Ada", Kind: FollowLegacy}))

	// Another user's edges must not appear.
	require.NoError(t, store.Add(ctx, FollowEdge{UserID: primitive.NewObjectID(), CreatorName: "Ada", Kind: FollowLegacy}))

	edges, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, edges, 2)

	kinds := map[FollowKind]int{}
	for _, e := range edges {
		kinds[e.Kind]++
		assert.Equal(t, user, e.UserID)
	}
	assert.Equal(t, 1, kinds[FollowGraph])
	assert.Equal(t, 1, kinds[FollowLegacy])
}

func TestFollowStoreGraphEdgesDoNotLeakColleagueEdges(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()
	store := NewFollowStore(gw)

	user := primitive.NewObjectID()
	require.NoError(t, gw.Insert(ctx, RelationConnections, models.ConnectionEdge{
		Id:     primitive.NewObjectID(),
		Source: user,
		Target: primitive.NewObjectID(),
		Type:   models.EdgeTypeColleague,
	}))

	edges, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, edges, "colleague edges are not follows")
}

func TestFollowStoreRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()
	store := NewFollowStore(gw)

	user := primitive.NewObjectID()
	edge := FollowEdge{UserID: user, CreatorName: "Ada", Kind: FollowLegacy}

	require.NoError(t, store.Add(ctx, edge))
	require.NoError(t, store.Remove(ctx, edge))
	require.NoError(t, store.Remove(ctx, edge), "removing a missing edge is not an error")

	edges, err := store.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, edges)
}
