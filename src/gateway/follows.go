package gateway

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/models"
)

type FollowKind string

const (
	// FollowGraph lives in member_connections and is keyed by creator id.
	FollowGraph FollowKind = "graph"
	// FollowLegacy lives in media_page_follows and is keyed by the
	// creator's display name. Two creators sharing a display name are
	// indistinguishable there; until the legacy relation gains an id
	// column this join can silently merge distinct identities.
	FollowLegacy FollowKind = "legacy"
)

// FollowEdge is the single follow concept the reconciler works with.
// CreatorID is set for graph edges, CreatorName for legacy edges.
type FollowEdge struct {
	UserID      primitive.ObjectID
	CreatorID   primitive.ObjectID
	CreatorName string
	Kind        FollowKind
}

// FollowStore adapts the two physical follow relations to the tagged
// FollowEdge variant. All knowledge of the dual storage lives here.
type FollowStore struct {
	gw Gateway
}

func NewFollowStore(gw Gateway) *FollowStore {
	return &FollowStore{gw: gw}
}

// ListByUser returns the union of the user's edges from both relations.
func (f *FollowStore) ListByUser(ctx context.Context, user primitive.ObjectID) ([]FollowEdge, error) {
	var graph []models.ConnectionEdge
	err := f.gw.Query(ctx, RelationConnections, Query{
		Filter: Filter{"source": user, "connection_type": models.EdgeTypeFollow},
	}, &graph)
	if err != nil {
		return nil, err
	}

	var legacy []models.MediaPageFollow
	err = f.gw.Query(ctx, RelationMediaFollows, Query{
		Filter: Filter{"user_id": user},
	}, &legacy)
	if err != nil {
		return nil, err
	}

	edges := make([]FollowEdge, 0, len(graph)+len(legacy))
	for _, e := range graph {
		edges = append(edges, FollowEdge{UserID: e.Source, CreatorID: e.Target, Kind: FollowGraph})
	}
	for _, e := range legacy {
		edges = append(edges, FollowEdge{UserID: e.UserId, CreatorName: e.CreatorName, Kind: FollowLegacy})
	}
	return edges, nil
}

func (f *FollowStore) Add(ctx context.Context, edge FollowEdge) error {
	now := time.Now()
	switch edge.Kind {
	case FollowLegacy:
		return f.gw.Insert(ctx, RelationMediaFollows, models.MediaPageFollow{
			Id:          primitive.NewObjectID(),
			UserId:      edge.UserID,
			CreatorName: edge.CreatorName,
			CreatedAt:   now,
		})
	default:
		return f.gw.Insert(ctx, RelationConnections, models.ConnectionEdge{
			Id:        primitive.NewObjectID(),
			Source:    edge.UserID,
			Target:    edge.CreatorID,
			Type:      models.EdgeTypeFollow,
			CreatedAt: now,
		})
	}
}

// Remove deletes every matching edge. Deleting zero rows is not an error;
// existence is established by the follow checks, not enforced here.
func (f *FollowStore) Remove(ctx context.Context, edge FollowEdge) error {
	var err error
	switch edge.Kind {
	case FollowLegacy:
		_, err = f.gw.Delete(ctx, RelationMediaFollows, Filter{
			"user_id":      edge.UserID,
			"creator_name": edge.CreatorName,
		})
	default:
		_, err = f.gw.Delete(ctx, RelationConnections, Filter{
			"source":          edge.UserID,
			"target":          edge.CreatorID,
			"connection_type": models.EdgeTypeFollow,
		})
	}
	return err
}
