// Package gateway is the boundary to the remote data service: filtered
// reads, row mutations and change-event subscriptions over named relations.
// It holds no state of its own; every failure is returned per call and
// callers are expected to degrade instead of crashing the view.
package gateway

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Relation names exposed by the remote store.
const (
	RelationProfiles        = "profiles"
	RelationConnections     = "member_connections"
	RelationMediaFollows    = "media_page_follows"
	RelationRequests        = "connection_requests"
	RelationMessages        = "messages"
	RelationGroups          = "groups"
	RelationTeams           = "teams"
	RelationRecommendations = "connection_recommendations"
)

// Filter selects rows by field value. Values may be nested operator maps
// in the mongo style, e.g. Filter{"_id": Filter{"$ne": viewer}} or
// Filter{"_id": Filter{"$in": ids}}.
type Filter map[string]any

// Query bundles the read options of a single gateway call.
type Query struct {
	Filter   Filter
	SortBy   string
	SortDesc bool
	Limit    int64
}

type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// Event is a single change notification. Doc carries the full document
// where the store can provide it; deletes may only carry the document key.
type Event struct {
	Kind     EventKind
	Relation string
	Doc      bson.M
}

type Subscription interface {
	Events() <-chan Event
	Close()
}

// Gateway is the remote data service contract. Query decodes the matching
// rows into out, which must be a pointer to a slice.
type Gateway interface {
	Query(ctx context.Context, relation string, q Query, out any) error
	Insert(ctx context.Context, relation string, doc any) error
	Update(ctx context.Context, relation string, filter Filter, set map[string]any) (int64, error)
	Delete(ctx context.Context, relation string, filter Filter) (int64, error)
	Subscribe(ctx context.Context, relation string, filter Filter, kinds ...EventKind) (Subscription, error)
}

func (f Filter) bson() bson.M {
	if f == nil {
		return bson.M{}
	}
	m := bson.M{}
	for k, v := range f {
		if nested, ok := v.(Filter); ok {
			m[k] = nested.bson()
		} else {
			m[k] = v
		}
	}
	return m
}
