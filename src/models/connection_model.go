package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EdgeType string

const (
	// EdgeTypeFollow is the social-graph half of the follow concept; the
	// legacy half lives in media_page_follows (see MediaPageFollow).
	EdgeTypeFollow    EdgeType = "follow"
	EdgeTypeColleague EdgeType = "colleague"
)

// ConnectionEdge is a directed edge in member_connections. Colleague edges
// carry undirected "connection" semantics: two members are connected if an
// edge exists in either direction.
type ConnectionEdge struct {
	Id        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Source    primitive.ObjectID `json:"source" bson:"source"`
	Target    primitive.ObjectID `json:"target" bson:"target"`
	Type      EdgeType           `json:"connectionType" bson:"connection_type"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// MediaPageFollow is the legacy follow relation kept for the old media
// pages feature. It has no creator id column; rows are keyed by the
// creator's display name.
type MediaPageFollow struct {
	Id          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserId      primitive.ObjectID `json:"userId" bson:"user_id"`
	CreatorName string             `json:"creatorName" bson:"creator_name"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}

type ConnectionRequest struct {
	Id        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Sender    primitive.ObjectID `json:"sender" bson:"sender"`
	Recipient primitive.ObjectID `json:"recipient" bson:"recipient"`
	Status    RequestStatus      `json:"status" bson:"status"` // pending, accepted, rejected
	Message   string             `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)
