package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Groups and teams are a read-only catalog; the Connect view only lists
// them, it never mutates them.

type Group struct {
	Id          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Avatar      string             `json:"avatar" bson:"avatar"`
	MemberCount int64              `json:"memberCount" bson:"member_count"`
	Visibility  string             `json:"visibility" bson:"visibility"`
}

type Team struct {
	Id          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Avatar      string             `json:"avatar" bson:"avatar"`
	MemberCount int64              `json:"memberCount" bson:"member_count"`
	Category    string             `json:"category" bson:"category"`
}

// Recommendation rows are produced elsewhere; we read the non-dismissed
// ones ordered by score.
type Recommendation struct {
	Id            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserId        primitive.ObjectID `json:"userId" bson:"user_id"`
	RecommendedId primitive.ObjectID `json:"recommendedId" bson:"recommended_id"`
	Reason        string             `json:"reason" bson:"reason"`
	Score         float64            `json:"score" bson:"score"`
	Dismissed     bool               `json:"dismissed" bson:"dismissed"`
}
