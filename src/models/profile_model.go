package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountType string

const (
	AccountTypeCreator AccountType = "creator"
	AccountTypeMember  AccountType = "member"
)

// Profile is owned by the remote store and read-only to this service.
// FollowerCount is maintained by backend triggers; we only ever display it.
type Profile struct {
	Id             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name"`
	Username       string             `json:"username" bson:"username"`
	ProfilePicture string             `json:"profilePicture" bson:"profile_picture"`
	AccountType    AccountType        `json:"accountType" bson:"account_type"`
	Tier           string             `json:"tier" bson:"tier"`
	About          string             `json:"about" bson:"about"`
	FollowerCount  int64              `json:"followerCount" bson:"follower_count"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}

type ProfileSummary struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	Name           string             `json:"name" bson:"name"`
	Username       string             `json:"username" bson:"username"`
	ProfilePicture string             `json:"profilePicture" bson:"profilePicture"`
	Tier           string             `json:"tier" bson:"tier,omitempty"`
}

// SummaryOf trims a profile down to the fields the view cards render.
func SummaryOf(p Profile) ProfileSummary {
	return ProfileSummary{
		ID:             p.Id,
		Name:           p.Name,
		Username:       p.Username,
		ProfilePicture: p.ProfilePicture,
		Tier:           p.Tier,
	}
}
