package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Derived per-session view state. Owned exclusively by the reconciler,
// recomputed from live reads, never persisted: a stale Followed or
// Connected flag painted from disk would be worse than an empty one.

type CreatorView struct {
	ProfileSummary
	FollowerCount int64 `json:"followerCount"`
	Followed      bool  `json:"followed"`
}

// MemberView's RequestStatus covers requests sent BY the viewer only.
// Requests addressed to the viewer are surfaced as IncomingRequest entries.
type MemberView struct {
	ProfileSummary
	Connected       bool          `json:"connected"`
	RequestStatus   RequestStatus `json:"requestStatus"` // pending or none
	ConnectionCount int64         `json:"connectionCount"`
}

const RequestStatusNone RequestStatus = "none"

type ConnectionListEntry struct {
	Peer  ProfileSummary `json:"peer"`
	Since time.Time      `json:"since"`
}

type IncomingRequest struct {
	Id        primitive.ObjectID `json:"id"`
	Sender    ProfileSummary     `json:"sender"`
	Message   string             `json:"message,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}
