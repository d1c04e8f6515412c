// Package reconciler computes the derived Connect view state for one
// viewer: follow flags, bidirectional connection status, pending-request
// status and live connection counts. The functions in this file are pure;
// all I/O lives in the session loaders.
package reconciler

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
)

// BuildCreatorViews marks a creator followed if the viewer has a graph
// edge to its id OR a legacy edge to its display name.
func BuildCreatorViews(profiles []models.Profile, follows []gateway.FollowEdge, viewer primitive.ObjectID) []models.CreatorView {
	followedIds := make(map[primitive.ObjectID]struct{})
	followedNames := make(map[string]struct{})
	for _, e := range follows {
		if e.UserID != viewer {
			continue
		}
		switch e.Kind {
		case gateway.FollowLegacy:
			followedNames[e.CreatorName] = struct{}{}
		default:
			followedIds[e.CreatorID] = struct{}{}
		}
	}

	views := make([]models.CreatorView, 0, len(profiles))
	for _, p := range profiles {
		_, byId := followedIds[p.Id]
		_, byName := followedNames[p.Name]
		views = append(views, models.CreatorView{
			ProfileSummary: models.SummaryOf(p),
			FollowerCount:  p.FollowerCount,
			Followed:       byId || byName,
		})
	}
	return views
}

// ConnectedSet collects the identities connected to the viewer in either
// direction. Directionality is discarded once a member is in the set.
func ConnectedSet(outgoing, incoming []models.ConnectionEdge, viewer primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{})
	for _, e := range outgoing {
		if e.Source == viewer {
			set[e.Target] = struct{}{}
		}
	}
	for _, e := range incoming {
		if e.Target == viewer {
			set[e.Source] = struct{}{}
		}
	}
	return set
}

// ConnectionCounts computes the global connection count per identity over
// the full colleague edge set: appearances as source plus appearances as
// target. The count is viewer-independent.
func ConnectionCounts(edges []models.ConnectionEdge) map[primitive.ObjectID]int64 {
	counts := make(map[primitive.ObjectID]int64)
	for _, e := range edges {
		counts[e.Source]++
		counts[e.Target]++
	}
	return counts
}

// BuildMemberViews combines the member profile page with the viewer's
// colleague edges, the global edge set and the viewer's outgoing pending
// requests.
func BuildMemberViews(profiles []models.Profile, outgoing, incoming, all []models.ConnectionEdge, pendingOut []models.ConnectionRequest, viewer primitive.ObjectID) []models.MemberView {
	connected := ConnectedSet(outgoing, incoming, viewer)
	counts := ConnectionCounts(all)

	pending := make(map[primitive.ObjectID]struct{})
	for _, r := range pendingOut {
		if r.Sender == viewer && r.Status == models.RequestStatusPending {
			pending[r.Recipient] = struct{}{}
		}
	}

	views := make([]models.MemberView, 0, len(profiles))
	for _, p := range profiles {
		status := models.RequestStatusNone
		if _, ok := pending[p.Id]; ok {
			status = models.RequestStatusPending
		}
		_, isConnected := connected[p.Id]
		views = append(views, models.MemberView{
			ProfileSummary:  models.SummaryOf(p),
			Connected:       isConnected,
			RequestStatus:   status,
			ConnectionCount: counts[p.Id],
		})
	}
	return views
}

// BuildConnectionList resolves the viewer's connected peers against their
// profiles, newest connection first. Peers without a loaded profile are
// skipped rather than rendered empty.
func BuildConnectionList(outgoing, incoming []models.ConnectionEdge, profiles []models.Profile, viewer primitive.ObjectID) []models.ConnectionListEntry {
	byId := make(map[primitive.ObjectID]models.Profile, len(profiles))
	for _, p := range profiles {
		byId[p.Id] = p
	}

	seen := make(map[primitive.ObjectID]struct{})
	var entries []models.ConnectionListEntry
	appendPeer := func(peer primitive.ObjectID, e models.ConnectionEdge) {
		if _, dup := seen[peer]; dup {
			return
		}
		seen[peer] = struct{}{}
		p, ok := byId[peer]
		if !ok {
			return
		}
		entries = append(entries, models.ConnectionListEntry{Peer: models.SummaryOf(p), Since: e.CreatedAt})
	}
	for _, e := range outgoing {
		if e.Source == viewer {
			appendPeer(e.Target, e)
		}
	}
	for _, e := range incoming {
		if e.Target == viewer {
			appendPeer(e.Source, e)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Since.After(entries[j].Since)
	})
	return entries
}

// BuildIncomingRequests resolves pending requests addressed to the viewer
// against their senders' profiles.
func BuildIncomingRequests(requests []models.ConnectionRequest, profiles []models.Profile) []models.IncomingRequest {
	byId := make(map[primitive.ObjectID]models.Profile, len(profiles))
	for _, p := range profiles {
		byId[p.Id] = p
	}

	var out []models.IncomingRequest
	for _, r := range requests {
		if r.Status != models.RequestStatusPending {
			continue
		}
		sender, ok := byId[r.Sender]
		if !ok {
			continue
		}
		out = append(out, models.IncomingRequest{
			Id:        r.Id,
			Sender:    models.SummaryOf(sender),
			Message:   r.Message,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

// MergeMessageThread interleaves both directions of a conversation in
// chronological order.
func MergeMessageThread(sent, received []models.Message) []models.Message {
	thread := make([]models.Message, 0, len(sent)+len(received))
	thread = append(thread, sent...)
	thread = append(thread, received...)
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].CreatedAt.Before(thread[j].CreatedAt)
	})
	return thread
}
