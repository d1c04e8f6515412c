package reconciler

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
	"github.com/talentgrid/connect/src/notify"
)

// fail surfaces a mutation failure as an error toast. Optimistic state
// already applied is not rolled back here.
func (s *Session) fail(message string, err error) {
	s.log.Errorf("%s: %v", message, err)
	s.toasts.Push(message, notify.KindError)
}

// FollowCreator records the follow in both relations. The write succeeds
// only if both inserts succeed; a partial first insert is compensated
// before the failure is reported. On success the local flag flips
// immediately and a settle reload picks up the trigger-updated follower
// count.
func (s *Session) FollowCreator(ctx context.Context, creator models.ProfileSummary) error {
	graph := gateway.FollowEdge{UserID: s.viewer, CreatorID: creator.ID, Kind: gateway.FollowGraph}
	legacy := gateway.FollowEdge{UserID: s.viewer, CreatorName: creator.Name, Kind: gateway.FollowLegacy}

	if err := s.follows.Add(ctx, graph); err != nil {
		s.fail("Failed to follow creator", err)
		return err
	}
	if err := s.follows.Add(ctx, legacy); err != nil {
		if rerr := s.follows.Remove(ctx, graph); rerr != nil {
			s.log.Errorf("Error compensating follow insert: %v", rerr)
		}
		s.fail("Failed to follow creator", err)
		return err
	}

	s.setFollowed(creator.ID, true)
	s.toasts.Push("Now following "+creator.Name, notify.KindSuccess)
	s.scheduleReload(s.LoadCreators)
	return nil
}

// UnfollowCreator mirrors FollowCreator, deleting from both relations
// keyed by id and by name respectively.
func (s *Session) UnfollowCreator(ctx context.Context, creator models.ProfileSummary) error {
	graph := gateway.FollowEdge{UserID: s.viewer, CreatorID: creator.ID, Kind: gateway.FollowGraph}
	legacy := gateway.FollowEdge{UserID: s.viewer, CreatorName: creator.Name, Kind: gateway.FollowLegacy}

	if err := s.follows.Remove(ctx, graph); err != nil {
		s.fail("Failed to unfollow creator", err)
		return err
	}
	if err := s.follows.Remove(ctx, legacy); err != nil {
		s.fail("Failed to unfollow creator", err)
		return err
	}

	s.setFollowed(creator.ID, false)
	s.toasts.Push("Unfollowed "+creator.Name, notify.KindSuccess)
	s.scheduleReload(s.LoadCreators)
	return nil
}

// ConnectMember creates a pending connection request. The colleague edge
// is only materialized when the recipient accepts.
func (s *Session) ConnectMember(ctx context.Context, member models.ProfileSummary, message string) error {
	now := time.Now()
	request := models.ConnectionRequest{
		Id:        primitive.NewObjectID(),
		Sender:    s.viewer,
		Recipient: member.ID,
		Status:    models.RequestStatusPending,
		Message:   strings.TrimSpace(message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.gw.Insert(ctx, gateway.RelationRequests, request); err != nil {
		s.fail("Failed to send connection request", err)
		return err
	}

	s.setRequestStatus(member.ID, models.RequestStatusPending)
	s.toasts.Push("Connection request sent to "+member.Name, notify.KindSuccess)
	return nil
}

// AcceptRequest accepts the pending request from member to the viewer and
// materializes the colleague edge. A missing request is a silent no-op.
func (s *Session) AcceptRequest(ctx context.Context, member primitive.ObjectID) error {
	request, err := s.findPendingFrom(ctx, member)
	if err != nil {
		s.fail("Failed to accept connection request", err)
		return err
	}
	if request == nil {
		return nil
	}

	_, err = s.gw.Update(ctx, gateway.RelationRequests,
		gateway.Filter{"_id": request.Id},
		map[string]any{"status": models.RequestStatusAccepted, "updated_at": time.Now()})
	if err != nil {
		s.fail("Failed to accept connection request", err)
		return err
	}

	edge := models.ConnectionEdge{
		Id:        primitive.NewObjectID(),
		Source:    member,
		Target:    s.viewer,
		Type:      models.EdgeTypeColleague,
		CreatedAt: time.Now(),
	}
	if err := s.gw.Insert(ctx, gateway.RelationConnections, edge); err != nil {
		s.fail("Failed to accept connection request", err)
		return err
	}

	s.store.Invalidate(cache.KeyMembers)
	s.toasts.Push("Connection request accepted", notify.KindSuccess)
	s.scheduleReload(func(ctx context.Context) {
		s.LoadMembers(ctx)
		s.LoadConnections(ctx)
		s.LoadIncomingRequests(ctx)
	})
	return nil
}

// DeclineRequest rejects the pending request from member. No edge is
// created; a missing request is a silent no-op.
func (s *Session) DeclineRequest(ctx context.Context, member primitive.ObjectID) error {
	request, err := s.findPendingFrom(ctx, member)
	if err != nil {
		s.fail("Failed to decline connection request", err)
		return err
	}
	if request == nil {
		return nil
	}

	_, err = s.gw.Update(ctx, gateway.RelationRequests,
		gateway.Filter{"_id": request.Id},
		map[string]any{"status": models.RequestStatusRejected, "updated_at": time.Now()})
	if err != nil {
		s.fail("Failed to decline connection request", err)
		return err
	}

	s.store.Invalidate(cache.KeyMembers)
	s.scheduleReload(func(ctx context.Context) {
		s.LoadMembers(ctx)
		s.LoadIncomingRequests(ctx)
	})
	return nil
}

func (s *Session) findPendingFrom(ctx context.Context, member primitive.ObjectID) (*models.ConnectionRequest, error) {
	var requests []models.ConnectionRequest
	err := s.gw.Query(ctx, gateway.RelationRequests, gateway.Query{
		Filter: gateway.Filter{
			"sender":    member,
			"recipient": s.viewer,
			"status":    models.RequestStatusPending,
		},
		Limit: 1,
	}, &requests)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

// DisconnectMember deletes the colleague edge in both possible
// directions; callers do not know which one exists, so the dual attempt
// is the correctness mechanism. Deleting nothing on an already
// disconnected pair is a safe no-op. The member view is always reloaded.
func (s *Session) DisconnectMember(ctx context.Context, member primitive.ObjectID) error {
	n1, err1 := s.gw.Delete(ctx, gateway.RelationConnections, gateway.Filter{
		"source":          s.viewer,
		"target":          member,
		"connection_type": models.EdgeTypeColleague,
	})
	n2, err2 := s.gw.Delete(ctx, gateway.RelationConnections, gateway.Filter{
		"source":          member,
		"target":          s.viewer,
		"connection_type": models.EdgeTypeColleague,
	})

	s.store.Invalidate(cache.KeyMembers)
	s.LoadMembers(ctx)
	s.LoadConnections(ctx)

	if n1+n2 > 0 {
		s.toasts.Push("Connection removed", notify.KindSuccess)
		return nil
	}
	if err1 != nil || err2 != nil {
		err := err1
		if err == nil {
			err = err2
		}
		s.fail("Failed to remove connection", err)
		return err
	}
	return nil
}

// SendMessage inserts a message row and reloads the thread. An empty or
// whitespace-only body (or no selected peer) is a local no-op.
func (s *Session) SendMessage(ctx context.Context, peer primitive.ObjectID, body string) error {
	if peer.IsZero() || strings.TrimSpace(body) == "" {
		return nil
	}

	message := models.Message{
		Id:        primitive.NewObjectID(),
		Sender:    s.viewer,
		Recipient: peer,
		Content:   body,
		Read:      false,
		CreatedAt: time.Now(),
	}
	if err := s.gw.Insert(ctx, gateway.RelationMessages, message); err != nil {
		s.fail("Failed to send message", err)
		return err
	}

	s.LoadThread(ctx, peer)
	return nil
}
