package reconciler

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
)

// Each loader is one reconciliation pass for its list: independent reads
// dispatched in parallel, combined synchronously once all resolve. A
// failed read leaves the previous (possibly cached) value in place.

// LoadCreators reads the creator page and the viewer's follow edges from
// both relations, then recomputes the followed flags.
func (s *Session) LoadCreators(ctx context.Context) {
	token := s.creatorGen.begin()

	var profiles []models.Profile
	var follows []gateway.FollowEdge

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationProfiles, gateway.Query{
			Filter:   gateway.Filter{"account_type": models.AccountTypeCreator},
			SortBy:   "created_at",
			SortDesc: true,
			Limit:    creatorPageSize,
		}, &profiles)
	})
	g.Go(func() error {
		var err error
		follows, err = s.follows.ListByUser(gctx, s.viewer)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Errorf("Error loading creators: %v", err)
		return
	}

	views := BuildCreatorViews(profiles, follows, s.viewer)

	s.mu.Lock()
	committed := s.creatorGen.commit(token)
	if committed {
		s.creators = views
	}
	s.mu.Unlock()

	if committed {
		s.store.Put(cache.KeyCreators, profiles)
	}
}

// LoadMembers reads the member page, the viewer's colleague edges in both
// directions, the full colleague edge set (the global counts depend on
// every user's edges) and the viewer's outgoing pending requests.
func (s *Session) LoadMembers(ctx context.Context) {
	token := s.memberGen.begin()

	var profiles []models.Profile
	var outgoing, incoming, all []models.ConnectionEdge
	var pendingOut []models.ConnectionRequest

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationProfiles, gateway.Query{
			Filter: gateway.Filter{
				"account_type": models.AccountTypeMember,
				"_id":          gateway.Filter{"$ne": s.viewer},
			},
			SortBy:   "created_at",
			SortDesc: true,
			Limit:    memberPageSize,
		}, &profiles)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationConnections, gateway.Query{
			Filter: gateway.Filter{"source": s.viewer, "connection_type": models.EdgeTypeColleague},
		}, &outgoing)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationConnections, gateway.Query{
			Filter: gateway.Filter{"target": s.viewer, "connection_type": models.EdgeTypeColleague},
		}, &incoming)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationConnections, gateway.Query{
			Filter: gateway.Filter{"connection_type": models.EdgeTypeColleague},
		}, &all)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationRequests, gateway.Query{
			Filter: gateway.Filter{"sender": s.viewer, "status": models.RequestStatusPending},
		}, &pendingOut)
	})
	if err := g.Wait(); err != nil {
		s.log.Errorf("Error loading members: %v", err)
		return
	}

	views := BuildMemberViews(profiles, outgoing, incoming, all, pendingOut, s.viewer)

	s.mu.Lock()
	committed := s.memberGen.commit(token)
	if committed {
		s.members = views
	}
	s.mu.Unlock()

	if committed {
		s.store.Put(cache.KeyMembers, profiles)
	}
}

// LoadConnections resolves the viewer's connection list with peer
// profiles.
func (s *Session) LoadConnections(ctx context.Context) {
	token := s.connectionGen.begin()

	var outgoing, incoming []models.ConnectionEdge

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationConnections, gateway.Query{
			Filter: gateway.Filter{"source": s.viewer, "connection_type": models.EdgeTypeColleague},
		}, &outgoing)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationConnections, gateway.Query{
			Filter: gateway.Filter{"target": s.viewer, "connection_type": models.EdgeTypeColleague},
		}, &incoming)
	})
	if err := g.Wait(); err != nil {
		s.log.Errorf("Error loading connections: %v", err)
		return
	}

	peers := make([]primitive.ObjectID, 0, len(outgoing)+len(incoming))
	for _, e := range outgoing {
		peers = append(peers, e.Target)
	}
	for _, e := range incoming {
		peers = append(peers, e.Source)
	}

	var profiles []models.Profile
	if len(peers) > 0 {
		err := s.gw.Query(ctx, gateway.RelationProfiles, gateway.Query{
			Filter: gateway.Filter{"_id": gateway.Filter{"$in": peers}},
		}, &profiles)
		if err != nil {
			s.log.Errorf("Error loading connection profiles: %v", err)
			return
		}
	}

	entries := BuildConnectionList(outgoing, incoming, profiles, s.viewer)

	s.mu.Lock()
	if s.connectionGen.commit(token) {
		s.connections = entries
	}
	s.mu.Unlock()
}

// LoadIncomingRequests reads pending requests addressed to the viewer.
// This is the accept/decline surface; the per-member RequestStatus only
// tracks the viewer's own outgoing requests.
func (s *Session) LoadIncomingRequests(ctx context.Context) {
	token := s.incomingGen.begin()

	var requests []models.ConnectionRequest
	err := s.gw.Query(ctx, gateway.RelationRequests, gateway.Query{
		Filter:   gateway.Filter{"recipient": s.viewer, "status": models.RequestStatusPending},
		SortBy:   "created_at",
		SortDesc: true,
	}, &requests)
	if err != nil {
		s.log.Errorf("Error loading connection requests: %v", err)
		return
	}

	var profiles []models.Profile
	if len(requests) > 0 {
		senders := make([]primitive.ObjectID, 0, len(requests))
		for _, r := range requests {
			senders = append(senders, r.Sender)
		}
		err := s.gw.Query(ctx, gateway.RelationProfiles, gateway.Query{
			Filter: gateway.Filter{"_id": gateway.Filter{"$in": senders}},
		}, &profiles)
		if err != nil {
			s.log.Errorf("Error loading request senders: %v", err)
			return
		}
	}

	views := BuildIncomingRequests(requests, profiles)

	s.mu.Lock()
	if s.incomingGen.commit(token) {
		s.incoming = views
	}
	s.mu.Unlock()
}

// LoadThread loads the conversation with peer, both directions merged in
// time order.
func (s *Session) LoadThread(ctx context.Context, peer primitive.ObjectID) {
	token := s.threadGen.begin()

	var sent, received []models.Message

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationMessages, gateway.Query{
			Filter: gateway.Filter{"sender": s.viewer, "recipient": peer},
		}, &sent)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationMessages, gateway.Query{
			Filter: gateway.Filter{"sender": peer, "recipient": s.viewer},
		}, &received)
	})
	if err := g.Wait(); err != nil {
		s.log.Errorf("Error loading messages: %v", err)
		return
	}

	thread := MergeMessageThread(sent, received)

	s.mu.Lock()
	if s.threadGen.commit(token) {
		s.thread = thread
		s.threadPeer = peer
	}
	s.mu.Unlock()
}

// LoadCatalog reads the read-only groups/teams catalog and the viewer's
// live recommendations.
func (s *Session) LoadCatalog(ctx context.Context) {
	token := s.catalogGen.begin()

	var groups []models.Group
	var teams []models.Team
	var recs []models.Recommendation

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationGroups, gateway.Query{
			SortBy: "member_count", SortDesc: true,
		}, &groups)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationTeams, gateway.Query{
			SortBy: "member_count", SortDesc: true,
		}, &teams)
	})
	g.Go(func() error {
		return s.gw.Query(gctx, gateway.RelationRecommendations, gateway.Query{
			Filter:   gateway.Filter{"user_id": s.viewer, "dismissed": false},
			SortBy:   "score",
			SortDesc: true,
		}, &recs)
	})
	if err := g.Wait(); err != nil {
		s.log.Errorf("Error loading catalog: %v", err)
		return
	}

	s.mu.Lock()
	if s.catalogGen.commit(token) {
		s.groups = groups
		s.teams = teams
		s.recs = recs
	}
	s.mu.Unlock()
}
