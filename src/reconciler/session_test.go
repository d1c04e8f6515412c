package reconciler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
	"github.com/talentgrid/connect/src/notify"
)

func newTestSession(t *testing.T, gw gateway.Gateway, viewer primitive.ObjectID) *Session {
	t.Helper()
	log := zap.NewNop().Sugar()
	store := cache.Open(filepath.Join(t.TempDir(), "cache.db"), log)
	s := NewSession(viewer, gw, store, notify.NewDispatcher(5*time.Second), 10*time.Millisecond, log)
	t.Cleanup(func() {
		s.Close()
		store.Close()
	})
	return s
}

func seedProfile(t *testing.T, gw gateway.Gateway, p models.Profile) models.Profile {
	t.Helper()
	require.NoError(t, gw.Insert(context.Background(), gateway.RelationProfiles, p))
	return p
}

func memberView(t *testing.T, s *Session, id primitive.ObjectID) models.MemberView {
	t.Helper()
	for _, m := range s.Members() {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("member %s not in view", id.Hex())
	return models.MemberView{}
}

func TestFollowUnfollowRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	viewer := primitive.NewObjectID()
	creator := seedProfile(t, gw, creatorProfile("Ada"))

	s := newTestSession(t, gw, viewer)
	s.LoadCreators(ctx)

	summary, ok := s.CreatorSummary(creator.Id)
	require.True(t, ok)

	require.NoError(t, s.FollowCreator(ctx, summary))
	require.True(t, s.Creators()[0].Followed, "optimistic flip should apply immediately")

	s.LoadCreators(ctx)
	require.True(t, s.Creators()[0].Followed, "follow should survive a live pass")

	require.NoError(t, s.UnfollowCreator(ctx, summary))
	s.LoadCreators(ctx)
	require.False(t, s.Creators()[0].Followed)

	// No edge may remain in either relation.
	var graph []models.ConnectionEdge
	require.NoError(t, gw.Query(ctx, gateway.RelationConnections, gateway.Query{
		Filter: gateway.Filter{"connection_type": models.EdgeTypeFollow},
	}, &graph))
	require.Empty(t, graph)

	var legacy []models.MediaPageFollow
	require.NoError(t, gw.Query(ctx, gateway.RelationMediaFollows, gateway.Query{}, &legacy))
	require.Empty(t, legacy)
}

func TestConnectAcceptMaterializesOneEdgeForBothSides(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	userA := seedProfile(t, gw, memberProfile("A"))
	userB := seedProfile(t, gw, memberProfile("B"))

	sessA := newTestSession(t, gw, userA.Id)
	sessB := newTestSession(t, gw, userB.Id)
	sessA.LoadMembers(ctx)
	sessB.LoadMembers(ctx)

	target, ok := sessA.MemberSummary(userB.Id)
	require.True(t, ok)
	require.NoError(t, sessA.ConnectMember(ctx, target, "hello"))

	// A sees B pending and not connected; B's incoming list shows A.
	require.Equal(t, models.RequestStatusPending, memberView(t, sessA, userB.Id).RequestStatus)
	require.False(t, memberView(t, sessA, userB.Id).Connected)

	sessB.LoadIncomingRequests(ctx)
	incoming := sessB.IncomingRequests()
	require.Len(t, incoming, 1)
	require.Equal(t, userA.Id, incoming[0].Sender.ID)

	require.NoError(t, sessB.AcceptRequest(ctx, userA.Id))

	// Exactly one colleague edge exists.
	var edges []models.ConnectionEdge
	require.NoError(t, gw.Query(ctx, gateway.RelationConnections, gateway.Query{
		Filter: gateway.Filter{"connection_type": models.EdgeTypeColleague},
	}, &edges))
	require.Len(t, edges, 1)

	// Both sides reconcile to connected and the pending entry is gone.
	sessA.LoadMembers(ctx)
	sessB.LoadMembers(ctx)
	sessB.LoadIncomingRequests(ctx)
	require.True(t, memberView(t, sessA, userB.Id).Connected)
	require.Equal(t, models.RequestStatusNone, memberView(t, sessA, userB.Id).RequestStatus)
	require.True(t, memberView(t, sessB, userA.Id).Connected)
	require.Empty(t, sessB.IncomingRequests())
}

func TestDeclineLeavesNoEdgeAndTerminalRequest(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	userA := seedProfile(t, gw, memberProfile("A"))
	userB := seedProfile(t, gw, memberProfile("B"))

	sessA := newTestSession(t, gw, userA.Id)
	sessB := newTestSession(t, gw, userB.Id)
	sessA.LoadMembers(ctx)

	target, ok := sessA.MemberSummary(userB.Id)
	require.True(t, ok)
	require.NoError(t, sessA.ConnectMember(ctx, target, ""))
	require.NoError(t, sessB.DeclineRequest(ctx, userA.Id))

	var edges []models.ConnectionEdge
	require.NoError(t, gw.Query(ctx, gateway.RelationConnections, gateway.Query{
		Filter: gateway.Filter{"connection_type": models.EdgeTypeColleague},
	}, &edges))
	require.Empty(t, edges)

	var requests []models.ConnectionRequest
	require.NoError(t, gw.Query(ctx, gateway.RelationRequests, gateway.Query{}, &requests))
	require.Len(t, requests, 1)
	require.Equal(t, models.RequestStatusRejected, requests[0].Status)

	sessA.LoadMembers(ctx)
	require.False(t, memberView(t, sessA, userB.Id).Connected)
}

func TestAcceptWithoutPendingRequestIsSilentNoop(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	userA := seedProfile(t, gw, memberProfile("A"))
	userB := seedProfile(t, gw, memberProfile("B"))

	sessB := newTestSession(t, gw, userB.Id)
	require.NoError(t, sessB.AcceptRequest(ctx, userA.Id))

	var edges []models.ConnectionEdge
	require.NoError(t, gw.Query(ctx, gateway.RelationConnections, gateway.Query{}, &edges))
	require.Empty(t, edges)
	require.Empty(t, sessB.Toasts(), "a no-op accept must not surface anything")
}

func TestDisconnectRemovesEitherDirectionAndRepeatsSafely(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	userA := seedProfile(t, gw, memberProfile("A"))
	userB := seedProfile(t, gw, memberProfile("B"))

	// The edge was created by B's accept, so it points B -> A; A's
	// disconnect must still find it.
	require.NoError(t, gw.Insert(ctx, gateway.RelationConnections, colleagueEdge(userB.Id, userA.Id)))

	sessA := newTestSession(t, gw, userA.Id)
	sessA.LoadMembers(ctx)
	require.True(t, memberView(t, sessA, userB.Id).Connected)

	require.NoError(t, sessA.DisconnectMember(ctx, userB.Id))
	require.False(t, memberView(t, sessA, userB.Id).Connected)

	var edges []models.ConnectionEdge
	require.NoError(t, gw.Query(ctx, gateway.RelationConnections, gateway.Query{}, &edges))
	require.Empty(t, edges)

	// Second disconnect on an already disconnected pair is a no-op.
	require.NoError(t, sessA.DisconnectMember(ctx, userB.Id))
}

func TestSendMessageWhitespaceIsNoop(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()

	userA := seedProfile(t, gw, memberProfile("A"))
	userB := seedProfile(t, gw, memberProfile("B"))

	sessA := newTestSession(t, gw, userA.Id)

	require.NoError(t, sessA.SendMessage(ctx, userB.Id, "   \t\n"))
	require.NoError(t, sessA.SendMessage(ctx, primitive.NilObjectID, "real content"))

	var messages []models.Message
	require.NoError(t, gw.Query(ctx, gateway.RelationMessages, gateway.Query{}, &messages))
	require.Empty(t, messages)

	require.NoError(t, sessA.SendMessage(ctx, userB.Id, "hi there"))
	require.NoError(t, gw.Query(ctx, gateway.RelationMessages, gateway.Query{}, &messages))
	require.Len(t, messages, 1)
	require.False(t, messages[0].Read)

	_, thread := sessA.Thread()
	require.Len(t, thread, 1)
	require.Equal(t, "hi there", thread[0].Content)
}

func TestStaleReconciliationPassCannotOverwriteNewerOne(t *testing.T) {
	var gen genCounter

	stale := gen.begin()
	fresh := gen.begin()

	require.True(t, gen.commit(fresh))
	require.False(t, gen.commit(stale), "a pass older than the latest dispatched must be discarded")
}

func TestPaintFromCacheZeroesDerivedFlags(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	log := zap.NewNop().Sugar()

	viewer := primitive.NewObjectID()
	creator := seedProfile(t, gw, creatorProfile("Ada"))

	path := filepath.Join(t.TempDir(), "cache.db")
	store := cache.Open(path, log)
	defer store.Close()

	first := NewSession(viewer, gw, store, notify.NewDispatcher(time.Second), 10*time.Millisecond, log)
	first.LoadCreators(ctx)
	summary, ok := first.CreatorSummary(creator.Id)
	require.True(t, ok)
	require.NoError(t, first.FollowCreator(ctx, summary))
	first.LoadCreators(ctx)
	require.True(t, first.Creators()[0].Followed)
	first.Close()

	// A fresh session paints the cached creator list with flags zeroed;
	// only a live pass may set them.
	second := NewSession(viewer, gw, store, notify.NewDispatcher(time.Second), 10*time.Millisecond, log)
	defer second.Close()
	second.PaintFromCache()

	creators := second.Creators()
	require.Len(t, creators, 1)
	require.Equal(t, creator.Id, creators[0].ID)
	require.False(t, creators[0].Followed)

	second.LoadCreators(ctx)
	require.True(t, second.Creators()[0].Followed)
}
