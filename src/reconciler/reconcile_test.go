package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
)

func creatorProfile(name string) models.Profile {
	return models.Profile{
		Id:          primitive.NewObjectID(),
		Name:        name,
		AccountType: models.AccountTypeCreator,
		CreatedAt:   time.Now(),
	}
}

func memberProfile(name string) models.Profile {
	return models.Profile{
		Id:          primitive.NewObjectID(),
		Name:        name,
		AccountType: models.AccountTypeMember,
		CreatedAt:   time.Now(),
	}
}

func colleagueEdge(source, target primitive.ObjectID) models.ConnectionEdge {
	return models.ConnectionEdge{
		Id:        primitive.NewObjectID(),
		Source:    source,
		Target:    target,
		Type:      models.EdgeTypeColleague,
		CreatedAt: time.Now(),
	}
}

func TestBuildCreatorViewsFollowedByEitherRelation(t *testing.T) {
	viewer := primitive.NewObjectID()
	byId := creatorProfile("Ada")
	byName := creatorProfile("Grace")
	neither := creatorProfile("Edsger")

	follows := []gateway.FollowEdge{
		{UserID: viewer, CreatorID: byId.Id, Kind: gateway.FollowGraph},
		{UserID: viewer, CreatorName: "Grace", Kind: gateway.FollowLegacy},
		// Someone else's edge must not leak into the viewer's flags.
		{UserID: primitive.NewObjectID(), CreatorID: neither.Id, Kind: gateway.FollowGraph},
	}

	views := BuildCreatorViews([]models.Profile{byId, byName, neither}, follows, viewer)

	assert.Len(t, views, 3)
	assert.True(t, views[0].Followed, "graph edge by id should mark followed")
	assert.True(t, views[1].Followed, "legacy edge by name should mark followed")
	assert.False(t, views[2].Followed)
}

func TestBuildCreatorViewsDuplicateFollowEdgesTolerated(t *testing.T) {
	viewer := primitive.NewObjectID()
	creator := creatorProfile("Ada")

	follows := []gateway.FollowEdge{
		{UserID: viewer, CreatorID: creator.Id, Kind: gateway.FollowGraph},
		{UserID: viewer, CreatorID: creator.Id, Kind: gateway.FollowGraph},
		{UserID: viewer, CreatorName: "Ada", Kind: gateway.FollowLegacy},
	}

	views := BuildCreatorViews([]models.Profile{creator}, follows, viewer)
	assert.True(t, views[0].Followed)
}

func TestBuildMemberViewsConnectedEitherDirection(t *testing.T) {
	viewer := primitive.NewObjectID()
	outPeer := memberProfile("Out")
	inPeer := memberProfile("In")
	stranger := memberProfile("Stranger")

	outgoing := []models.ConnectionEdge{colleagueEdge(viewer, outPeer.Id)}
	incoming := []models.ConnectionEdge{colleagueEdge(inPeer.Id, viewer)}
	all := append(append([]models.ConnectionEdge{}, outgoing...), incoming...)

	views := BuildMemberViews([]models.Profile{outPeer, inPeer, stranger}, outgoing, incoming, all, nil, viewer)

	assert.True(t, views[0].Connected)
	assert.True(t, views[1].Connected)
	assert.False(t, views[2].Connected)
}

func TestConnectionCountsBothEndpointsGlobal(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	edges := []models.ConnectionEdge{
		colleagueEdge(a, b),
		colleagueEdge(c, a),
		colleagueEdge(b, c),
	}

	counts := ConnectionCounts(edges)
	assert.Equal(t, int64(2), counts[a])
	assert.Equal(t, int64(2), counts[b])
	assert.Equal(t, int64(2), counts[c])
}

func TestConnectionCountsDoubleCountsMutualEdges(t *testing.T) {
	// An edge in each direction between the same pair counts twice for
	// both endpoints; that is the displayed definition, not a bug.
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	counts := ConnectionCounts([]models.ConnectionEdge{
		colleagueEdge(a, b),
		colleagueEdge(b, a),
	})
	assert.Equal(t, int64(2), counts[a])
	assert.Equal(t, int64(2), counts[b])
}

func TestBuildMemberViewsPendingIsOutgoingOnly(t *testing.T) {
	viewer := primitive.NewObjectID()
	sentTo := memberProfile("SentTo")
	receivedFrom := memberProfile("ReceivedFrom")

	requests := []models.ConnectionRequest{
		{Sender: viewer, Recipient: sentTo.Id, Status: models.RequestStatusPending},
		// A request addressed to the viewer must not show as pending on
		// the sender's card; it belongs to the incoming list.
		{Sender: receivedFrom.Id, Recipient: viewer, Status: models.RequestStatusPending},
	}

	views := BuildMemberViews([]models.Profile{sentTo, receivedFrom}, nil, nil, nil, requests, viewer)

	assert.Equal(t, models.RequestStatusPending, views[0].RequestStatus)
	assert.Equal(t, models.RequestStatusNone, views[1].RequestStatus)
}

func TestBuildConnectionListDedupesAndSkipsUnknownProfiles(t *testing.T) {
	viewer := primitive.NewObjectID()
	peer := memberProfile("Peer")
	ghost := primitive.NewObjectID()

	outgoing := []models.ConnectionEdge{
		colleagueEdge(viewer, peer.Id),
		colleagueEdge(viewer, ghost),
	}
	incoming := []models.ConnectionEdge{colleagueEdge(peer.Id, viewer)}

	entries := BuildConnectionList(outgoing, incoming, []models.Profile{peer}, viewer)

	assert.Len(t, entries, 1)
	assert.Equal(t, peer.Id, entries[0].Peer.ID)
}

func TestMergeMessageThreadChronological(t *testing.T) {
	base := time.Now()
	sent := []models.Message{
		{Content: "first", CreatedAt: base},
		{Content: "third", CreatedAt: base.Add(2 * time.Second)},
	}
	received := []models.Message{
		{Content: "second", CreatedAt: base.Add(time.Second)},
	}

	thread := MergeMessageThread(sent, received)

	assert.Equal(t, "first", thread[0].Content)
	assert.Equal(t, "second", thread[1].Content)
	assert.Equal(t, "third", thread[2].Content)
}

func TestBuildIncomingRequestsSkipsNonPending(t *testing.T) {
	sender := memberProfile("Sender")
	requests := []models.ConnectionRequest{
		{Id: primitive.NewObjectID(), Sender: sender.Id, Status: models.RequestStatusPending},
		{Id: primitive.NewObjectID(), Sender: sender.Id, Status: models.RequestStatusRejected},
	}

	out := BuildIncomingRequests(requests, []models.Profile{sender})
	assert.Len(t, out, 1)
}
