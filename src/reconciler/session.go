package reconciler

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
	"github.com/talentgrid/connect/src/notify"
)

const (
	creatorPageSize = 100
	memberPageSize  = 50

	// DefaultSettleDelay is how long a mutation waits before re-reading,
	// giving the backend counter triggers time to run.
	DefaultSettleDelay = 1500 * time.Millisecond
)

// Session owns the derived Connect view for one viewer. Derived lists are
// written only by its own pass completions; everyone else reads copies.
type Session struct {
	viewer  primitive.ObjectID
	gw      gateway.Gateway
	follows *gateway.FollowStore
	store   *cache.Store
	toasts  *notify.Dispatcher
	log     *zap.SugaredLogger

	settleDelay time.Duration

	mu          sync.Mutex
	creators    []models.CreatorView
	members     []models.MemberView
	connections []models.ConnectionListEntry
	incoming    []models.IncomingRequest
	thread      []models.Message
	threadPeer  primitive.ObjectID
	groups      []models.Group
	teams       []models.Team
	recs        []models.Recommendation

	creatorGen    genCounter
	memberGen     genCounter
	connectionGen genCounter
	incomingGen   genCounter
	threadGen     genCounter
	catalogGen    genCounter

	timerMu sync.Mutex
	closed  bool
	timers  map[*time.Timer]struct{}

	reactor *reactor
}

func NewSession(viewer primitive.ObjectID, gw gateway.Gateway, store *cache.Store, toasts *notify.Dispatcher, settleDelay time.Duration, log *zap.SugaredLogger) *Session {
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	return &Session{
		viewer:      viewer,
		gw:          gw,
		follows:     gateway.NewFollowStore(gw),
		store:       store,
		toasts:      toasts,
		log:         log,
		settleDelay: settleDelay,
		timers:      make(map[*time.Timer]struct{}),
	}
}

func (s *Session) Viewer() primitive.ObjectID { return s.viewer }

// PaintFromCache seeds the creator and member lists from the local
// snapshots so the view renders before the first live pass. Derived flags
// are zeroed; they were never persisted.
func (s *Session) PaintFromCache() {
	var creators []models.Profile
	if s.store.Get(cache.KeyCreators, &creators) {
		views := BuildCreatorViews(creators, nil, s.viewer)
		s.mu.Lock()
		if s.creators == nil {
			s.creators = views
		}
		s.mu.Unlock()
	}

	var members []models.Profile
	if s.store.Get(cache.KeyMembers, &members) {
		views := BuildMemberViews(members, nil, nil, nil, nil, s.viewer)
		s.mu.Lock()
		if s.members == nil {
			s.members = views
		}
		s.mu.Unlock()
	}
}

// Refresh runs a full reconciliation pass over every derived list.
func (s *Session) Refresh(ctx context.Context) {
	s.LoadCreators(ctx)
	s.LoadMembers(ctx)
	s.LoadConnections(ctx)
	s.LoadIncomingRequests(ctx)
	s.LoadCatalog(ctx)
}

func (s *Session) Creators() []models.CreatorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CreatorView, len(s.creators))
	copy(out, s.creators)
	return out
}

func (s *Session) Members() []models.MemberView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MemberView, len(s.members))
	copy(out, s.members)
	return out
}

func (s *Session) Connections() []models.ConnectionListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConnectionListEntry, len(s.connections))
	copy(out, s.connections)
	return out
}

func (s *Session) IncomingRequests() []models.IncomingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.IncomingRequest, len(s.incoming))
	copy(out, s.incoming)
	return out
}

func (s *Session) Thread() (primitive.ObjectID, []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.thread))
	copy(out, s.thread)
	return s.threadPeer, out
}

func (s *Session) Groups() []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Group, len(s.groups))
	copy(out, s.groups)
	return out
}

func (s *Session) Teams() []models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Team, len(s.teams))
	copy(out, s.teams)
	return out
}

func (s *Session) Recommendations() []models.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Recommendation, len(s.recs))
	copy(out, s.recs)
	return out
}

func (s *Session) Toasts() []notify.Toast { return s.toasts.Active() }

// CreatorSummary looks a creator up in the loaded view.
func (s *Session) CreatorSummary(id primitive.ObjectID) (models.ProfileSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creators {
		if c.ID == id {
			return c.ProfileSummary, true
		}
	}
	return models.ProfileSummary{}, false
}

// MemberSummary looks a member up in the loaded view.
func (s *Session) MemberSummary(id primitive.ObjectID) (models.ProfileSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.ID == id {
			return m.ProfileSummary, true
		}
	}
	return models.ProfileSummary{}, false
}

// scheduleReload arms a cancellable settle timer. Timers are stopped on
// Close so a torn-down session never applies a late reload.
func (s *Session) scheduleReload(fn func(context.Context)) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.closed {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(s.settleDelay, func() {
		s.timerMu.Lock()
		closed := s.closed
		delete(s.timers, timer)
		s.timerMu.Unlock()
		if closed {
			return
		}
		fn(context.Background())
	})
	s.timers[timer] = struct{}{}
}

// Close releases the reactor subscriptions and pending settle timers.
func (s *Session) Close() {
	s.timerMu.Lock()
	s.closed = true
	for timer := range s.timers {
		timer.Stop()
		delete(s.timers, timer)
	}
	s.timerMu.Unlock()

	if s.reactor != nil {
		s.reactor.stop()
		s.reactor = nil
	}
	s.toasts.Close()
}

// setFollowed applies the optimistic follow flip.
func (s *Session) setFollowed(creator primitive.ObjectID, followed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.creators {
		if s.creators[i].ID == creator {
			s.creators[i].Followed = followed
		}
	}
}

// setRequestStatus applies the optimistic pending flip.
func (s *Session) setRequestStatus(member primitive.ObjectID, status models.RequestStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.members {
		if s.members[i].ID == member {
			s.members[i].RequestStatus = status
		}
	}
}

// patchFollowerCount updates counter fields in place from a profile
// change event, without a reload.
func (s *Session) patchFollowerCount(id primitive.ObjectID, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.creators {
		if s.creators[i].ID == id {
			s.creators[i].FollowerCount = count
		}
	}
}

// genCounter guards a derived list against stale overwrites: a pass may
// commit only if no newer pass was dispatched for the same list.
type genCounter struct {
	mu      sync.Mutex
	started uint64
}

func (g *genCounter) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started++
	return g.started
}

func (g *genCounter) commit(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.started
}
