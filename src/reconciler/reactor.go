package reconciler

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/models"
	"github.com/talentgrid/connect/src/notify"
)

// reactor owns the session's five change-stream subscriptions and turns
// events into reloads. Reload triggers are capacity-1 channels drained by
// a rate-limited worker, so an event storm coalesces into one pass.
type reactor struct {
	cancel  context.CancelFunc
	subs    []gateway.Subscription
	wg      sync.WaitGroup
	limiter *rate.Limiter

	creatorTrigger    chan struct{}
	memberTrigger     chan struct{}
	connectionTrigger chan struct{}
	incomingTrigger   chan struct{}
}

// StartReactor subscribes to the change streams backing the derived view.
// All subscriptions are released by Close.
func (s *Session) StartReactor(ctx context.Context) error {
	rctx, cancel := context.WithCancel(ctx)
	r := &reactor{
		cancel:            cancel,
		limiter:           rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		creatorTrigger:    make(chan struct{}, 1),
		memberTrigger:     make(chan struct{}, 1),
		connectionTrigger: make(chan struct{}, 1),
		incomingTrigger:   make(chan struct{}, 1),
	}

	subscribe := func(relation string, filter gateway.Filter, handler func(gateway.Event), kinds ...gateway.EventKind) error {
		sub, err := s.gw.Subscribe(rctx, relation, filter, kinds...)
		if err != nil {
			return err
		}
		r.subs = append(r.subs, sub)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for ev := range sub.Events() {
				handler(ev)
			}
		}()
		return nil
	}

	// (a) the viewer's outbound graph follows
	err := subscribe(gateway.RelationConnections,
		gateway.Filter{"source": s.viewer, "connection_type": models.EdgeTypeFollow},
		func(gateway.Event) { trigger(r.creatorTrigger) })
	// (b) the viewer's legacy media-page follows
	if err == nil {
		err = subscribe(gateway.RelationMediaFollows,
			gateway.Filter{"user_id": s.viewer},
			func(gateway.Event) { trigger(r.creatorTrigger) })
	}
	// (c) profile updates anywhere, patched in place by id
	if err == nil {
		err = subscribe(gateway.RelationProfiles, nil,
			s.onProfileEvent, gateway.EventUpdate)
	}
	// (d) colleague edges anywhere: the global counts depend on every
	// user's edges, so any change invalidates every member view
	if err == nil {
		err = subscribe(gateway.RelationConnections,
			gateway.Filter{"connection_type": models.EdgeTypeColleague},
			func(ev gateway.Event) { s.onColleagueEvent(r, ev) })
	}
	// (e) connection requests anywhere
	if err == nil {
		err = subscribe(gateway.RelationRequests, nil,
			func(ev gateway.Event) { s.onRequestEvent(r, ev) })
	}

	if err != nil {
		for _, sub := range r.subs {
			sub.Close()
		}
		cancel()
		r.wg.Wait()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(rctx, s)
	}()

	s.reactor = r
	return nil
}

func (r *reactor) run(ctx context.Context, s *Session) {
	reload := func(fn func(context.Context)) {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		fn(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.creatorTrigger:
			reload(s.LoadCreators)
		case <-r.memberTrigger:
			reload(s.LoadMembers)
		case <-r.connectionTrigger:
			reload(s.LoadConnections)
		case <-r.incomingTrigger:
			reload(s.LoadIncomingRequests)
		}
	}
}

func (r *reactor) stop() {
	for _, sub := range r.subs {
		sub.Close()
	}
	r.cancel()
	r.wg.Wait()
}

// trigger coalesces: a pending trigger absorbs later ones.
func trigger(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *Session) onProfileEvent(ev gateway.Event) {
	id, ok := docID(ev.Doc, "_id")
	if !ok {
		return
	}
	count, ok := docInt64(ev.Doc, "follower_count")
	if !ok {
		return
	}
	s.patchFollowerCount(id, count)
}

func (s *Session) onColleagueEvent(r *reactor, ev gateway.Event) {
	s.store.Invalidate(cache.KeyMembers)
	trigger(r.memberTrigger)

	source, hasSource := docID(ev.Doc, "source")
	target, hasTarget := docID(ev.Doc, "target")
	if !hasSource && !hasTarget {
		// Partial event (e.g. a remote delete with only the document
		// key); reload the connection list to be safe.
		trigger(r.connectionTrigger)
		return
	}
	if (hasSource && source == s.viewer) || (hasTarget && target == s.viewer) {
		trigger(r.connectionTrigger)
	}
}

func (s *Session) onRequestEvent(r *reactor, ev gateway.Event) {
	s.store.Invalidate(cache.KeyMembers)
	trigger(r.memberTrigger)

	recipient, ok := docID(ev.Doc, "recipient")
	if !ok || recipient != s.viewer {
		return
	}
	if ev.Kind == gateway.EventInsert && docString(ev.Doc, "status") == string(models.RequestStatusPending) {
		s.toasts.Push("You have a new connection request", notify.KindSuccess)
	}
	trigger(r.incomingTrigger)
}

func docID(doc bson.M, key string) (primitive.ObjectID, bool) {
	if doc == nil {
		return primitive.NilObjectID, false
	}
	id, ok := doc[key].(primitive.ObjectID)
	return id, ok
}

func docString(doc bson.M, key string) string {
	if doc == nil {
		return ""
	}
	v, _ := doc[key].(string)
	return v
}

func docInt64(doc bson.M, key string) (int64, bool) {
	if doc == nil {
		return 0, false
	}
	switch v := doc[key].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}
