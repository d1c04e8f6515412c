package reconciler

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/talentgrid/connect/src/cache"
	"github.com/talentgrid/connect/src/gateway"
	"github.com/talentgrid/connect/src/notify"
)

// Manager hands out one session per viewer. A new session paints from the
// local cache, starts its reactor and kicks an initial live pass in the
// background so the first response is never blocked on the network.
type Manager struct {
	gw          gateway.Gateway
	store       *cache.Store
	log         *zap.SugaredLogger
	toastTTL    time.Duration
	settleDelay time.Duration

	mu       sync.Mutex
	sessions map[primitive.ObjectID]*Session
}

func NewManager(gw gateway.Gateway, store *cache.Store, toastTTL, settleDelay time.Duration, log *zap.SugaredLogger) *Manager {
	return &Manager{
		gw:          gw,
		store:       store,
		log:         log,
		toastTTL:    toastTTL,
		settleDelay: settleDelay,
		sessions:    make(map[primitive.ObjectID]*Session),
	}
}

// Session returns the viewer's session, creating and starting one on
// first use.
func (m *Manager) Session(ctx context.Context, viewer primitive.ObjectID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[viewer]; ok {
		return s, nil
	}

	s := NewSession(viewer, m.gw, m.store, notify.NewDispatcher(m.toastTTL), m.settleDelay, m.log)
	s.PaintFromCache()
	if err := s.StartReactor(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	go s.Refresh(context.Background())

	m.sessions[viewer] = s
	return s, nil
}

// Release tears down the viewer's session and its subscriptions.
func (m *Manager) Release(viewer primitive.ObjectID) {
	m.mu.Lock()
	s, ok := m.sessions[viewer]
	delete(m.sessions, viewer)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll releases every session; used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[primitive.ObjectID]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
