package system

import (
	"context"
	"time"

	"github.com/chronicle-rp/server/internal/hooks"
	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"github.com/chronicle-rp/server/internal/persist"
	"github.com/chronicle-rp/server/internal/world"
	"go.uber.org/zap"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *netio.Server
	registry   *packet.Registry
	store      *netio.SessionStore
	maxPerTick int
	worldState *world.State
	playerRepo *persist.PlayerRepo
	bus        *hooks.Bus
	log        *zap.Logger

	// connectedAt tracks session start times for play time accounting.
	connectedAt map[uint64]time.Time
}

func NewInputSystem(
	netServer *netio.Server,
	registry *packet.Registry,
	store *netio.SessionStore,
	maxPerTick int,
	worldState *world.State,
	playerRepo *persist.PlayerRepo,
	bus *hooks.Bus,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:   netServer,
		registry:    registry,
		store:       store,
		maxPerTick:  maxPerTick,
		worldState:  worldState,
		playerRepo:  playerRepo,
		bus:         bus,
		log:         log,
		connectedAt: make(map[uint64]time.Time),
	}
}

func (s *InputSystem) Phase() Phase { return PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
			s.connectedAt[sess.ID] = time.Now()
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
			delete(s.connectedAt, id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets from each session (up to maxPerTick per session)
	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			// Drain remaining packets before cleanup so writes sent just
			// before disconnect still apply.
			for i := 0; i < s.maxPerTick; i++ {
				select {
				case data := <-sess.InQueue:
					if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
						s.log.Debug("packet dispatch error (closing)",
							zap.Uint64("session", sess.ID),
							zap.Error(err),
						)
					}
				default:
					goto doneClosing
				}
			}
		doneClosing:
			sess.FlushOutput()
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}

	drain:
		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Debug("packet dispatch error",
						zap.Uint64("session", sess.ID),
						zap.Error(err),
					)
				}
			default:
				break drain
			}
		}
	}
}

// handleDisconnect detaches the session's character, fires the disconnect
// hook, and accumulates play time. Loaded characters stay cached for a fast
// reconnect.
func (s *InputSystem) handleDisconnect(sess *netio.Session) {
	if sess.CharID != 0 {
		if c := s.worldState.Character(sess.CharID); c != nil {
			s.bus.Notify(hooks.OnCharacterDisconnect, c)
			c.Session = nil
		}
	}
	s.worldState.RemoveSession(sess)

	if sess.AccountID != "" {
		if start, ok := s.connectedAt[sess.ID]; ok {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.playerRepo.AddPlayTime(ctx, sess.AccountID, time.Since(start)); err != nil {
				s.log.Error("add play time",
					zap.String("owner", sess.AccountID), zap.Error(err))
			}
			cancel()
		}
	}
	delete(s.connectedAt, sess.ID)
}
