package system

import (
	"time"

	"github.com/chronicle-rp/server/internal/netio"
)

// OutputSystem flushes each session's buffered packets into its write queue.
// Phase 2 (Output).
type OutputSystem struct {
	store *netio.SessionStore
}

func NewOutputSystem(store *netio.SessionStore) *OutputSystem {
	return &OutputSystem{store: store}
}

func (s *OutputSystem) Phase() Phase { return PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	for _, sess := range s.store.Raw() {
		sess.FlushOutput()
	}
}
