package handler

import (
	"github.com/chronicle-rp/server/internal/config"
	"github.com/chronicle-rp/server/internal/data"
	"github.com/chronicle-rp/server/internal/hooks"
	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"github.com/chronicle-rp/server/internal/persist"
	"github.com/chronicle-rp/server/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	PlayerRepo *persist.PlayerRepo
	CharRepo   *persist.CharacterRepo
	Config     *config.Config
	Log        *zap.Logger
	World      *world.State
	Service    *world.Service
	Hooks      *hooks.Bus
	Factions   *data.FactionTable
	Classes    *data.ClassTable
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*netio.Session), r, deps)
		},
	)

	// Character menu phase
	menuStates := []packet.SessionState{packet.StateAuthenticated}

	reg.Register(packet.C_OPCODE_CHAR_CREATE, menuStates,
		func(sess any, r *packet.Reader) {
			HandleCreateChar(sess.(*netio.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHAR_CHOOSE, menuStates,
		func(sess any, r *packet.Reader) {
			HandleChooseChar(sess.(*netio.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHAR_DELETE,
		[]packet.SessionState{packet.StateAuthenticated, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandleDeleteChar(sess.(*netio.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT,
		[]packet.SessionState{packet.StateHandshake, packet.StateAuthenticated, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			sess.(*netio.Session).Close()
		},
	)
}
