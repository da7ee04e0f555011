package system

import (
	"context"
	"time"

	"github.com/chronicle-rp/server/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically saves loaded characters whose state changed
// since the last save. Phase 3 (Persist).
type PersistenceSystem struct {
	world     *world.State
	service   *world.Service
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
}

func NewPersistenceSystem(ws *world.State, service *world.Service, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		service:  service,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() Phase { return PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.save(true)
}

// SaveAll persists every loaded character immediately, ignoring dirty flags.
// Called on graceful shutdown.
func (s *PersistenceSystem) SaveAll() {
	s.save(false)
}

func (s *PersistenceSystem) save(dirtyOnly bool) {
	count := 0
	s.world.AllCharacters(func(c *world.Character) {
		if dirtyOnly && !c.Dirty {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.service.Save(ctx, c)
		cancel()
		if err != nil {
			s.log.Error("autosave character",
				zap.Int32("char", c.ID), zap.Error(err))
			return
		}
		count++
	})
	if count > 0 {
		s.log.Debug("autosave complete", zap.Int("characters", count))
	}
}
