package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain packet queues
	PhaseUpdate               // 1: game logic
	PhaseOutput               // 2: flush buffered packets
	PhasePersist              // 3: autosave dirty characters
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
