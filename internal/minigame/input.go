package minigame

import "sync"

// InputBuffer collects button presses between ticks. Presses arrive from
// network goroutines; the game loop drains them once per tick, so each
// player contributes at most one action per tick.
type InputBuffer struct {
	mu      sync.Mutex
	pending map[int]bool
	current map[int]bool
}

func NewInputBuffer() *InputBuffer {
	return &InputBuffer{
		pending: make(map[int]bool),
		current: make(map[int]bool),
	}
}

// Press queues an action for playerID.
func (b *InputBuffer) Press(playerID int) {
	b.mu.Lock()
	b.pending[playerID] = true
	b.mu.Unlock()
}

// Advance makes the presses queued since the previous call visible to
// Pressed. Call it once at the start of every tick.
func (b *InputBuffer) Advance() {
	b.mu.Lock()
	b.current, b.pending = b.pending, b.current
	clear(b.pending)
	b.mu.Unlock()
}

func (b *InputBuffer) Pressed(playerID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current[playerID]
}
