package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/animaparty/internal/party"
)

// Event is the payload published to session subscribers over SSE and
// websockets.
type Event struct {
	Type        string            `json:"type"`
	Round       int               `json:"round,omitempty"`
	TotalRounds int               `json:"totalRounds,omitempty"`
	Minigame    string            `json:"minigame,omitempty"`
	Result      party.RoundResult `json:"result,omitempty"`
	Score       party.Scores      `json:"score,omitempty"`
	Winner      *int              `json:"winner,omitempty"`
	Error       string            `json:"error,omitempty"`
}

const (
	EventRoundState    = "round_state"
	EventRoundResults  = "round_results"
	EventSessionEnded  = "session_ended"
	EventSessionFailed = "session_failed"
)

// Broker is an in-process pub/sub for session events, keyed by session ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the given session.
func (b *Broker) Subscribe(sessionID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[sessionID], ch)
	if len(b.subs[sessionID]) == 0 {
		delete(b.subs, sessionID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given session. It never
// blocks; slow subscribers miss events.
func (b *Broker) Publish(sessionID string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
}

func (b *Broker) subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
