// Package realtime pushes account-scoped events to browsers over WebSockets.
// Every connection belongs to one login account and receives only the
// events addressed to it.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is one message written to a connection.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type client struct {
	account uuid.UUID
	send    chan []byte
}

// Hub tracks open connections per account.
type Hub struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]map[*client]struct{}
	buffer   int
	now      func() time.Time
	logger   zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		accounts: make(map[uuid.UUID]map[*client]struct{}),
		buffer:   32,
		now:      time.Now,
		logger:   logger,
	}
}

func (h *Hub) register(account uuid.UUID) *client {
	c := &client{account: account, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.accounts[account] == nil {
		h.accounts[account] = make(map[*client]struct{})
	}
	h.accounts[account][c] = struct{}{}
	return c
}

// unregister is idempotent; the send channel is closed exactly once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.accounts[c.account]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.accounts, c.account)
	}
	close(c.send)
}

// Push delivers an event to every open connection of account. Slow
// connections whose buffer is full miss the event.
func (h *Hub) Push(account uuid.UUID, eventType string, payload any) {
	if h.Connections(account) == 0 {
		return
	}
	evt := Event{Type: eventType, Timestamp: h.now().UTC()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error().Err(err).Str("event_type", eventType).Msg("realtime payload not serializable")
			return
		}
		evt.Data = raw
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error().Err(err).Msg("realtime event not serializable")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.accounts[account] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn().Str("account_id", account.String()).Str("event_type", eventType).Msg("realtime buffer full, event dropped")
		}
	}
}

// Connections returns the number of open connections for account.
func (h *Hub) Connections(account uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[account])
}

// Total returns the number of open connections.
func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.accounts {
		n += len(set)
	}
	return n
}
