// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package websocket pushes live funds-raised updates to connected
// browsers. The hub fans events from the internal bus out to every
// client; a client that cannot keep up is dropped rather than allowed
// to stall the broadcast.
package websocket

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
)

// Message types sent over the wire.
const (
	MessageTypeFundsUpdate = "funds_update"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is a WebSocket envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub maintains the set of connected clients and broadcasts funds
// updates to them.
type Hub struct {
	bus *events.Bus

	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// lastFunds is replayed to newly connected clients so the page
	// shows the current total without waiting for the next update.
	lastFunds   *events.FundsUpdatedEvent
	lastFundsMu sync.RWMutex
}

// NewHub creates a hub wired to the event bus.
func NewHub(bus *events.Bus) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Serve runs the hub until the context is cancelled: it consumes funds
// updates from the bus and manages client membership. It satisfies the
// supervisor's service contract.
func (h *Hub) Serve(ctx context.Context) error {
	updates, err := h.bus.SubscribeFundsUpdated(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to funds updates: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return ctx.Err()

		case event, ok := <-updates:
			if !ok {
				h.closeAllClients()
				return fmt.Errorf("funds update subscription closed")
			}
			h.setLastFunds(event)
			h.broadcastToClients(Message{Type: MessageTypeFundsUpdate, Data: event})

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String names the hub in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) setLastFunds(event events.FundsUpdatedEvent) {
	h.lastFundsMu.Lock()
	defer h.lastFundsMu.Unlock()
	h.lastFunds = &event
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("WebSocket client connected")

	// Replay the current total so new viewers see it immediately.
	h.lastFundsMu.RLock()
	last := h.lastFunds
	h.lastFundsMu.RUnlock()
	if last != nil {
		select {
		case client.send <- Message{Type: MessageTypeFundsUpdate, Data: *last}:
		default:
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.WSConnections.Dec()
		logging.Info().Int("total_clients", len(h.clients)).Msg("WebSocket client disconnected")
	}
}

// broadcastToClients sends a message to all clients in ID order so
// delivery order is reproducible. Clients whose buffers are full are
// dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Msg("Dropping slow WebSocket client")
	}
}

// closeAllClients closes every connected client in ID order. Called
// during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
	logging.Info().Int("clients_closed", len(clients)).Msg("WebSocket hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
