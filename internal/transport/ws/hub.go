package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ikovic/relay/internal/metrics"
	"github.com/rs/zerolog"
)

const presencePersistTimeout = 5 * time.Second

// PresenceStore persists the coarse online flag / last-seen approximation.
// Calls are fire-and-forget; the store may be stale and is never consulted
// for delivery decisions.
type PresenceStore interface {
	MarkOnline(ctx context.Context, userID uuid.UUID)
	MarkOffline(ctx context.Context, userID uuid.UUID)
}

// Hub owns the presence directory and serializes register/unregister
// transitions. Pushing to clients happens through per-client buffered
// channels, so notifies from request goroutines never block the loop.
type Hub struct {
	directory *Directory
	store     PresenceStore
	logger    zerolog.Logger

	register   chan *Client
	unregister chan *Client
}

func NewHub(directory *Directory, logger zerolog.Logger) *Hub {
	return &Hub{
		directory:  directory,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetPresenceStore sets the persisted-flag writer (optional dependency).
func (h *Hub) SetPresenceStore(s PresenceStore) {
	h.store = s
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			first := h.directory.Register(client.userID, client)
			metrics.WSConnections.Inc()
			h.logger.Info().Stringer("user_id", client.userID).Bool("first_handle", first).Msg("ws client joined")

			if first {
				h.persistPresence(client.userID, true)
				h.broadcastPresence(client.userID, "online")
			}

		case client := <-h.unregister:
			removed, last := h.directory.Unregister(client)
			client.close()
			if !removed {
				// Connection dropped before it ever joined.
				continue
			}
			metrics.WSConnections.Dec()
			h.logger.Info().Stringer("user_id", client.userID).Bool("last_handle", last).Msg("ws client left")

			if last {
				h.persistPresence(client.userID, false)
				h.broadcastPresence(client.userID, "offline")
			}
		}
	}
}

// PushToUser delivers an event to every live handle of one user. No handle
// is a silent no-op: the ledger is the source of truth, the push is not.
func (h *Hub) PushToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("ws hub: marshal error")
		return
	}

	handles := h.directory.Resolve(userID)
	if len(handles) == 0 {
		metrics.EventsDropped.WithLabelValues(event.Type).Inc()
		return
	}

	for _, c := range handles {
		if c.deliver(data) {
			metrics.EventsPushed.WithLabelValues(event.Type).Inc()
		} else {
			metrics.EventsDropped.WithLabelValues(event.Type).Inc()
		}
	}
}

// BroadcastAll delivers an event to every connected client, optionally
// skipping one user (typically the subject of the event).
func (h *Hub) BroadcastAll(event *Event, exclude uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("ws hub: marshal error")
		return
	}

	for _, c := range h.directory.Snapshot() {
		if c.userID == exclude {
			continue
		}
		if c.deliver(data) {
			metrics.EventsPushed.WithLabelValues(event.Type).Inc()
		} else {
			metrics.EventsDropped.WithLabelValues(event.Type).Inc()
		}
	}
}

func (h *Hub) broadcastPresence(userID uuid.UUID, status string) {
	evt, err := NewEvent(EventTypePresence, PresencePayload{
		UserID:   userID,
		Status:   status,
		LastSeen: time.Now(),
	})
	if err != nil {
		return
	}
	h.BroadcastAll(evt, userID)
}

func (h *Hub) persistPresence(userID uuid.UUID, online bool) {
	if h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), presencePersistTimeout)
		defer cancel()
		if online {
			h.store.MarkOnline(ctx, userID)
		} else {
			h.store.MarkOffline(ctx, userID)
		}
	}()
}
