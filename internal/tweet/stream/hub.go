// Package stream fans created tweets out to connected websocket clients.
package stream

import (
	"context"
	"encoding/json"

	"github.com/featherline/backend/internal/common/logger"
	"github.com/featherline/backend/internal/observability/metrics"
	"github.com/featherline/backend/internal/tweet/domain"
)

type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan domain.AnnotatedTweet
	done       chan struct{}
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan domain.AnnotatedTweet, 16),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Register hands the client to the run loop. A client arriving after
// shutdown is closed instead of blocking its goroutine.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish never blocks the request path; if the hub is saturated the event
// is dropped.
func (h *Hub) Publish(tweet domain.AnnotatedTweet) {
	select {
	case h.broadcast <- tweet:
	default:
		h.log.Warnf("stream broadcast queue full, dropping tweet %d", tweet.ID)
	}
}

// Run owns all client state; it is the only goroutine touching h.clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			metrics.StreamConnectionsActive.Set(0)
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.StreamConnectionsActive.Inc()
			h.log.WithFields(ctx, logger.Fields{
				"user_id": client.userID,
				"action":  "stream_client_connected",
			}).Info("stream client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				metrics.StreamConnectionsActive.Dec()
				h.log.WithFields(ctx, logger.Fields{
					"user_id": client.userID,
					"action":  "stream_client_disconnected",
				}).Info("stream client disconnected")
			}

		case tweet := <-h.broadcast:
			payload, err := json.Marshal(tweet)
			if err != nil {
				h.log.Errorf("stream marshal failed: %v", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- payload:
					metrics.StreamEventsTotal.Inc()
				default:
					delete(h.clients, client)
					client.Close()
					metrics.StreamConnectionsActive.Dec()
				}
			}
		}
	}
}
