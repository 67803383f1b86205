package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/logging"
)

const (
	channelPrefix  = "walks:"
	channelSuffix  = ":scene"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans rendered walk scenes out to websocket viewers. With Redis it also
// relays them to and from other companion instances.
type Hub struct {
	redis  *redis.Client
	origin string
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	last    map[string][]byte
}

type Client struct {
	WalkID string
	Send   chan []byte
}

type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		logger:  logging.OrDefault(logger),
		cancel:  cancel,
		done:    make(chan struct{}),
		clients: map[string]map[*Client]struct{}{},
		last:    map[string][]byte{},
	}

	if redisClient != nil {
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		go h.subscribeRedis(ctx, pubsub)
	} else {
		close(h.done)
	}
	return h
}

// Register adds a viewer of walkID. The latest scene, if any, is queued
// straight away.
func (h *Hub) Register(walkID string) *Client {
	client := &Client{
		WalkID: walkID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[walkID] == nil {
		h.clients[walkID] = map[*Client]struct{}{}
	}
	h.clients[walkID][client] = struct{}{}
	if payload, ok := h.last[walkID]; ok {
		client.Send <- payload
	}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if walkClients, ok := h.clients[client.WalkID]; ok {
		if _, registered := walkClients[client]; !registered {
			return
		}
		delete(walkClients, client)
		if len(walkClients) == 0 {
			delete(h.clients, client.WalkID)
		}
		close(client.Send)
	}
}

// Viewers returns how many websocket clients watch walkID.
func (h *Hub) Viewers(walkID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[walkID])
}

func (h *Hub) Broadcast(walkID string, payload []byte) {
	h.deliver(walkID, payload)

	if h.redis != nil {
		msg, err := json.Marshal(envelope{Origin: h.origin, Payload: payload})
		if err != nil {
			h.logger.Warn("encode scene envelope", "walk_id", walkID, "error", err)
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(walkID), msg).Err(); err != nil {
			h.logger.Warn("redis publish failed", "walk_id", walkID, "error", err)
		}
	}
}

// Close stops the Redis relay. Local broadcast keeps working.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

func (h *Hub) deliver(walkID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[walkID] = payload
	for client := range h.clients[walkID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, pubsub *redis.PubSub) {
	defer close(h.done)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			walkID := walkIDFromChannel(msg.Channel)
			if walkID == "" {
				continue
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("drop malformed scene message", "channel", msg.Channel, "error", err)
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.deliver(walkID, env.Payload)
		}
	}
}

func redisChannel(walkID string) string {
	return channelPrefix + walkID + channelSuffix
}

func walkIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
