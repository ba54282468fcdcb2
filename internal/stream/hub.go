package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans chat events out to local websocket subscribers and, when redis is
// configured, to subscribers on other nodes via pub/sub.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	ChatID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(chatID string) *Client {
	client := &Client{
		ChatID: chatID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[chatID] == nil {
		h.clients[chatID] = map[*Client]struct{}{}
	}
	h.clients[chatID][client] = struct{}{}
	return client
}

// Unregister tears the subscription down and closes Send. Callers must pair
// every Register with exactly one Unregister; the Send channel is unusable
// afterwards.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if chatClients, ok := h.clients[client.ChatID]; ok {
		delete(chatClients, client)
		if len(chatClients) == 0 {
			delete(h.clients, client.ChatID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a payload to every subscriber of the chat. With redis
// configured the message goes through pub/sub so all nodes, this one included,
// receive it exactly once; without redis it goes straight to local clients.
func (h *Hub) Broadcast(chatID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(chatID), payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.deliver(chatID, payload)
}

func (h *Hub) deliver(chatID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[chatID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "chat:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(chatIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(chatID string) string {
	return "chat:" + chatID + ":broadcast"
}

func chatIDFromChannel(ch string) string {
	// chat:{id}:broadcast
	const prefix = "chat:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
