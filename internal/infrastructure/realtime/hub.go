package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"campusmarket/internal/chatsync"
)

// frame is the wire envelope every hub message travels in, both to browser
// clients and between in-process subscribers.
type frame struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// controlMessage is what a connected client sends to manage its channel set
// and its open conversation.
type controlMessage struct {
	Action       string `json:"action"` // "subscribe", "unsubscribe", "open-conversation", "close-conversation"
	Channel      string `json:"channel,omitempty"`
	Conversation string `json:"conversation,omitempty"`
}

// ClientSession receives conversation lifecycle commands from a connection
// and is torn down with it.
type ClientSession interface {
	OpenConversation(conversationID string)
	CloseConversation()
	Close()
}

// Client represents one WebSocket connection.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	// Session, when set, handles this viewer's sync state.
	Session ClientSession

	mu       sync.Mutex
	channels map[string]struct{}
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		channels: make(map[string]struct{}),
	}
}

func (c *Client) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

func (c *Client) setSubscribed(channel string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.channels[channel] = struct{}{}
	} else {
		delete(c.channels, channel)
	}
}

// Hub manages all active WebSocket connections and fans published frames out
// to every subscriber of a channel, browser connections and in-process
// handlers alike. It is the ephemeral broadcast transport: delivery is
// best-effort and nothing is replayed to late subscribers.
type Hub struct {
	clients    map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	// Authorize gates a client's subscribe request. Nil allows everything.
	Authorize func(ctx context.Context, userID, channel string) bool

	localMu   sync.Mutex
	localSubs map[string][]*localSubscription
	nextSubID uint64
}

type localSubscription struct {
	hub     *Hub
	id      uint64
	key     string
	handler func(payload []byte)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		localSubs:  make(map[string][]*localSubscription),
	}
}

// Start runs the hub's registration loop in a goroutine.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.Register:
				h.mutex.Lock()
				h.clients[client] = struct{}{}
				h.mutex.Unlock()
				// Every connection listens on its personal and the global
				// notification channels without an explicit subscribe.
				client.setSubscribed(chatsync.UserChannel(client.UserID), true)
				client.setSubscribed(chatsync.GlobalChannel, true)
				client.setSubscribed(chatsync.ConversationUpdatesChannel, true)
				log.Printf("Client registered: %s", client.UserID)

			case client := <-h.Unregister:
				h.mutex.Lock()
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					close(client.Send)
				}
				h.mutex.Unlock()
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Subscribe registers an in-process handler for one channel/event pair.
// Implements chatsync.Broadcaster.
func (h *Hub) Subscribe(channel, event string, handler func(payload []byte)) (chatsync.Subscription, error) {
	h.localMu.Lock()
	defer h.localMu.Unlock()

	h.nextSubID++
	sub := &localSubscription{
		hub:     h,
		id:      h.nextSubID,
		key:     channel + "/" + event,
		handler: handler,
	}
	h.localSubs[sub.key] = append(h.localSubs[sub.key], sub)
	return sub, nil
}

func (s *localSubscription) Unsubscribe() {
	h := s.hub
	h.localMu.Lock()
	defer h.localMu.Unlock()

	subs := h.localSubs[s.key]
	for i, candidate := range subs {
		if candidate.id == s.id {
			h.localSubs[s.key] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish fans a frame out to every subscriber of the channel. Implements
// chatsync.Broadcaster. A client whose send buffer is full is dropped rather
// than allowed to stall everyone else.
func (h *Hub) Publish(channel, event string, payload []byte) error {
	raw, err := json.Marshal(frame{
		Channel: channel,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return err
	}

	h.localMu.Lock()
	handlers := make([]func([]byte), 0, len(h.localSubs[channel+"/"+event]))
	for _, sub := range h.localSubs[channel+"/"+event] {
		handlers = append(handlers, sub.handler)
	}
	h.localMu.Unlock()
	for _, handler := range handlers {
		handler(payload)
	}

	var stalled []*Client
	h.mutex.RLock()
	for client := range h.clients {
		if !client.subscribed(channel) {
			continue
		}
		select {
		case client.Send <- raw:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range stalled {
		h.mutex.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			close(client.Send)
		}
		h.mutex.Unlock()
		log.Printf("Client dropped (send buffer full): %s", client.UserID)
	}
	return nil
}

// SendToUser pushes a frame onto one user's personal channel.
func (h *Hub) SendToUser(userID, event string, payload []byte) error {
	return h.Publish(chatsync.UserChannel(userID), event, payload)
}

// Enqueue queues a frame for this connection only, bypassing channel fanout.
// Best-effort: a full send buffer drops the frame rather than blocking.
func (c *Client) Enqueue(channel, event string, payload []byte) {
	raw, err := json.Marshal(frame{
		Channel: channel,
		Event:   event,
		Payload: payload,
	})
	if err != nil {
		return
	}
	select {
	case c.Send <- raw:
	default:
		log.Printf("Dropping direct frame for %s (send buffer full)", c.UserID)
	}
}

// ReadPump reads control messages from the connection until it closes.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		if c.Session != nil {
			c.Session.Close()
		}
		h.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		var control controlMessage
		if err := json.Unmarshal(raw, &control); err != nil {
			log.Printf("Ignoring malformed control message from %s", c.UserID)
			continue
		}

		switch control.Action {
		case "subscribe":
			if h.Authorize != nil && !h.Authorize(context.Background(), c.UserID, control.Channel) {
				log.Printf("Denied subscribe to %s for %s", control.Channel, c.UserID)
				continue
			}
			c.setSubscribed(control.Channel, true)
		case "unsubscribe":
			c.setSubscribed(control.Channel, false)
		case "open-conversation":
			if c.Session == nil || control.Conversation == "" {
				continue
			}
			if h.Authorize != nil && !h.Authorize(context.Background(), c.UserID, chatsync.RoomChannel(control.Conversation)) {
				log.Printf("Denied conversation %s for %s", control.Conversation, c.UserID)
				continue
			}
			c.Session.OpenConversation(control.Conversation)
		case "close-conversation":
			if c.Session != nil {
				c.Session.CloseConversation()
			}
		default:
			log.Printf("Unknown control action %q from %s", control.Action, c.UserID)
		}
	}
}

// WritePump sends queued frames to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("websocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
