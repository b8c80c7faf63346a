package ws

import (
	"github.com/sirupsen/logrus"
)

type subscription struct {
	client *Client
	topic  string
}

type broadcast struct {
	topic   string
	data    []byte
	exclude *Client
}

// Hub owns the connection and topic maps. A single goroutine (Run) mutates
// them; everything else talks to it over channels, so no lock is needed. The
// maps live in this process only: running more than one instance splits the
// relay, there is no shared backplane.
type Hub struct {
	logger *logrus.Logger

	clients map[*Client]bool
	topics  map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan broadcast

	stop chan struct{}
	done chan struct{}
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger:      logger,
		clients:     make(map[*Client]bool),
		topics:      make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan broadcast, 256),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (h *Hub) Register() chan<- *Client {
	return h.register
}

func (h *Hub) Unregister() chan<- *Client {
	return h.unregister
}

func (h *Hub) Subscribe(c *Client, topic string) {
	h.subscribe <- subscription{client: c, topic: topic}
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.unsubscribe <- subscription{client: c, topic: topic}
}

// Publish fans payload out to every connection subscribed to scope
// (ScopeAll, a user topic or a group topic). Best effort, at most once, no
// replay for connections that are offline at publish time.
func (h *Hub) Publish(event string, payload any, scope string) {
	h.PublishExcept(event, payload, scope, nil)
}

func (h *Hub) PublishExcept(event string, payload any, scope string, except *Client) {
	data, err := NewEvent(event, payload)
	if err != nil {
		h.logger.WithError(err).Warn("ws: dropping unencodable event")
		return
	}
	h.broadcast <- broadcast{topic: scope, data: data, exclude: except}
}

func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			for topic := range c.topics {
				h.addSub(c, topic)
			}
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}
		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			sub.client.topics[sub.topic] = true
			h.addSub(sub.client, sub.topic)
		case sub := <-h.unsubscribe:
			if !h.clients[sub.client] {
				continue
			}
			delete(sub.client.topics, sub.topic)
			h.removeSub(sub.client, sub.topic)
		case msg := <-h.broadcast:
			targets := h.clients
			if msg.topic != ScopeAll {
				targets = h.topics[msg.topic]
			}
			for c := range targets {
				if c == msg.exclude {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// slow client, cut it loose
					h.drop(c)
				}
			}
		case <-h.stop:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

// Close tears down every connection and stops the loop.
func (h *Hub) Close() {
	close(h.stop)
	<-h.done
}

func (h *Hub) addSub(c *Client, topic string) {
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][c] = true
}

func (h *Hub) removeSub(c *Client, topic string) {
	if subs := h.topics[topic]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// drop must only run on the hub goroutine.
func (h *Hub) drop(c *Client) {
	for topic := range c.topics {
		h.removeSub(c, topic)
	}
	delete(h.clients, c)
	close(c.send)
}
