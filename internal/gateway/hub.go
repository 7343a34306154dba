package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"

	"github.com/gorilla/websocket"
)

// Envelope is the frame pushed to dashboard clients.
type Envelope struct {
	Type    string          `json:"type"`
	Symbol  string          `json:"symbol,omitempty"`
	Data    json.RawMessage `json:"data"`
	TS      time.Time       `json:"ts"`
	Initial bool            `json:"initial,omitempty"`
}

const (
	TypeEntry = "entry"
	TypeNews  = "news"
)

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
}

// Hub fans board updates out to websocket clients and keeps the latest
// frame per symbol so new clients start with a full board.
type Hub struct {
	Metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry
	order   []string
	news    *latestEntry
}

// NewHub creates an empty hub.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		Metrics: m,
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
	}
}

// PublishEntry caches entry as the latest frame for its symbol and broadcasts it.
func (h *Hub) PublishEntry(entry model.BoardEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[ERROR] marshal board entry %s: %v", entry.Instrument.Symbol, err)
		return
	}
	now := time.Now()
	symbol := entry.Instrument.Symbol

	h.mu.Lock()
	if _, ok := h.latest[symbol]; !ok {
		h.order = append(h.order, symbol)
	}
	h.latest[symbol] = latestEntry{Data: data, TS: now}
	h.mu.Unlock()

	h.broadcast(Envelope{Type: TypeEntry, Symbol: symbol, Data: data, TS: now})
}

// PublishNews caches the headline list and broadcasts it.
func (h *Hub) PublishNews(items []model.NewsItem) {
	data, err := json.Marshal(items)
	if err != nil {
		log.Printf("[ERROR] marshal news: %v", err)
		return
	}
	now := time.Now()

	h.mu.Lock()
	h.news = &latestEntry{Data: data, TS: now}
	h.mu.Unlock()

	h.broadcast(Envelope{Type: TypeNews, Data: data, TS: now})
}

func (h *Hub) broadcast(env Envelope) {
	msg, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Println("[WARN] ws client send buffer full, dropping frame")
		}
	}
}

// initialFramesLocked returns the cached frames in first-seen symbol order,
// news last. h.mu must be held.
func (h *Hub) initialFramesLocked() [][]byte {
	frames := make([][]byte, 0, len(h.order)+1)
	for _, symbol := range h.order {
		e := h.latest[symbol]
		msg, _ := json.Marshal(Envelope{Type: TypeEntry, Symbol: symbol, Data: e.Data, TS: e.TS, Initial: true})
		frames = append(frames, msg)
	}
	if h.news != nil {
		msg, _ := json.Marshal(Envelope{Type: TypeNews, Data: h.news.Data, TS: h.news.TS, Initial: true})
		frames = append(frames, msg)
	}
	return frames
}

// Register attaches a websocket connection and starts its pumps.
func (h *Hub) Register(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	// The cached board is queued under the same lock that makes the client
	// visible to broadcast, so no update is lost or delivered ahead of it.
	h.mu.Lock()
	for _, f := range h.initialFramesLocked() {
		select {
		case client.send <- f:
		default:
		}
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.Metrics.SetClients(count)

	log.Printf("[INFO] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()
	h.Metrics.SetClients(count)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
