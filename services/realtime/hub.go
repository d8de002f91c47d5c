package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/rizalgs/adimology/services/stockbit"
	"github.com/gorilla/websocket"
)

const (
	MaxClients    = 100
	writeTimeout  = 10 * time.Second
	pongTimeout   = 60 * time.Second
	pingInterval  = 30 * time.Second
	pollInterval  = 10 * time.Second
	maxPollErrors = 5
)

// QuoteUpdate is one order book snapshot pushed to dashboard clients
type QuoteUpdate struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"last_price"`
	PreviousClose float64 `json:"previous_close"`
	ARA           float64 `json:"ara"`
	ARB           float64 `json:"arb"`
	TotalBidLot   float64 `json:"total_bid_lot"`
	TotalOfferLot float64 `json:"total_offer_lot"`
	Timestamp     string  `json:"timestamp"`
}

// Message wraps a broadcast payload
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// client is one connected websocket consumer
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub streams live quote updates for watched symbols over websockets. It
// polls the Stockbit order book on an interval and fans the snapshots out to
// all connected clients.
type Hub struct {
	stockbit   *stockbit.Client
	clients    map[*client]bool
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader

	symbolsMu sync.RWMutex
	symbols   []string
}

// NewHub creates a quote hub
func NewHub(sb *stockbit.Client) *Hub {
	return &Hub{
		stockbit:   sb,
		clients:    make(map[*client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetSymbols replaces the set of symbols the hub polls
func (h *Hub) SetSymbols(symbols []string) {
	h.symbolsMu.Lock()
	h.symbols = symbols
	h.symbolsMu.Unlock()
}

// Start runs the hub and the quote poller until Shutdown is called
func (h *Hub) Start() {
	go h.run()
	go h.poll()
	log.Println("Realtime quote hub started")
}

// Shutdown closes all client connections and stops the hub
func (h *Hub) Shutdown() {
	close(h.shutdown)

	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
	}
	h.clients = make(map[*client]bool)
	h.mu.Unlock()

	log.Println("Realtime quote hub shut down")
}

// run dispatches register/unregister/broadcast events
func (h *Hub) run() {
	for {
		select {
		case <-h.shutdown:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Quote client connected. Total clients: %d", count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Quote client disconnected. Total clients: %d", count)

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("Error marshaling quote message: %v", err)
				continue
			}

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Client buffer full, drop it
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// poll fetches order books for the watched symbols and broadcasts them
func (h *Hub) poll() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	errCount := 0
	for {
		select {
		case <-h.shutdown:
			return
		case <-ticker.C:
			h.mu.RLock()
			hasClients := len(h.clients) > 0
			h.mu.RUnlock()
			if !hasClients {
				continue
			}

			h.symbolsMu.RLock()
			symbols := append([]string(nil), h.symbols...)
			h.symbolsMu.RUnlock()

			for _, symbol := range symbols {
				ctx, cancel := context.WithTimeout(context.Background(), pollInterval)
				orderbook, err := h.stockbit.Orderbook(ctx, symbol)
				cancel()
				if err != nil {
					errCount++
					if errCount <= maxPollErrors {
						log.Printf("Quote poll for %s failed: %v", symbol, err)
					}
					continue
				}
				errCount = 0

				h.broadcast <- Message{
					Type: "quote",
					Data: QuoteUpdate{
						Symbol:        symbol,
						LastPrice:     orderbook.LastPrice,
						PreviousClose: orderbook.PreviousClose,
						ARA:           orderbook.ARA,
						ARB:           orderbook.ARB,
						TotalBidLot:   orderbook.TotalBidLot,
						TotalOfferLot: orderbook.TotalOfferLot,
						Timestamp:     time.Now().UTC().Format(time.RFC3339),
					},
					Time: time.Now().UTC().Format(time.RFC3339),
				}
			}
		}
	}
}

// HandleWebSocket upgrades an HTTP request to a quote stream
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	atCapacity := len(h.clients) >= MaxClients
	h.mu.RUnlock()

	if atCapacity {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

// writePump writes messages and pings to the connection
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection and unregisters on close
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
