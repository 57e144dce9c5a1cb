package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // devnet
	},
}

type WSEventType string

const (
	EventConnected      WSEventType = "connected"
	EventLedgerStatus   WSEventType = "ledger_status"
	EventNewTransaction WSEventType = "new_transaction"
	EventSubscribed     WSEventType = "subscribed"
	EventError          WSEventType = "error"
)

type WSMessage struct {
	Event WSEventType `json:"event"`
	Data  interface{} `json:"data"`
}

// WSRequest is what clients may send: {"subscribe": "0x.."} narrows the
// transaction stream to one address, an empty value widens it again
type WSRequest struct {
	Subscribe *string `json:"subscribe"`
}

// StatusProvider provides the ledger status sent to new clients
type StatusProvider func() interface{}

type txEvent struct {
	data    []byte
	touches map[prt.Address]struct{}
}

// WSHub fans executed transactions out to connected clients
type WSHub struct {
	clients    map[*WSClient]struct{}
	broadcast  chan txEvent
	register   chan *WSClient
	unregister chan *WSClient
	done       chan struct{}
	stopOnce   sync.Once

	mu             sync.RWMutex
	statusProvider StatusProvider
}

type WSClient struct {
	hub    *WSHub
	conn   *websocket.Conn
	send   chan []byte
	closed chan struct{} // closed by the hub when the client is dropped

	mu     sync.RWMutex
	filter *prt.Address
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]struct{}),
		broadcast:  make(chan txEvent, sendBuffer),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		done:       make(chan struct{}),
	}
}

func (h *WSHub) SetStatusProvider(provider StatusProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statusProvider = provider
}

func (h *WSHub) statusMessage() []byte {
	h.mu.RLock()
	provider := h.statusProvider
	h.mu.RUnlock()

	if provider == nil {
		return nil
	}
	return encode(EventLedgerStatus, provider())
}

// Run serves registrations and broadcasts until Stop
func (h *WSHub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("websocket client connected, total=", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.dropLocked(c)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logger.Debug("websocket client disconnected, total=", n)

		case ev := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(ev.touches) {
					continue
				}
				select {
				case c.send <- ev.data:
				default:
					logger.Warn("websocket client too slow, dropping connection")
					h.dropLocked(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *WSHub) dropLocked(c *WSClient) {
	delete(h.clients, c)
	close(c.closed)
}

func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// BroadcastNewTransaction queues a transaction event. Events are dropped,
// not blocked on, when the hub is saturated.
func (h *WSHub) BroadcastNewTransaction(blk prt.TxBlock) {
	touches := map[prt.Address]struct{}{blk.Sender: {}}
	for _, bc := range blk.BalanceChanges {
		touches[bc.Owner] = struct{}{}
	}

	data := encode(EventNewTransaction, map[string]interface{}{
		"digest":         blk.Digest,
		"sender":         blk.Sender,
		"timestampMs":    blk.TimestampMs,
		"status":         blk.Status,
		"error":          blk.Error,
		"balanceChanges": blk.BalanceChanges,
	})

	select {
	case h.broadcast <- txEvent{data: data, touches: touches}:
	default:
		logger.Warn("websocket broadcast queue full, dropping tx ", blk.Digest)
	}
}

func (h *WSHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(event WSEventType, data interface{}) []byte {
	b, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		logger.Error("failed to marshal websocket message: ", err)
		return nil
	}
	return b
}

func HandleWebSocket(hub *WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade error: ", err)
			return
		}

		c := &WSClient{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), closed: make(chan struct{})}
		c.send <- encode(EventConnected, map[string]string{"message": "Connected to ABCFe devnet ledger"})
		if status := hub.statusMessage(); status != nil {
			c.send <- status
		}

		select {
		case hub.register <- c:
		case <-hub.done:
			conn.Close()
			return
		}

		go c.writePump()
		go c.readPump()
	}
}

func (c *WSClient) wants(touches map[prt.Address]struct{}) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filter == nil {
		return true
	}
	_, ok := touches[*c.filter]
	return ok
}

func (c *WSClient) reply(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) handle(req WSRequest) {
	if req.Subscribe == nil {
		return
	}

	if *req.Subscribe == "" {
		c.mu.Lock()
		c.filter = nil
		c.mu.Unlock()
		c.reply(encode(EventSubscribed, map[string]string{"address": ""}))
		return
	}

	addr, err := utils.StringToAddress(*req.Subscribe)
	if err != nil {
		c.reply(encode(EventError, map[string]string{"error": err.Error()}))
		return
	}
	c.mu.Lock()
	c.filter = &addr
	c.mu.Unlock()
	c.reply(encode(EventSubscribed, map[string]string{"address": utils.AddressToString(addr)}))
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write closed: ", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump owns the read side; it unregisters the client on exit
func (c *WSClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Error("websocket read error: ", err)
			}
			return
		}

		var req WSRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.reply(encode(EventError, map[string]string{"error": "malformed request"}))
			continue
		}
		c.handle(req)
	}
}
