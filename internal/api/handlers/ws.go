package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/store"
	"github.com/wonny/quantafolio/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 45 * time.Second
	wsBuffer     = 16
)

// MessageTypeResult tags a pushed optimization result
const MessageTypeResult = "result"

// ResultMessage is what subscribers receive
type ResultMessage struct {
	Type   string                                 `json:"type"`
	Result *contracts.CanonicalOptimizationResult `json:"result"`
}

type wsClient struct {
	conn *websocket.Conn
	out  chan ResultMessage
	done chan struct{}
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// ResultHub pushes the latest result to websocket subscribers on connect and after each save
// ⭐ SSOT: 결과 브리지 실시간 전파는 이 허브에서만
type ResultHub struct {
	results  *store.ResultStore
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	cancel  func()
}

// NewResultHub subscribes to results and starts accepting clients
func NewResultHub(results *store.ResultStore, log *logger.Logger) *ResultHub {
	h := &ResultHub{
		results: results,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  log.WithComponent("result_hub"),
		clients: make(map[*wsClient]struct{}),
	}
	h.cancel = results.Subscribe(h.broadcast)
	return h
}

// Clients returns the number of connected subscribers
func (h *ResultHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unsubscribes from the store and disconnects every client
func (h *ResultHub) Close() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

// broadcast drops the message for clients whose buffer is full
func (h *ResultHub) broadcast(result *contracts.CanonicalOptimizationResult) {
	msg := ResultMessage{Type: MessageTypeResult, Result: result}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- msg:
		default:
			h.logger.Warn("Subscriber too slow, result dropped")
		}
	}
}

// ServeWS upgrades the connection and streams results
// GET /ws/results
func (h *ResultHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := &wsClient{
		conn: conn,
		out:  make(chan ResultMessage, wsBuffer),
		done: make(chan struct{}),
	}

	if latest, ok := h.results.Load(r.Context()); ok {
		c.out <- ResultMessage{Type: MessageTypeResult, Result: latest}
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.close()
	}()

	go h.writeLoop(c)

	// reader: only pongs and close frames matter
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ResultHub) writeLoop(c *wsClient) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.conn.Close()
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			c.conn.Close()
			return
		}
	}
}
