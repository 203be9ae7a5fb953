// Package monitor streams the monitor taps of a machine to websocket
// clients, for example an oscilloscope display.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pipelined.dev/basicdsp/log"
	"pipelined.dev/basicdsp/ringbuf"
)

const (
	// BlockSize is the number of pairs sent in one message.
	BlockSize = 256
	// DefaultInterval is how often the taps are drained.
	DefaultInterval = 20 * time.Millisecond

	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Block is one message sent to clients. S1 and S2 are the two monitored
// variables of the pair.
type Block struct {
	Pair int       `json:"pair"`
	S1   []float32 `json:"s1"`
	S2   []float32 `json:"s2"`
}

// Server drains the taps and broadcasts their blocks. It implements
// http.Handler, every request is upgraded to a websocket.
type Server struct {
	taps     []*ringbuf.Buffer
	interval time.Duration
	log      log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

// Option provides a way to set functional parameters to server.
type Option func(s *Server)

// WithInterval sets how often the taps are drained.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		s.interval = d
	}
}

// WithLogger sets logger to server.
func WithLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// New returns a server for the taps. Tap i is sent as pair i.
func New(taps []*ringbuf.Buffer, options ...Option) *Server {
	s := &Server{
		taps:     taps,
		interval: DefaultInterval,
		log:      log.Silent(),
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16384,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Run drains the taps until the context is done. Then all clients are
// disconnected and Run returns once their writers exited.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	pairs := make([]ringbuf.Pair, BlockSize)
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			for i, tap := range s.taps {
				for tap.Len() >= BlockSize {
					tap.Read(pairs)
					s.broadcast(i, pairs)
				}
			}
		}
	}
}

func (s *Server) broadcast(pair int, pairs []ringbuf.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	b := Block{
		Pair: pair,
		S1:   make([]float32, len(pairs)),
		S2:   make([]float32, len(pairs)),
	}
	for i, p := range pairs {
		b.S1[i], b.S2[i] = p.S1, p.S2
	}
	msg, err := json.Marshal(b)
	if err != nil {
		s.log.Info("monitor: marshal block: ", err)
		return
	}
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// slow client misses the block
		}
	}
}

func (s *Server) shutdown() {
	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// ServeHTTP upgrades the connection and serves it until the client
// disconnects or the server is shut down.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Info("monitor: upgrade: ", err)
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()
	s.log.Debug("monitor: connected ", conn.RemoteAddr())

	go func() {
		defer s.wg.Done()
		c.write()
	}()
	c.read()
	s.unregister(c)
	s.log.Debug("monitor: disconnected ", conn.RemoteAddr())
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// read discards incoming messages until the connection fails.
func (c *client) read() {
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write sends blocks until the send channel is closed.
func (c *client) write() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
