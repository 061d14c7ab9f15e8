package broadcast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/metrics"
)

const (
	writeDeadline     = 5 * time.Second
	pingInterval      = 30 * time.Second
	pongDeadline      = 60 * time.Second
	messageBufferSize = 32
)

// Conn wraps one WebSocket connection with its dedicated write goroutine.
// It is the opaque connection handle held by the presence registry.
type Conn struct {
	ID string

	connection  *websocket.Conn
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewConn starts the write loop for the given socket.
func NewConn(connection *websocket.Conn, clock clockwork.Clock) *Conn {
	c := &Conn{
		ID:          uuid.NewString(),
		connection:  connection,
		clock:       clock,
		sendChannel: make(chan []byte, messageBufferSize),
		doneChannel: make(chan struct{}),
	}
	c.configurePongHandler()
	c.wg.Add(1)
	go c.run()
	return c
}

// Enqueue hands payload to the write loop without blocking. It reports false
// when the connection is closed or its buffer is full; the caller treats that
// as a dropped delivery.
func (c *Conn) Enqueue(payload []byte) bool {
	select {
	case <-c.doneChannel:
		return false
	default:
	}

	select {
	case c.sendChannel <- payload:
		return true
	default:
		return false
	}
}

// Stop terminates the write loop and closes the socket. Safe to call more
// than once.
func (c *Conn) Stop() {
	c.stopOnce.Do(func() {
		close(c.doneChannel)
		_ = c.connection.Close()
	})
	c.wg.Wait()
}

// StopGraceful sends a close frame with reason before closing.
func (c *Conn) StopGraceful(reason string) {
	c.stopOnce.Do(func() {
		close(c.doneChannel)
		c.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		c.updateWriteDeadline()
		_ = c.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = c.connection.Close()
	})
}

func (c *Conn) run() {
	ticker := c.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.wg.Done()

	for {
		select {
		case msg, ok := <-c.sendChannel:
			if !ok {
				return
			}
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.Chan():
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.doneChannel:
			return
		}
	}
}

func (c *Conn) configurePongHandler() {
	c.updateReadDeadline()
	c.connection.SetPongHandler(func(string) error {
		c.updateReadDeadline()
		return nil
	})
}

func (c *Conn) updateWriteDeadline() {
	deadline := c.clock.Now().Add(writeDeadline)
	_ = c.connection.SetWriteDeadline(deadline)
}

func (c *Conn) updateReadDeadline() {
	deadline := c.clock.Now().Add(pongDeadline)
	_ = c.connection.SetReadDeadline(deadline)
}

// evict is called by the fanout when the buffer overflows.
func (c *Conn) evict() {
	metrics.SlowClientsEvicted.Inc()
	c.StopGraceful("send buffer full")
}
