package playback

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/recall-labs/immersive/pkg/Logger"
)

// socketWriter is the slice of *websocket.Conn the channel needs. Narrowed so
// tests can attach fake sockets.
type socketWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

var _ socketWriter = (*websocket.Conn)(nil)

// DisplayConn is one connected display socket. Writes are serialized through
// a per-connection mutex; gorilla conns do not allow concurrent writers.
type DisplayConn struct {
	ID          uuid.UUID
	ConnectedAt time.Time

	mu   sync.Mutex
	sock socketWriter
}

func NewDisplayConn(sock socketWriter) *DisplayConn {
	return &DisplayConn{
		ID:          uuid.New(),
		ConnectedAt: time.Now(),
		sock:        sock,
	}
}

func (d *DisplayConn) writeText(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sock.WriteMessage(websocket.TextMessage, data)
}

// Send writes a raw text message to this display only.
func (d *DisplayConn) Send(data []byte) error {
	return d.writeText(data)
}

// Close closes the underlying socket.
func (d *DisplayConn) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sock.Close()
}

// Channel is the registry of connected display sockets. It unicasts playback
// commands to the most recently connected socket and broadcasts raw messages
// to every socket. All registry mutation happens under one mutex; connects,
// disconnects and tool handlers race against each other across sessions.
type Channel struct {
	logger *Logger.Logger

	mu     sync.RWMutex
	conns  map[uuid.UUID]*DisplayConn
	latest *DisplayConn
}

func NewChannel(logger *Logger.Logger) *Channel {
	return &Channel{
		logger: logger,
		conns:  make(map[uuid.UUID]*DisplayConn),
	}
}

// Connect registers the connection and marks it as latest.
func (c *Channel) Connect(conn *DisplayConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns[conn.ID] = conn
	c.latest = conn
	c.logger.Infof("display connected: %s (%d active)", conn.ID, len(c.conns))
}

// Disconnect removes the connection. If it was the latest, there is no latest
// until a new display connects; commands are dropped rather than rerouted to
// an older display.
func (c *Channel) Disconnect(conn *DisplayConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(conn)
	c.logger.Infof("display disconnected: %s (%d left)", conn.ID, len(c.conns))
}

func (c *Channel) removeLocked(conn *DisplayConn) {
	delete(c.conns, conn.ID)
	if c.latest != nil && c.latest.ID == conn.ID {
		c.latest = nil
	}
}

// Latest returns the most recently connected display still registered.
func (c *Channel) Latest() (*DisplayConn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.latest != nil
}

// Count returns the number of registered displays.
func (c *Channel) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conns)
}

// SendToLatest serializes cmd and sends it to the latest display. Without a
// connected display this is a no-op: a tool call must not fail the
// conversational turn just because nobody is watching.
func (c *Channel) SendToLatest(cmd Command) error {
	c.mu.RLock()
	target := c.latest
	c.mu.RUnlock()

	if target == nil {
		c.logger.Debugf("no display connected, dropping %s", cmd.Type())
		return nil
	}

	data, err := Marshal(cmd)
	if err != nil {
		return err
	}

	if err := target.writeText(data); err != nil {
		c.logger.Warnf("send to display %s failed: %v", target.ID, err)
		c.mu.Lock()
		c.removeLocked(target)
		c.mu.Unlock()
	}
	return nil
}

// Broadcast sends a raw message to every registered display. Delivery is
// best-effort per socket; a failing socket is dropped from the registry and
// the loop carries on.
func (c *Channel) Broadcast(message []byte) {
	c.mu.RLock()
	targets := make([]*DisplayConn, 0, len(c.conns))
	for _, conn := range c.conns {
		targets = append(targets, conn)
	}
	c.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.writeText(message); err != nil {
			c.logger.Warnf("broadcast to display %s failed: %v", conn.ID, err)
			c.mu.Lock()
			c.removeLocked(conn)
			c.mu.Unlock()
		}
	}
}
