package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event types pushed to the page.
const (
	// EventMessage appends a rendered fragment to the conversation.
	// Data schema: {"html": string}
	EventMessage = "message"

	// EventFill replaces the content of a loading placeholder.
	// Data schema: {"id": string, "html": string}
	EventFill = "fill"

	// EventLightbox carries the lightbox state after a transition.
	// Data schema: lightbox.Snapshot
	EventLightbox = "lightbox"

	// MaxConnections is the maximum number of concurrent SSE connections.
	MaxConnections = 1000
)

// Event is a Server-Sent Event with a named type and JSON data.
type Event struct {
	Type string
	Data interface{}
}

// connection is a single SSE connection for a session.
type connection struct {
	sessionID string
	writer    http.ResponseWriter
	flusher   http.Flusher
	done      chan struct{}
}

// Broker manages SSE connections and routes events to the correct
// sessions. One connection per session; a reconnect replaces the old
// connection.
type Broker struct {
	mu          sync.RWMutex
	connections map[string]*connection
}

// NewBroker creates a new SSE broker.
func NewBroker() *Broker {
	return &Broker{
		connections: make(map[string]*connection),
	}
}

// Handler returns the gin handler for the SSE endpoint. It registers
// the connection under the request's session ID and keeps it open
// until the client disconnects or the broker shuts down.
func (b *Broker) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		b.mu.RLock()
		current := len(b.connections)
		b.mu.RUnlock()
		if current >= MaxConnections {
			c.String(http.StatusServiceUnavailable, "service unavailable")
			return
		}

		sessionID := SessionID(c)
		if sessionID == "" {
			c.String(http.StatusUnauthorized, "session required")
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		// The server's WriteTimeout would otherwise kill this long-lived
		// connection. ResponseRecorder in tests does not support this;
		// the error is ignored there.
		rc := http.NewResponseController(c.Writer)
		_ = rc.SetWriteDeadline(time.Time{})

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.String(http.StatusInternalServerError, "streaming not supported")
			return
		}

		conn := &connection{
			sessionID: sessionID,
			writer:    c.Writer,
			flusher:   flusher,
			done:      make(chan struct{}),
		}

		b.addConnection(conn)
		defer b.removeConnection(sessionID, conn)

		_ = b.sendToConnection(conn, Event{
			Type: "connected",
			Data: map[string]string{"session": sessionID},
		})

		select {
		case <-c.Request.Context().Done():
			// Client disconnected.
		case <-conn.done:
			// Connection closed by the broker.
		}
	}
}

// SendEvent sends an event to a specific session.
// Returns an error if the session is not connected.
func (b *Broker) SendEvent(sessionID string, eventType string, data interface{}) error {
	b.mu.RLock()
	conn, ok := b.connections[sessionID]
	b.mu.RUnlock()

	if !ok {
		return fmt.Errorf("session %s not connected", sessionID)
	}

	return b.sendToConnection(conn, Event{Type: eventType, Data: data})
}

// ConnectionCount returns the number of active connections.
func (b *Broker) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}

// addConnection registers a new connection, closing any existing
// connection for the same session (reconnect or second tab).
func (b *Broker) addConnection(conn *connection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Closing the old connection races with its own removeConnection;
	// the identity check there prevents it from deleting the entry we
	// are about to install.
	if existing, ok := b.connections[conn.sessionID]; ok {
		close(existing.done)
	}

	b.connections[conn.sessionID] = conn
}

// removeConnection unregisters a connection. Only removes the map
// entry if this connection is still the registered one.
func (b *Broker) removeConnection(sessionID string, conn *connection) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.connections[sessionID]; ok && current == conn {
		delete(b.connections, sessionID)
	}
}

// sendToConnection writes one event in SSE wire format:
//
//	event: <type>
//	data: <json>
//	<blank line>
func (b *Broker) sendToConnection(conn *connection, event Event) error {
	if conn == nil || conn.writer == nil || conn.flusher == nil {
		return fmt.Errorf("connection not available")
	}

	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(conn.writer, "event: %s\ndata: %s\n\n", event.Type, jsonData); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	conn.flusher.Flush()
	return nil
}

// Shutdown closes all connections.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sessionID, conn := range b.connections {
		close(conn.done)
		delete(b.connections, sessionID)
	}

	return nil
}
