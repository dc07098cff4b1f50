package session

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/isooko/gateway/internal/shared/id"
)

// ErrNotConnected indicates the addressed client has no live session.
var ErrNotConnected = errors.New("client is not connected")

// Conn is the transport half of a session. *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session binds a client-chosen identifier to one live WebSocket
// connection. The connection ID is minted by the gateway and changes on
// every reconnect, which is what teardown uses to tell a stale session
// from its replacement.
type Session struct {
	ClientID    string
	ConnID      id.ConnID
	ConnectedAt time.Time

	conn    Conn
	writeMu sync.Mutex
}

// New wraps an accepted connection in a session.
func New(clientID string, conn Conn) *Session {
	return &Session{
		ClientID:    clientID,
		ConnID:      id.NewConnID(),
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

// SendText writes one text message to the connection. Writes are
// serialized; the underlying connection supports a single writer at a time.
func (s *Session) SendText(text string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
