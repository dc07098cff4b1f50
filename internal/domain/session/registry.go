package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/isooko/gateway/internal/infrastructure/logging"
)

// Registry tracks which client identifiers currently hold a live
// connection. It is the only state shared across sessions; everything
// else is scoped to a single connection's goroutine.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Register inserts a session under its client identifier. A session
// already registered under the same identifier is closed and replaced;
// its goroutine observes the closed transport and tears itself down.
func (r *Registry) Register(sess *Session) {
	r.mu.Lock()
	prev := r.sessions[sess.ClientID]
	r.sessions[sess.ClientID] = sess
	r.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
		r.logger.Warn("replaced existing connection",
			zap.String("client_id", sess.ClientID),
			zap.String("old_conn_id", prev.ConnID.String()),
			zap.String("new_conn_id", sess.ConnID.String()))
	}
}

// Remove deletes whatever session is registered under clientID.
// Removing an absent identifier is a no-op.
func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	delete(r.sessions, clientID)
	r.mu.Unlock()
}

// Unregister deletes sess only if it is still the current session for its
// client identifier, so a replaced session's teardown never evicts its
// replacement. Reports whether an entry was removed.
func (r *Registry) Unregister(sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[sess.ClientID]
	if !ok || current != sess {
		return false
	}
	delete(r.sessions, sess.ClientID)
	return true
}

// Get returns the session registered under clientID.
func (r *Registry) Get(clientID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[clientID]
	return sess, ok
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Send writes one text message to the session registered under clientID
// and reports whether delivery was attempted. An absent identifier is a
// silent no-op. A write failure closes and evicts the session; the
// message itself still counts as attempted.
func (r *Registry) Send(clientID, text string) bool {
	r.mu.RLock()
	sess := r.sessions[clientID]
	r.mu.RUnlock()

	if sess == nil {
		return false
	}

	if err := sess.SendText(text); err != nil {
		r.logger.Warn("write failed, evicting session",
			zap.String("client_id", clientID),
			zap.String("conn_id", sess.ConnID.String()),
			zap.Error(err))
		r.Unregister(sess)
		_ = sess.Close()
	}
	return true
}

// CloseAll closes every registered connection and empties the registry.
// Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		_ = sess.Close()
	}
}
