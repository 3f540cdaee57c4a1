package realtime

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/pkg/metrics"
)

// Conn is a live connection the registry can push to.
type Conn interface {
	Send(v any) error
	Closed() bool
}

// Registry maps each user to at most one live connection. A newer
// registration supersedes the older one without closing it.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]Conn
	byConn map[Conn]string

	logger *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		byUser: make(map[string]Conn),
		byConn: make(map[Conn]string),
		logger: logger,
	}
}

func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	if prev, ok := r.byUser[userID]; ok && prev != conn {
		delete(r.byConn, prev)
	}
	if prevUser, ok := r.byConn[conn]; ok && prevUser != userID {
		delete(r.byUser, prevUser)
	}
	r.byUser[userID] = conn
	r.byConn[conn] = userID
	n := len(r.byUser)
	r.mu.Unlock()

	metrics.LiveConnections.Set(float64(n))
}

// Unregister drops conn's mapping if it is still the current one for its user.
// Calling it for a superseded or unknown connection does nothing.
func (r *Registry) Unregister(conn Conn) {
	r.mu.Lock()
	userID, ok := r.byConn[conn]
	if ok {
		delete(r.byConn, conn)
		if r.byUser[userID] == conn {
			delete(r.byUser, userID)
		}
	}
	n := len(r.byUser)
	r.mu.Unlock()

	metrics.LiveConnections.Set(float64(n))
}

// SendTo writes payload to the user's connection. It reports whether a write
// happened; absent or closed connections are skipped silently.
func (r *Registry) SendTo(userID string, payload any) bool {
	r.mu.RLock()
	conn, ok := r.byUser[userID]
	r.mu.RUnlock()
	if !ok || conn.Closed() {
		return false
	}
	if err := conn.Send(payload); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).WithField("user_id", userID).Debug("live push failed")
		}
		return false
	}
	return true
}

func (r *Registry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
