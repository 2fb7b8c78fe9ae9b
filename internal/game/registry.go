package game

import (
	"sync"

	"go.uber.org/zap"
)

// Registry is the process-wide table of room code to session. It is an
// injected object rather than a package global so tests can run independent
// registries in parallel. Create/remove is atomic per room code: two
// simultaneous first-joins to an unseen code always land in one session.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Session

	deps   SessionDeps
	logger *zap.Logger
}

func NewRegistry(deps SessionDeps) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		rooms:  make(map[string]*Session),
		deps:   deps,
		logger: logger,
	}
}

// GetOrCreate returns the session for a room code, creating a Lobby-state
// session if the code is unknown.
func (r *Registry) GetOrCreate(roomCode string) *Session {
	r.mu.RLock()
	s, ok := r.rooms[roomCode]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rooms[roomCode]; ok {
		return s
	}
	s = NewSession(roomCode, r.deps)
	r.rooms[roomCode] = s
	r.logger.Info("room created", zap.String("room", roomCode))
	return s
}

func (r *Registry) Get(roomCode string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rooms[roomCode]
	return s, ok
}

// Remove destroys a session and drops it from the table. Removing an
// unknown code is a no-op; settlement completion can race with a
// disconnect-triggered removal.
func (r *Registry) Remove(roomCode string) {
	r.mu.Lock()
	s, ok := r.rooms[roomCode]
	delete(r.rooms, roomCode)
	r.mu.Unlock()
	if ok {
		s.Destroy()
		r.logger.Info("room removed", zap.String("room", roomCode))
	}
}

// Leave routes a disconnect to the room's session and removes the room once
// the last player is gone.
func (r *Registry) Leave(roomCode, address string) {
	s, ok := r.Get(roomCode)
	if !ok {
		return
	}
	if s.Leave(address) {
		r.Remove(roomCode)
	}
}

// Count reports how many rooms are active. A read-only snapshot; callers
// tolerate slight staleness.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
