// Package presence tracks which users currently hold an active connection.
//
// The registry is the only mutable state shared by all connections. It is an
// explicitly owned service injected into the coordinator, never package-level
// state, so lifecycle and test isolation stay explicit.
package presence

import (
	"sync"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/broadcast"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

// Entry is the live record that a username has an active connection.
// A reconnect overwrites Conn in place; there is never more than one entry
// per username.
type Entry struct {
	UserID       string
	UserName     string
	FullName     string
	ProfileImage string
	Conn         *broadcast.Conn
}

// Delta reports what a Connect call changed.
type Delta struct {
	// IsNewUser is true when the username had no entry before this call,
	// i.e. the user just came online.
	IsNewUser bool
}

// Registry is a thread-safe username -> Entry map preserving insertion
// order for Snapshot. Mutations are atomic per username; operations on
// different usernames do not conflict beyond the shared lock, and the final
// state under racing Connect/Disconnect is last-write-wins by completion.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string // usernames in first-connect order
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Connect inserts an entry for the user or, if one exists, overwrites only
// its connection handle (last-connection-wins).
func (r *Registry) Connect(user domain.User, conn *broadcast.Conn) Delta {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[user.UserName]; ok {
		existing.Conn = conn
		return Delta{IsNewUser: false}
	}

	r.entries[user.UserName] = &Entry{
		UserID:       user.ID,
		UserName:     user.UserName,
		FullName:     user.FullName,
		ProfileImage: user.ProfileImage,
		Conn:         conn,
	}
	r.order = append(r.order, user.UserName)
	return Delta{IsNewUser: true}
}

// Disconnect removes the entry unconditionally. Idempotent.
func (r *Registry) Disconnect(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[username]; !ok {
		return
	}
	delete(r.entries, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the connection handle for the username, or nil if offline.
func (r *Registry) Lookup(username string) *broadcast.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[username]
	if !ok {
		return nil
	}
	return entry.Conn
}

// Online reports whether the username has an active connection.
func (r *Registry) Online(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[username]
	return ok
}

// Snapshot returns the online entries in insertion order.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		if entry, ok := r.entries[name]; ok {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
