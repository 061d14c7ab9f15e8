package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/broadcast"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
)

func testUser(name string) domain.User {
	return domain.User{
		ID:       "id-" + name,
		UserName: name,
		FullName: "Full " + name,
	}
}

func TestRegistry_FirstConnectReportsNewUser(t *testing.T) {
	r := NewRegistry()
	conn := &broadcast.Conn{ID: "c1"}

	delta := r.Connect(testUser("alice"), conn)

	assert.True(t, delta.IsNewUser)
	assert.Same(t, conn, r.Lookup("alice"))
	assert.True(t, r.Online("alice"))
}

func TestRegistry_ReconnectOverwritesHandleOnly(t *testing.T) {
	r := NewRegistry()
	first := &broadcast.Conn{ID: "c1"}
	second := &broadcast.Conn{ID: "c2"}

	r.Connect(testUser("alice"), first)
	delta := r.Connect(testUser("alice"), second)

	assert.False(t, delta.IsNewUser)
	assert.Equal(t, 1, r.Len())
	assert.Same(t, second, r.Lookup("alice"))
}

func TestRegistry_DisconnectIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Connect(testUser("alice"), &broadcast.Conn{ID: "c1"})

	r.Disconnect("alice")
	r.Disconnect("alice")
	r.Disconnect("never-connected")

	assert.Nil(t, r.Lookup("alice"))
	assert.False(t, r.Online("alice"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_SnapshotKeepsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Connect(testUser("alice"), &broadcast.Conn{ID: "c1"})
	r.Connect(testUser("bob"), &broadcast.Conn{ID: "c2"})
	r.Connect(testUser("carol"), &broadcast.Conn{ID: "c3"})

	// Reconnects do not change the order.
	r.Connect(testUser("alice"), &broadcast.Conn{ID: "c4"})

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "alice", snapshot[0].UserName)
	assert.Equal(t, "bob", snapshot[1].UserName)
	assert.Equal(t, "carol", snapshot[2].UserName)
	assert.Equal(t, "c4", snapshot[0].Conn.ID)
}

func TestRegistry_SnapshotAfterDisconnect(t *testing.T) {
	r := NewRegistry()
	r.Connect(testUser("alice"), &broadcast.Conn{ID: "c1"})
	r.Connect(testUser("bob"), &broadcast.Conn{ID: "c2"})

	r.Disconnect("alice")

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "bob", snapshot[0].UserName)

	// A later reconnect goes to the back of the order.
	r.Connect(testUser("alice"), &broadcast.Conn{ID: "c3"})
	snapshot = r.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "alice", snapshot[1].UserName)
}

func TestRegistry_ConcurrentDistinctUsernames(t *testing.T) {
	r := NewRegistry()
	const users = 50

	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("user-%d", i)
			delta := r.Connect(testUser(name), &broadcast.Conn{ID: name})
			assert.True(t, delta.IsNewUser)
		}()
	}
	wg.Wait()

	assert.Equal(t, users, r.Len())
	assert.Len(t, r.Snapshot(), users)
}

func TestRegistry_ConcurrentConnectDisconnectSameUsername(t *testing.T) {
	r := NewRegistry()
	user := testUser("alice")

	// Hammer the same key from many goroutines; the registry must never
	// hold more than one entry and must survive any interleaving.
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Connect(user, &broadcast.Conn{ID: fmt.Sprintf("c%d", i)})
		}()
		go func() {
			defer wg.Done()
			r.Disconnect("alice")
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 1)

	// A final disconnect always leaves the username absent.
	r.Disconnect("alice")
	assert.False(t, r.Online("alice"))
	assert.Equal(t, 0, r.Len())
}
