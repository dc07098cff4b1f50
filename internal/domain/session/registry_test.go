package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isooko/gateway/internal/infrastructure/logging"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   []string
	closed   bool
	writeErr error
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.closed {
		return errors.New("connection closed")
	}
	f.frames = append(f.frames, string(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) Frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

func (f *fakeConn) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestRegistry() *Registry {
	return NewRegistry(logging.NewNop())
}

func TestRegisterAndSend(t *testing.T) {
	registry := newTestRegistry()
	conn := &fakeConn{}

	registry.Register(New("client-1", conn))

	assert.True(t, registry.Send("client-1", "hello"))
	assert.Equal(t, []string{"hello"}, conn.Frames())
	assert.Equal(t, 1, registry.Count())
}

func TestSendUnknownClient(t *testing.T) {
	registry := newTestRegistry()

	assert.False(t, registry.Send("ghost", "hello"))
}

func TestRegisterReplacesExisting(t *testing.T) {
	registry := newTestRegistry()
	oldConn := &fakeConn{}
	newConn := &fakeConn{}

	oldSess := New("client-1", oldConn)
	newSess := New("client-1", newConn)

	registry.Register(oldSess)
	registry.Register(newSess)

	assert.True(t, oldConn.Closed(), "replaced connection should be closed")
	assert.False(t, newConn.Closed())
	assert.Equal(t, 1, registry.Count())

	current, ok := registry.Get("client-1")
	require.True(t, ok)
	assert.Same(t, newSess, current)

	assert.True(t, registry.Send("client-1", "after replace"))
	assert.Equal(t, []string{"after replace"}, newConn.Frames())
	assert.Empty(t, oldConn.Frames())
}

func TestUnregisterComparesIdentity(t *testing.T) {
	registry := newTestRegistry()
	oldSess := New("client-1", &fakeConn{})
	newSess := New("client-1", &fakeConn{})

	registry.Register(oldSess)
	registry.Register(newSess)

	// The replaced session's teardown must not evict its replacement.
	assert.False(t, registry.Unregister(oldSess))
	_, ok := registry.Get("client-1")
	assert.True(t, ok)

	assert.True(t, registry.Unregister(newSess))
	_, ok = registry.Get("client-1")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Count())
}

func TestSendWriteFailureEvicts(t *testing.T) {
	registry := newTestRegistry()
	conn := &fakeConn{writeErr: errors.New("broken pipe")}

	registry.Register(New("client-1", conn))

	assert.True(t, registry.Send("client-1", "doomed"), "delivery was attempted")
	assert.True(t, conn.Closed())

	_, ok := registry.Get("client-1")
	assert.False(t, ok, "failed write should evict the session")
	assert.False(t, registry.Send("client-1", "again"))
}

func TestRemoveIdempotent(t *testing.T) {
	registry := newTestRegistry()
	registry.Register(New("client-1", &fakeConn{}))

	registry.Remove("client-1")
	registry.Remove("client-1")
	registry.Remove("never-registered")

	assert.Equal(t, 0, registry.Count())
}

func TestCloseAll(t *testing.T) {
	registry := newTestRegistry()
	conns := []*fakeConn{{}, {}, {}}
	for i, conn := range conns {
		registry.Register(New(fmt.Sprintf("client-%d", i), conn))
	}
	require.Equal(t, 3, registry.Count())

	registry.CloseAll()

	assert.Equal(t, 0, registry.Count())
	for _, conn := range conns {
		assert.True(t, conn.Closed())
	}
}

func TestSessionIdentity(t *testing.T) {
	first := New("client-1", &fakeConn{})
	second := New("client-1", &fakeConn{})

	assert.True(t, strings.HasPrefix(first.ConnID.String(), "conn_"))
	assert.NotEqual(t, first.ConnID, second.ConnID)
	assert.False(t, first.ConnectedAt.IsZero())
}

func TestConcurrentSends(t *testing.T) {
	registry := newTestRegistry()
	conn := &fakeConn{}
	registry.Register(New("client-1", conn))

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				registry.Send("client-1", "msg")
			}
		}()
	}
	wg.Wait()

	assert.Len(t, conn.Frames(), writers*perWriter)
}
