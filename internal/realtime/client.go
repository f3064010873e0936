package realtime

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
)

// Client is one authenticated connection as seen by the hub. The principal is fixed
// at construction.
type Client struct {
	id        string
	principal authz.Principal
	send      chan Frame
	done      chan struct{}

	closeOnce   sync.Once
	closeStatus websocket.StatusCode
	closeReason string

	// rooms is guarded by the owning hub's mutex.
	rooms map[string]struct{}
}

// NewClient builds a client with a send queue of the given size.
func NewClient(principal authz.Principal, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		id:        uuid.NewString(),
		principal: principal,
		send:      make(chan Frame, buffer),
		done:      make(chan struct{}),
		rooms:     make(map[string]struct{}),
	}
}

// ID returns the opaque connection id.
func (c *Client) ID() string { return c.id }

// Principal returns the authenticated identity.
func (c *Client) Principal() authz.Principal { return c.principal }

// Send exposes queued frames in emission order.
func (c *Client) Send() <-chan Frame { return c.send }

// Done is closed once the hub has dropped the client.
func (c *Client) Done() <-chan struct{} { return c.done }

// CloseStatus reports why the hub dropped the client. Only meaningful after Done.
func (c *Client) CloseStatus() (websocket.StatusCode, string) {
	return c.closeStatus, c.closeReason
}

func (c *Client) enqueue(f Frame) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.closeStatus = status
		c.closeReason = reason
		close(c.done)
	})
}
