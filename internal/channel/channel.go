// Package channel connects chat transports to the message bus.
package channel

import (
	"context"

	"github.com/stellarlinkco/lostfound/internal/bus"
)

// Channel is a chat transport. Start must not block; Send delivers one reply.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

// BaseChannel holds what every transport shares: its name, the bus it
// publishes to and the sender allow-list.
type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom map[string]struct{}
}

func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) BaseChannel {
	allowed := make(map[string]struct{}, len(allowFrom))
	for _, id := range allowFrom {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	return BaseChannel{name: name, bus: b, allowFrom: allowed}
}

func (c *BaseChannel) Name() string { return c.name }

// IsAllowed reports whether senderID may talk to the bot. An empty
// allow-list admits everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	_, ok := c.allowFrom[senderID]
	return ok
}

// publish hands msg to the responder, giving up when ctx ends.
func (c *BaseChannel) publish(ctx context.Context, msg bus.InboundMessage) bool {
	select {
	case c.bus.Inbound <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
