// Package bus carries messages between channels and the responder.
package bus

import (
	"context"
	"sync"

	"github.com/stellarlinkco/lostfound/internal/logger"
)

// OutboundHandler delivers a reply on one channel.
type OutboundHandler func(OutboundMessage)

// MessageBus is a pair of buffered queues. Channels push onto Inbound; the
// responder pushes onto Outbound and DispatchOutbound fans replies out to the
// handler subscribed for the message's channel.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string]OutboundHandler
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize < 0 {
		bufSize = 0
	}
	return &MessageBus{
		Inbound:     make(chan InboundMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string]OutboundHandler),
	}
}

// SubscribeOutbound registers fn for messages addressed to channel,
// replacing any earlier handler.
func (b *MessageBus) SubscribeOutbound(channel string, fn OutboundHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = fn
}

// Publish queues msg for dispatch, or gives up when ctx ends.
func (b *MessageBus) Publish(ctx context.Context, msg OutboundMessage) error {
	select {
	case b.Outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchOutbound delivers queued replies until ctx is canceled. Messages
// for a channel nobody subscribed to are dropped.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	log := logger.Named("bus")
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn, ok := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			if !ok {
				log.Warn().Str("channel", msg.Channel).Str("chat_id", msg.ChatID).Msg("no subscriber for outbound message")
				continue
			}
			fn(msg)
		}
	}
}
