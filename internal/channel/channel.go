// Package channel adapts chat transports to the message bus. Each
// channel turns transport updates into inbound bus messages and renders
// outbound bus messages back onto the transport.
package channel

import (
	"context"

	"github.com/kinoxada/kinobot/internal/bus"
)

type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

// BaseChannel carries the identity and bus handle shared by all
// channel implementations.
type BaseChannel struct {
	name string
	bus  *bus.MessageBus
}

func NewBaseChannel(name string, b *bus.MessageBus) BaseChannel {
	return BaseChannel{name: name, bus: b}
}

func (c *BaseChannel) Name() string {
	return c.name
}
