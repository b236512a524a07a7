// ABOUTME: Config update channel into the audio goroutine
// ABOUTME: Keeps at most one pending message; the newest one wins
package clickmute

import (
	"fmt"

	"github.com/Resonate-Protocol/clickmute-go/internal/config"
)

// Message carries a configuration to apply
type Message struct {
	Config config.Config
}

// Control delivers config updates without ever blocking the receiver
type Control struct {
	rate float64
	ch   chan Message
}

// NewControl creates a control channel validating against rate
func NewControl(rate float64) *Control {
	return &Control{rate: rate, ch: make(chan Message, 1)}
}

// Send validates cfg and queues it, replacing any message not yet consumed
func (c *Control) Send(cfg config.Config) error {
	if err := cfg.Validate(c.rate); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	msg := Message{Config: cfg}
	for {
		select {
		case c.ch <- msg:
			return nil
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// TryReceive returns a pending message if there is one
func (c *Control) TryReceive() (Message, bool) {
	select {
	case msg := <-c.ch:
		return msg, true
	default:
		return Message{}, false
	}
}
