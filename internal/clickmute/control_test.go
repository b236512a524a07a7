// ABOUTME: Tests for the config control channel
// ABOUTME: Checks validation and newest-wins replacement
package clickmute

import (
	"sync"
	"testing"

	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlEmpty(t *testing.T) {
	c := NewControl(testRate)
	_, ok := c.TryReceive()
	assert.False(t, ok)
}

func TestControlNewestWins(t *testing.T) {
	c := NewControl(testRate)

	first := config.Default()
	second := config.Default()
	second.Delays.MuteDuration = 0.2

	require.NoError(t, c.Send(first))
	require.NoError(t, c.Send(second))

	msg, ok := c.TryReceive()
	require.True(t, ok)
	assert.Equal(t, second, msg.Config)

	_, ok = c.TryReceive()
	assert.False(t, ok)
}

func TestControlRejectsInvalid(t *testing.T) {
	c := NewControl(testRate)
	bad := config.Default()
	bad.Delays.Fade = 0

	assert.ErrorIs(t, c.Send(bad), config.ErrFadeTooShort)
	_, ok := c.TryReceive()
	assert.False(t, ok)
}

func TestControlConcurrentSenders(t *testing.T) {
	c := NewControl(testRate)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NoError(t, c.Send(config.Default()))
			}
		}()
	}
	wg.Wait()

	_, ok := c.TryReceive()
	assert.True(t, ok)
	_, ok = c.TryReceive()
	assert.False(t, ok)
}
