package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coindxter/class-music/internal/models"
)

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	first := hub.Subscribe()
	second := hub.Subscribe()

	hub.Publish(models.StartEvent(3))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, models.EventDownloadStart, (<-first).Name)
	assert.Equal(t, 3, (<-second).Total)
}

func TestHubPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub()
	hub.Publish(models.StartEvent(1))
}

func TestHubSlowSubscriberMissesEvents(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()

	// more events than the subscriber buffer holds; the overflow is
	// dropped instead of stalling the publisher
	for i := 0; i < 32; i++ {
		hub.Publish(models.ProgressTick(i+1, 32, "Song"))
	}

	assert.Len(t, ch, cap(ch))
	got := <-ch
	assert.Equal(t, 1, got.Current)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// publishing after unsubscribe must not panic on the closed channel
	hub.Publish(models.StartEvent(1))
}
