package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stasis-flow/stasis/pkg/channels/gochannel"
	"github.com/stasis-flow/stasis/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return NewWatermillEventBus(pub, sub)
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := newTestBus(t)
	defer func() {
		_ = bus.Close()
	}()

	received := make(chan *events.DelayScheduled, 1)

	err := bus.Handle(events.DelayScheduledEvent, func(ctx context.Context, event any) error {
		scheduled, ok := event.(*events.DelayScheduled)
		require.True(t, ok)
		received <- scheduled

		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Subscribe(ctx))

	resumeAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	event := events.DelayScheduled{
		BaseEvent:   events.NewBaseEvent(events.DelayScheduledEvent, "wf-1"),
		ExecutionID: "exec-1",
		NodeID:      "wait-1",
		TimerID:     "timer-1",
		ResumeAt:    resumeAt,
	}

	require.NoError(t, bus.Publish(ctx, "wf-1", event))

	select {
	case got := <-received:
		assert.Equal(t, "exec-1", got.ExecutionID)
		assert.Equal(t, "wait-1", got.NodeID)
		assert.True(t, got.ResumeAt.Equal(resumeAt))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestWatermillEventBus_UnhandledEventIsAcked(t *testing.T) {
	bus := newTestBus(t)
	defer func() {
		_ = bus.Close()
	}()

	ctx := context.Background()
	require.NoError(t, bus.Subscribe(ctx))

	event := events.WorkflowTriggered{
		BaseEvent: events.NewBaseEvent(events.WorkflowTriggeredEvent, "wf-1"),
	}

	// No handler registered: publish must still succeed and not block.
	require.NoError(t, bus.Publish(ctx, "wf-1", event))
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)
	defer func() {
		_ = bus.Close()
	}()

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
