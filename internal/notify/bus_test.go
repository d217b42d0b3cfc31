package notify_test

import (
	"testing"

	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/mtlprog/taskescrow/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(id int64, eventType domain.EventType) *domain.TaskEvent {
	return &domain.TaskEvent{ID: id, TaskID: 1, Type: eventType}
}

func TestPublishDeliversInOrder(t *testing.T) {
	bus := notify.New()
	id, ch := bus.Subscribe(4)
	defer bus.Unsubscribe(id)

	bus.Publish(
		event(1, domain.EventTypeTaskCompleted),
		event(2, domain.EventTypePaymentReleased),
	)

	first := <-ch
	second := <-ch
	assert.Equal(t, domain.EventTypeTaskCompleted, first.Type)
	assert.Equal(t, domain.EventTypePaymentReleased, second.Type)
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := notify.New()
	id1, ch1 := bus.Subscribe(1)
	id2, ch2 := bus.Subscribe(1)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.Publish(event(1, domain.EventTypeTaskCreated))

	assert.Equal(t, int64(1), (<-ch1).ID)
	assert.Equal(t, int64(1), (<-ch2).ID)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := notify.New()
	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	bus.Publish(
		event(1, domain.EventTypeTaskCreated),
		event(2, domain.EventTypeTaskAssigned),
	)

	// Buffer of one: the second event is dropped for this subscriber.
	require.Len(t, ch, 1)
	assert.Equal(t, int64(1), (<-ch).ID)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := notify.New()
	id, ch := bus.Subscribe(1)

	bus.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	bus.Publish(event(1, domain.EventTypeTaskCreated))
}
