package eventbus

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	bus := NewBus()
	var received []Event
	bus.Subscribe(func(event Event) { received = append(received, event) })

	source := &struct{ name string }{"importer"}
	id := uuid.New()
	require.NoError(t, bus.Publish(BatchSaveEvent{Source: source, BatchID: id}))
	require.NoError(t, bus.Publish(BatchCleanupEvent{Source: source, BatchID: id}))

	require.Len(t, received, 2)
	assert.Equal(t, BatchSaveEvent{Source: source, BatchID: id}, received[0])
	assert.Equal(t, source, received[1].EventSource())

	bus.Close()
	assert.Equal(t, ErrShuttingDown, bus.Publish(BatchCleanupEvent{Source: source}))
	assert.Len(t, received, 2)
}
