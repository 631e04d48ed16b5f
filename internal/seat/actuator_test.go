package seat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rita/internal/profile"
)

type write struct {
	path  string
	value any
	at    time.Time
}

// mockBus records all writes for testing
type mockBus struct {
	mu     sync.Mutex
	writes []write
	failOn string
}

func (m *mockBus) Set(_ context.Context, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if path == m.failOn {
		return errors.New("bus down")
	}
	m.writes = append(m.writes, write{path: path, value: value, at: time.Now()})
	return nil
}

func TestActuator_AppliesInOrder(t *testing.T) {
	bus := &mockBus{}
	a := NewActuator(bus, DefaultPaths, 0)

	err := a.Apply(context.Background(), profile.Profile{Name: "Vito", Position: 520, Tilt: 30, Height: 15})
	require.NoError(t, err)

	require.Len(t, bus.writes, 3)
	assert.Equal(t, DefaultPaths[0], bus.writes[0].path)
	assert.Equal(t, 520, bus.writes[0].value)
	assert.Equal(t, DefaultPaths[1], bus.writes[1].path)
	assert.Equal(t, 30, bus.writes[1].value)
	assert.Equal(t, DefaultPaths[2], bus.writes[2].path)
	assert.Equal(t, 15, bus.writes[2].value)
}

func TestActuator_CustomPathsFallBackToDefaults(t *testing.T) {
	bus := &mockBus{}
	a := NewActuator(bus, [3]string{"Seat.Pos", "", ""}, 0)

	require.NoError(t, a.Apply(context.Background(), profile.Profile{Name: "Dario"}))

	assert.Equal(t, "Seat.Pos", bus.writes[0].path)
	assert.Equal(t, DefaultPaths[1], bus.writes[1].path)
}

func TestActuator_PacesWrites(t *testing.T) {
	bus := &mockBus{}
	pace := 20 * time.Millisecond
	a := NewActuator(bus, DefaultPaths, pace)

	require.NoError(t, a.Apply(context.Background(), profile.Profile{Name: "Mattia"}))

	require.Len(t, bus.writes, 3)
	assert.GreaterOrEqual(t, bus.writes[1].at.Sub(bus.writes[0].at), pace)
	assert.GreaterOrEqual(t, bus.writes[2].at.Sub(bus.writes[1].at), pace)
}

func TestActuator_StopsOnError(t *testing.T) {
	bus := &mockBus{failOn: DefaultPaths[1]}
	a := NewActuator(bus, DefaultPaths, 0)

	err := a.Apply(context.Background(), profile.Profile{Name: "Antonio"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tilt")
	assert.Len(t, bus.writes, 1)
}

func TestActuator_Cancelled(t *testing.T) {
	bus := &mockBus{}
	a := NewActuator(bus, DefaultPaths, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Apply(ctx, profile.Profile{Name: "Antonio"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, bus.writes, 1)
}
