package audio

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Spotify"
Sink Input #42
	Volume: mono: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "rita"
Sink Input #abc
	Volume: mono: 65536 / 100% / 0.00 dB
`

type fakePactl struct {
	mu    sync.Mutex
	list  string
	calls []string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, strings.Join(args, " "))
	if args[0] == "list" {
		return []byte(f.list), nil
	}
	return nil, nil
}

func (f *fakePactl) sets() []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, "set-sink-input-volume") {
			out = append(out, c)
		}
	}
	return out
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	assert.Equal(t, []sinkInput{
		{ID: 41, Volume: 80, AppName: "Spotify"},
		{ID: 42, Volume: 100, AppName: "rita"},
	}, got)

	assert.Empty(t, parseSinkInputs(""))
}

func TestDucker_DuckAndRestore(t *testing.T) {
	p := &fakePactl{list: sinkInputs}
	d := NewDucker([]string{"rita"}, 0.25, 10, 0)
	d.pactl = p.run
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx))
	assert.Equal(t, []string{"set-sink-input-volume 41 20%"}, p.sets())

	// second call is a no-op
	require.NoError(t, d.Duck(ctx))
	assert.Len(t, p.sets(), 1)

	p.list = strings.Replace(sinkInputs, "80%", "20%", 2)
	require.NoError(t, d.Restore(ctx))
	assert.Equal(t, "set-sink-input-volume 41 80%", p.sets()[1])

	require.NoError(t, d.Restore(ctx))
	assert.Len(t, p.sets(), 2)
}

func TestDucker_MinVolumeFloor(t *testing.T) {
	p := &fakePactl{list: sinkInputs}
	d := NewDucker([]string{"rita"}, 0.01, 30, 0)
	d.pactl = p.run

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"set-sink-input-volume 41 30%"}, p.sets())
}
