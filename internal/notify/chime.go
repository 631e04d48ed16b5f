// Package notify plays the audible cue that precedes a recording.
package notify

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	toneFreq   = 880
	toneLength = 150 * time.Millisecond
)

// Chime plays an mp3 cue, or a short sine tone when no file is configured
// or the file cannot be read.
type Chime struct {
	path string

	once    sync.Once
	initErr error
}

func NewChime(path string) *Chime {
	return &Chime{path: path}
}

func (c *Chime) Play(ctx context.Context) error {
	c.once.Do(func() {
		c.initErr = speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	})
	if c.initErr != nil {
		return fmt.Errorf("speaker init: %w", c.initErr)
	}

	s, closer, err := c.source()
	if err != nil {
		log.Debug("Chime file unavailable, using tone", "path", c.path, "err", err)
		s = tone(sampleRate, toneFreq, toneLength)
	}
	if closer != nil {
		defer closer()
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

func (c *Chime) source() (beep.Streamer, func(), error) {
	if c.path == "" {
		return nil, nil, errors.New("no chime file")
	}
	f, err := os.Open(c.path)
	if err != nil {
		return nil, nil, err
	}
	s, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	closer := func() { s.Close() }
	if format.SampleRate != sampleRate {
		return beep.Resample(4, format.SampleRate, sampleRate, s), closer, nil
	}
	return s, closer, nil
}

// tone is a sine wave with a linear fade out.
func tone(sr beep.SampleRate, freq int, d time.Duration) beep.Streamer {
	total := sr.N(d)
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := min(len(samples), total-pos)
		for i := range n {
			t := float64(pos+i) / float64(sr)
			gain := 0.3 * (1 - float64(pos+i)/float64(total))
			v := gain * math.Sin(2*math.Pi*float64(freq)*t)
			samples[i] = [2]float64{v, v}
		}
		pos += n
		return n, true
	})
}
