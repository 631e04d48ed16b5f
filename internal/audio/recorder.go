package audio

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

const (
	DefaultDuration   = 5 * time.Second
	DefaultSampleRate = 44100
	DefaultFileName   = "my_recording.wav"

	bitDepth        = 16
	framesPerBuffer = 1024
)

var ErrNoAudio = errors.New("no audio recorded")

type RecorderConfig struct {
	Duration   time.Duration
	SampleRate int
}

// inputStream is the subset of *portaudio.Stream used for capture.
type inputStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

type openFunc func(sampleRate float64, buf []int16) (inputStream, error)

func openDefault(sampleRate float64, buf []int16) (inputStream, error) {
	return portaudio.OpenDefaultStream(1, 0, sampleRate, len(buf), buf)
}

// Recorder captures fixed-length mono 16-bit clips from the default input
// device.
type Recorder struct {
	cfg  RecorderConfig
	open openFunc
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	return &Recorder{cfg: cfg, open: openDefault}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one clip and writes it to path, replacing any previous
// file. The stream and the file are released on every return path.
func (r *Recorder) Record(ctx context.Context, path string) error {
	samples, err := r.capture(ctx)
	if err != nil {
		return err
	}
	if err := writeWAV(path, r.cfg.SampleRate, samples); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info("Recording saved", "path", path, "samples", len(samples))
	return nil
}

func (r *Recorder) capture(ctx context.Context) ([]int, error) {
	buf := make([]int16, framesPerBuffer)
	stream, err := r.open(float64(r.cfg.SampleRate), buf)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	total := int(r.cfg.Duration.Seconds() * float64(r.cfg.SampleRate))
	out := make([]int, 0, total)

	log.Info("Recording...", "duration", r.cfg.Duration)
	for len(out) < total {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}
		n := min(len(buf), total-len(out))
		for _, s := range buf[:n] {
			out = append(out, int(s))
		}
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

func writeWAV(path string, sampleRate int, samples []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
