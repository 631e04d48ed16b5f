// Package audioconv decodes audio files into the mono 16 kHz float samples
// expected by speech models.
package audioconv

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const SampleRate = 16000

var ErrUnsupported = errors.New("unsupported audio format")

type Options struct {
	MaxSamples int
}

// decoder returns interleaved samples in [-1, 1] together with the stream's
// channel count and sample rate.
type decoder func(r io.ReadSeeker) (pcm []float32, channels, rate int, err error)

var byExt = map[string]decoder{
	".wav":  decodeWAV,
	".mp3":  decodeMP3,
	".ogg":  decodeOgg,
	".oga":  decodeOgg,
	".opus": decodeOpus,
}

var byMagic = map[string]decoder{
	"RIFF":    decodeWAV,
	"OggS":    decodeOgg,
	"ID3\x03": decodeMP3,
	"ID3\x04": decodeMP3,
}

func ToMono16k(ctx context.Context, path string, opt Options) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := pick(f, path)
	if err != nil {
		return nil, err
	}

	pcm, ch, sr, err := dec(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return Normalize(pcm, ch, sr, opt), nil
}

func pick(f io.ReadSeeker, path string) (decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if dec, ok := byExt[ext]; ok {
		return dec, nil
	}

	magic, _ := bufio.NewReader(f).Peek(4)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if dec, ok := byMagic[string(magic)]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
}

// Normalize downmixes interleaved samples to mono, resamples to 16 kHz and
// applies the sample cap.
func Normalize(pcm []float32, channels, rate int, opt Options) []float32 {
	x := downmix(pcm, channels)
	x = resample(x, rate, SampleRate)
	if opt.MaxSamples > 0 && len(x) > opt.MaxSamples {
		x = x[:opt.MaxSamples]
	}
	return x
}

func downmix(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float64
		for c := range channels {
			sum += float64(in[i*channels+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// resample is linear interpolation, good enough for speech.
func resample(in []float32, from, to int) []float32 {
	if from <= 0 || from == to || len(in) == 0 {
		return in
	}
	ratio := float64(to) / float64(from)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	last := len(in) - 1
	for i := range n {
		src := float64(i) / ratio
		i0 := int(src)
		if i0 >= last {
			out[i] = in[last]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i0+1]*a
	}
	return out
}

func intsToFloat(data []int, bitDepth int) []float32 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(max(-1, min(1, float64(v)*scale)))
	}
	return out
}

func int16sToFloat(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}
