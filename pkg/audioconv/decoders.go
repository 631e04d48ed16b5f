package audioconv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

func decodeWAV(r io.ReadSeeker) ([]float32, int, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, 0, errors.New("empty wav")
	}

	ch, sr := int(dec.NumChans), int(dec.SampleRate)
	if buf.Format != nil {
		ch, sr = buf.Format.NumChannels, buf.Format.SampleRate
	}
	return intsToFloat(buf.Data, int(dec.BitDepth)), max(ch, 1), sr, nil
}

// go-mp3 always yields 16-bit little-endian stereo.
func decodeMP3(r io.ReadSeeker) ([]float32, int, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, err
	}
	ints := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw[:len(ints)*2]), binary.LittleEndian, ints); err != nil {
		return nil, 0, 0, err
	}
	return int16sToFloat(ints), 2, dec.SampleRate(), nil
}

// decodeOgg tries Vorbis first and falls back to Opus.
func decodeOgg(r io.ReadSeeker) ([]float32, int, int, error) {
	pcm, format, verr := oggvorbis.ReadAll(r)
	if verr == nil && format != nil && format.Channels > 0 {
		return pcm, format.Channels, format.SampleRate, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, 0, 0, err
	}
	pcm, ch, sr, oerr := decodeOpus(r)
	if oerr != nil {
		return nil, 0, 0, fmt.Errorf("neither vorbis (%v) nor opus (%w)", verr, oerr)
	}
	return pcm, ch, sr, nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, int, int, error) {
	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, 0, err
	}
	defer dec.Destroy()

	ch := max(dec.ChannelCount(), 1)
	buf := make([]int16, 24000*ch)

	var pcm []float32
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16sToFloat(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
	}
	return pcm, ch, 48000, nil
}
