package trancebox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

type renderStreamer struct {
	render func(buf AudioBuffer) error
	left   int
	buf    AudioBuffer
	err    error
}

// Streamer returns a beep.Streamer that produces frames frames by calling
// render in chunks of at most blockSize frames.
func Streamer(render func(buf AudioBuffer) error, frames, blockSize int) beep.Streamer {
	return &renderStreamer{render: render, left: frames, buf: make(AudioBuffer, blockSize)}
}

func (s *renderStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.left <= 0 || s.err != nil {
		return 0, false
	}
	for n < len(samples) && s.left > 0 {
		chunk := s.buf[:min(len(s.buf), len(samples)-n, s.left)]
		if err := s.render(chunk); err != nil {
			s.err = err
			break
		}
		for i, v := range chunk {
			samples[n+i] = [2]float64{float64(v[0]), float64(v[1])}
		}
		n += len(chunk)
		s.left -= len(chunk)
	}
	return n, n > 0
}

func (s *renderStreamer) Err() error { return s.err }

// Streamer returns a beep.Streamer playing the buffer once.
func (buffer AudioBuffer) Streamer() beep.Streamer {
	i := 0
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n < len(samples) && i < len(buffer) {
			samples[n] = [2]float64{float64(buffer[i][0]), float64(buffer[i][1])}
			n++
			i++
		}
		return n, n > 0
	})
}

// WriteWav encodes the stream as a stereo .wav file. If pcm16 is true, the
// samples are converted to 16-bit signed PCM, otherwise 24-bit PCM is used.
func WriteWav(w io.WriteSeeker, s beep.Streamer, sampleRate int, pcm16 bool) error {
	precision := 3
	if pcm16 {
		precision = 2
	}
	format := beep.Format{SampleRate: beep.SampleRate(sampleRate), NumChannels: 2, Precision: precision}
	if err := wav.Encode(w, s, format); err != nil {
		return fmt.Errorf("could not encode .wav: %w", err)
	}
	return nil
}

// Raw returns the buffer as interleaved little-endian samples, either float32
// or 16-bit signed PCM.
func (buffer AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	if pcm16 {
		int16data := make([][2]int16, len(buffer))
		for i, v := range buffer {
			int16data[i][0] = toPCM16(v[0])
			int16data[i][1] = toPCM16(v[1])
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, buffer)
	}
	if err != nil {
		return nil, fmt.Errorf("could not binary write data to binary buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func toPCM16(v float32) int16 {
	return int16(max(min(int(v*math.MaxInt16), math.MaxInt16), math.MinInt16))
}
