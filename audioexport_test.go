package trancebox_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/trancebox/trancebox"
)

func TestWriteWav(t *testing.T) {
	buf := make(trancebox.AudioBuffer, 1000)
	for i := range buf {
		buf[i] = [2]float32{0.5, -0.5}
	}
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := trancebox.WriteWav(f, buf.Streamer(), 44100, true); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}
	f.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Fatalf("missing RIFF/WAVE header: %q", data[:12])
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != 44100 {
		t.Errorf("sample rate in header = %v, want 44100", got)
	}
	if want := 44 + 1000*2*2; len(data) != want {
		t.Errorf("file length = %v, want %v", len(data), want)
	}
}

func TestStreamerRendersRequestedFrames(t *testing.T) {
	calls := 0
	render := func(buf trancebox.AudioBuffer) error {
		calls++
		for i := range buf {
			buf[i] = [2]float32{1, 1}
		}
		return nil
	}
	s := trancebox.Streamer(render, 1000, 256)
	samples := make([][2]float64, 512)
	total := 0
	for {
		n, ok := s.Stream(samples)
		total += n
		if !ok {
			break
		}
	}
	if total != 1000 {
		t.Errorf("streamed %d frames, want 1000", total)
	}
	if calls != 4 {
		t.Errorf("render called %d times, want 4 blocks of at most 256 frames", calls)
	}
}

func TestRaw(t *testing.T) {
	buf := trancebox.AudioBuffer{{1, -1}, {0.5, 0}}
	raw, err := buf.Raw(false)
	if err != nil || len(raw) != 16 {
		t.Fatalf("Raw(false) = %d bytes, %v", len(raw), err)
	}
	raw, err = buf.Raw(true)
	if err != nil || len(raw) != 8 {
		t.Fatalf("Raw(true) = %d bytes, %v", len(raw), err)
	}
	if v := int16(binary.LittleEndian.Uint16(raw[0:2])); v != 32767 {
		t.Errorf("first sample = %v, want 32767", v)
	}
}
