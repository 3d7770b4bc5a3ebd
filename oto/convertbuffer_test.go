package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/oto"
)

func TestPutFloat32LE(t *testing.T) {
	buf := trancebox.AudioBuffer{{0.5, -0.25}, {1, -1}, {0.125, 0}}
	dst := make([]byte, 20) // room for two frames and a half
	n := oto.PutFloat32LE(dst, buf)
	if n != 16 {
		t.Fatalf("wrote %d bytes, want 16", n)
	}
	want := []float32{0.5, -0.25, 1, -1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(dst[4*i:]))
		if got != w {
			t.Errorf("sample %d: got %v, want %v", i, got, w)
		}
	}
	for i, b := range dst[16:] {
		if b != 0 {
			t.Errorf("byte %d past the last whole frame was written", 16+i)
		}
	}
}
