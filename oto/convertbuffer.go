package oto

import (
	"encoding/binary"
	"math"

	"github.com/trancebox/trancebox"
)

// PutFloat32LE writes buf to dst as interleaved stereo 32-bit little-endian
// floats and returns the number of bytes written. Only as many frames as fit
// in dst are written.
func PutFloat32LE(dst []byte, buf trancebox.AudioBuffer) int {
	n := min(len(buf), len(dst)/bytesPerFrame)
	for i, s := range buf[:n] {
		binary.LittleEndian.PutUint32(dst[i*bytesPerFrame:], math.Float32bits(s[0]))
		binary.LittleEndian.PutUint32(dst[i*bytesPerFrame+4:], math.Float32bits(s[1]))
	}
	return n * bytesPerFrame
}

const bytesPerFrame = 8
