package audio

import (
	"encoding/binary"
	"math"
)

// Float32ToPCM16 converts mono float samples in [-1, 1] to 16-bit
// little-endian PCM. Out-of-range samples are clamped. Negative samples
// scale by 32768 and non-negative by 32767 so both full-scale extremes map
// onto the int16 range exactly.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v float64
		if s < 0 {
			v = float64(s) * 32768
		} else {
			v = float64(s) * 32767
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v))))
	}
	return out
}

// PCM16ToFloat32 is the inverse of Float32ToPCM16, mirroring its asymmetric
// scaling.
func PCM16ToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		if v < 0 {
			out[i] = float32(v) / 32768
		} else {
			out[i] = float32(v) / 32767
		}
	}
	return out
}
