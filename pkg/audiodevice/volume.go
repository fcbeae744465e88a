package audiodevice

import (
	"encoding/binary"
	"math"

	"videocore/pkg/avmedia"
)

// applyVolume scales pcm in place by pct/100 according to its sample
// format; each device format is handled explicitly since SDL does not
// normalise sample representations for us.
func applyVolume(pcm []byte, format avmedia.SampleFormat, pct float64) []byte {
	if pct >= 100 {
		return pcm
	}
	gain := pct / 100.0

	switch format {
	case avmedia.SampleFormatU8:
		for i, b := range pcm {
			centered := float64(int(b) - 128)
			pcm[i] = byte(centered*gain) + 128
		}
	case avmedia.SampleFormatS16:
		for i := 0; i+1 < len(pcm); i += 2 {
			v := int16(binary.LittleEndian.Uint16(pcm[i:]))
			binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(float64(v)*gain)))
		}
	case avmedia.SampleFormatS32:
		for i := 0; i+3 < len(pcm); i += 4 {
			v := int32(binary.LittleEndian.Uint32(pcm[i:]))
			binary.LittleEndian.PutUint32(pcm[i:], uint32(int32(float64(v)*gain)))
		}
	case avmedia.SampleFormatF32:
		for i := 0; i+3 < len(pcm); i += 4 {
			bits := binary.LittleEndian.Uint32(pcm[i:])
			v := math.Float32frombits(bits)
			binary.LittleEndian.PutUint32(pcm[i:], math.Float32bits(float32(float64(v)*gain)))
		}
	}
	return pcm
}
