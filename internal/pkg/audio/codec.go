package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Codec constants for the telephony μ-law encoding
const (
	muLawBias = 0x84
	muLawClip = 32635
	// TelephonyRate is the narrowband sample rate of the provider media stream
	TelephonyRate = 8000
	// FrameSize is one 20ms μ-law frame at 8kHz
	FrameSize = 160
)

// DecodeMuLaw expands μ-law bytes into normalized float32 samples in [-1, 1]
func DecodeMuLaw(data []byte) []float32 {
	res := make([]float32, len(data))
	for i, b := range data {
		res[i] = decodeMuLawSample(b)
	}
	return res
}

func decodeMuLawSample(b byte) float32 {
	u := ^b
	sign := float32(1)
	if u&0x80 != 0 {
		sign = -1
	}
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0f
	linear := (int32(mantissa)<<3 + muLawBias) << exponent
	return sign * float32(linear-muLawBias) / 32768
}

// EncodeMuLaw compresses normalized float32 samples into μ-law bytes
func EncodeMuLaw(samples []float32) []byte {
	res := make([]byte, len(samples))
	for i, s := range samples {
		res[i] = encodeMuLawSample(s)
	}
	return res
}

func encodeMuLawSample(sample float32) byte {
	s := int32(clamp(sample) * 0x7FFF)
	var sign byte
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > muLawClip {
		s = muLawClip
	}
	s += muLawBias
	exponent := byte(7)
	for expMask := int32(0x4000); s&expMask == 0 && exponent > 0; exponent, expMask = exponent-1, expMask>>1 {
	}
	shift := exponent + 3
	if exponent == 0 {
		shift = 4
	}
	mantissa := byte(s>>shift) & 0x0f
	return ^(sign | exponent<<4 | mantissa)
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// Resample converts samples between rates in linear time.
// Downsampling averages the input samples falling into each output slot,
// upsampling interpolates between the two nearest input samples.
// It preserves correctness, not audio fidelity
func Resample(samples []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(samples) == 0 {
		return samples
	}
	if inRate > outRate {
		return downsample(samples, inRate, outRate)
	}
	return upsample(samples, inRate, outRate)
}

func downsample(samples []float32, inRate, outRate int) []float32 {
	ratio := float64(inRate) / float64(outRate)
	res := make([]float32, int(float64(len(samples))/ratio))
	pos := 0
	for i := range res {
		next := int(float64(i+1) * ratio)
		var sum float32
		count := 0
		for ; pos < next && pos < len(samples); pos++ {
			sum += samples[pos]
			count++
		}
		if count > 0 {
			res[i] = sum / float32(count)
		}
	}
	return res
}

func upsample(samples []float32, inRate, outRate int) []float32 {
	ratio := float64(outRate) / float64(inRate)
	res := make([]float32, int(float64(len(samples))*ratio))
	for i := range res {
		srcIdx := float64(i) / ratio
		lower := int(srcIdx)
		upper := lower + 1
		if upper > len(samples)-1 {
			upper = len(samples) - 1
		}
		frac := float32(srcIdx - float64(lower))
		res[i] = samples[lower]*(1-frac) + samples[upper]*frac
	}
	return res
}

// SilenceFrame returns one 20ms frame of μ-law silence, used only for keepalive
func SilenceFrame() []byte {
	res := make([]byte, FrameSize)
	for i := range res {
		res[i] = 0xFF
	}
	return res
}

// DecodePCM16 converts little-endian 16-bit PCM bytes into normalized float32 samples
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("odd pcm16 payload size %d", len(data))
	}
	res := make([]float32, len(data)/2)
	for i := range res {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		res[i] = float32(s) / 32768
	}
	return res, nil
}

// EncodePCM16 converts normalized float32 samples into little-endian 16-bit PCM bytes
func EncodePCM16(samples []float32) []byte {
	res := make([]byte, len(samples)*2)
	for i, sf := range samples {
		s := clamp(sf)
		var v int16
		if s < 0 {
			v = int16(s * 0x8000)
		} else {
			v = int16(s * 0x7FFF)
		}
		binary.LittleEndian.PutUint16(res[i*2:], uint16(v))
	}
	return res
}

// ToPCMBase64 transcodes a base64 μ-law 8kHz payload into base64 PCM16 at outRate.
// On any failure it returns the original payload - a corrupt frame
// degrades quality for one frame instead of killing the session
func ToPCMBase64(muLawB64 string, outRate int) string {
	data, err := base64.StdEncoding.DecodeString(muLawB64)
	if err != nil {
		return muLawB64
	}
	samples := Resample(DecodeMuLaw(data), TelephonyRate, outRate)
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

// ToMuLawBase64 transcodes a base64 PCM16 payload at inRate into base64 μ-law 8kHz.
// Fails soft the same way as ToPCMBase64
func ToMuLawBase64(pcmB64 string, inRate int) string {
	data, err := base64.StdEncoding.DecodeString(pcmB64)
	if err != nil {
		return pcmB64
	}
	samples, err := DecodePCM16(data)
	if err != nil {
		return pcmB64
	}
	return base64.StdEncoding.EncodeToString(EncodeMuLaw(Resample(samples, inRate, TelephonyRate)))
}
