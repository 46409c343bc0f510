package audio

import (
	"encoding/base64"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_Silence(t *testing.T) {
	in := make([]float32, 320)
	out := DecodeMuLaw(EncodeMuLaw(in))
	require.Equal(t, len(in), len(out))
	for i, s := range out {
		assert.InDelta(t, 0, s, 0.01, "sample %d", i)
	}
}

func TestRoundTrip_FullScale(t *testing.T) {
	in := make([]float32, 160)
	for i := range in {
		if i%2 == 0 {
			in[i] = 1
		} else {
			in[i] = -1
		}
	}
	out := DecodeMuLaw(EncodeMuLaw(in))
	require.Equal(t, len(in), len(out))
	for i, s := range out {
		assert.InDelta(t, in[i], s, 0.05, "sample %d", i)
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	in := make([]float32, 1000)
	for i := range in {
		in[i] = rnd.Float32()*2 - 1
	}
	out := DecodeMuLaw(EncodeMuLaw(in))
	require.Equal(t, len(in), len(out))
	for i, s := range out {
		// companding error grows with amplitude
		bound := 0.004 + 0.07*math.Abs(float64(in[i]))
		assert.InDelta(t, in[i], s, bound, "sample %d", i)
	}
}

func TestEncodeMuLaw_ClampsOutOfRange(t *testing.T) {
	got := EncodeMuLaw([]float32{2, -2})
	want := EncodeMuLaw([]float32{1, -1})
	assert.Equal(t, want, got)
}

func TestResample_Same(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	assert.Equal(t, in, Resample(in, 8000, 8000))
}

func TestResample_Down(t *testing.T) {
	in := []float32{0, 1, 0, 1, 0, 1, 0, 1}
	out := Resample(in, 16000, 8000)
	require.Len(t, out, 4)
	for _, s := range out {
		assert.InDelta(t, 0.5, s, 0.001)
	}
}

func TestResample_Up(t *testing.T) {
	in := []float32{0, 1}
	out := Resample(in, 8000, 16000)
	require.Len(t, out, 4)
	assert.InDelta(t, 0, out[0], 0.001)
	assert.InDelta(t, 0.5, out[1], 0.001)
	assert.InDelta(t, 1, out[2], 0.001)
	assert.InDelta(t, 1, out[3], 0.001)
}

func TestResample_Empty(t *testing.T) {
	assert.Empty(t, Resample(nil, 8000, 16000))
}

func TestSilenceFrame(t *testing.T) {
	f := SilenceFrame()
	require.Len(t, f, 160)
	for _, b := range f {
		require.Equal(t, byte(0xFF), b)
	}
	for _, s := range DecodeMuLaw(f) {
		assert.InDelta(t, 0, s, 0.001)
	}
}

func TestPCM16_RoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 1, -1}
	data := EncodePCM16(in)
	require.Len(t, data, len(in)*2)
	out, err := DecodePCM16(data)
	require.Nil(t, err)
	for i, s := range out {
		assert.InDelta(t, in[i], s, 0.001, "sample %d", i)
	}
}

func TestDecodePCM16_OddSize(t *testing.T) {
	_, err := DecodePCM16([]byte{1, 2, 3})
	assert.NotNil(t, err)
}

func TestToPCMBase64(t *testing.T) {
	in := base64.StdEncoding.EncodeToString(SilenceFrame())
	out := ToPCMBase64(in, 16000)
	data, err := base64.StdEncoding.DecodeString(out)
	require.Nil(t, err)
	// 160 samples at 8k upsampled to 16k, 2 bytes each
	assert.Len(t, data, 640)
}

func TestToPCMBase64_FailsSoft(t *testing.T) {
	assert.Equal(t, "not-base64!!!", ToPCMBase64("not-base64!!!", 16000))
}

func TestToMuLawBase64(t *testing.T) {
	pcm := EncodePCM16(make([]float32, 320))
	in := base64.StdEncoding.EncodeToString(pcm)
	out := ToMuLawBase64(in, 16000)
	data, err := base64.StdEncoding.DecodeString(out)
	require.Nil(t, err)
	assert.Len(t, data, 160)
}

func TestToMuLawBase64_FailsSoft(t *testing.T) {
	assert.Equal(t, "@@@", ToMuLawBase64("@@@", 16000))
	odd := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	assert.Equal(t, odd, ToMuLawBase64(odd, 16000))
}
