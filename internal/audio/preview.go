package audio

import (
	"math"
	"math/cmplx"

	"github.com/argusdusty/gofft"
	"github.com/tapedeck/ringstream/internal/config"
)

// Preview returns a snapshot mono downmix of the current ring contents,
// scaled by 1/volume so analysis sees pre-attenuation levels. Intended
// for waveform or spectrum displays, not for playback.
func (b *Buffer) Preview(volume float64) []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float32, len(b.data)/config.Channels)
	for i := range out {
		l := float64(b.data[config.Channels*i]) / 32768
		r := float64(b.data[config.Channels*i+1]) / 32768
		out[i] = float32((l + r) / 2 / volume)
	}
	return out
}

// Spectrum computes magnitude bins over a preview slice, applying a
// Hanning window and zero-padding up to the next power of two as the
// FFT requires. It returns len/2 bins covering the positive frequencies.
func Spectrum(samples []float32) ([]float64, error) {
	if len(samples) < 2 {
		return nil, nil
	}

	n := 1
	for n < len(samples) {
		n <<= 1
	}

	windowed := make([]float64, n)
	denom := float64(len(samples) - 1)
	for i, s := range samples {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/denom))
		windowed[i] = float64(s) * w
	}

	data := gofft.Float64ToComplex128Array(windowed)
	if err := gofft.FFT(data); err != nil {
		return nil, err
	}

	mags := make([]float64, n/2)
	for i := range mags {
		mags[i] = cmplx.Abs(data[i])
	}
	return mags, nil
}
