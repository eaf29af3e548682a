package audio

import (
	"math"
	"testing"
)

func TestPreviewDownmix(t *testing.T) {
	b := newBuffer(48000, 8)
	b.Write([]int16{3276, -3276, 16384, 16384, 0, 0, 100, 300}, 0)

	out := b.Preview(1)
	if len(out) != 4 {
		t.Fatalf("preview length = %d, want 4", len(out))
	}
	want := []float32{0, 0.5, 0, 200.0 / 32768}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestPreviewVolumeCompensation(t *testing.T) {
	b := newBuffer(48000, 4)
	b.Write([]int16{16384, 16384, 8192, 8192}, 0)

	out := b.Preview(0.5)
	if out[0] != 1.0 || out[1] != 0.5 {
		t.Errorf("preview at half volume = %v, want [1 0.5]", out)
	}
}

func TestSpectrumSinePeak(t *testing.T) {
	const n = 512
	const cycles = 32

	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * cycles * float64(i) / n))
	}

	mags, err := Spectrum(samples)
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	if len(mags) != n/2 {
		t.Fatalf("got %d bins, want %d", len(mags), n/2)
	}

	peak := 0
	for i := range mags {
		if mags[i] > mags[peak] {
			peak = i
		}
	}
	if peak < cycles-1 || peak > cycles+1 {
		t.Errorf("peak at bin %d, want %d", peak, cycles)
	}
	if mags[cycles] < 100*mags[cycles+20] {
		t.Errorf("peak bin %v not well above the noise floor %v", mags[cycles], mags[cycles+20])
	}
}

func TestSpectrumPadsToPowerOfTwo(t *testing.T) {
	mags, err := Spectrum(make([]float32, 300))
	if err != nil {
		t.Fatalf("Spectrum: %v", err)
	}
	if len(mags) != 256 {
		t.Errorf("got %d bins, want 256 after padding to 512", len(mags))
	}
}

func TestSpectrumShortInput(t *testing.T) {
	if mags, err := Spectrum(nil); mags != nil || err != nil {
		t.Errorf("nil input: got (%v, %v)", mags, err)
	}
	if mags, err := Spectrum([]float32{1}); mags != nil || err != nil {
		t.Errorf("single sample: got (%v, %v)", mags, err)
	}
}
