package audio

// resampler converts an interleaved stream between sample rates using
// Catmull-Rom cubic interpolation. It keeps a four-frame history across
// calls so chunk boundaries do not distort the signal.
type resampler struct {
	ratio    float64 // source frames advanced per output frame
	pos      float64 // fractional position between hist[1] and hist[2]
	channels int
	hist     [4][]float32 // hist[0] oldest
	primed   int
	out      []float32
}

func newResampler(srcRate, dstRate, channels int) *resampler {
	r := &resampler{
		ratio:    float64(srcRate) / float64(dstRate),
		channels: channels,
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}
	return r
}

// reset drops the interpolation history, e.g. after a seek.
func (r *resampler) reset() {
	r.pos = 0
	r.primed = 0
}

// process resamples one interleaved chunk. The returned slice is reused
// and only valid until the next call.
func (r *resampler) process(in []float32) []float32 {
	out := r.out[:0]
	for i := 0; i+r.channels <= len(in); i += r.channels {
		r.push(in[i : i+r.channels])
		if r.primed < 4 {
			continue
		}
		for ; r.pos < 1; r.pos += r.ratio {
			alpha := float32(r.pos)
			for c := 0; c < r.channels; c++ {
				out = append(out, cubicInterpolate(
					r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], alpha))
			}
		}
		r.pos--
	}
	r.out = out
	return out
}

// push shifts the history window forward by one frame.
func (r *resampler) push(frame []float32) {
	oldest := r.hist[0]
	r.hist[0] = r.hist[1]
	r.hist[1] = r.hist[2]
	r.hist[2] = r.hist[3]
	r.hist[3] = oldest
	copy(r.hist[3], frame)
	if r.primed < 4 {
		r.primed++
	}
}

// cubicInterpolate evaluates a Catmull-Rom spline between y1 and y2 at
// fractional position alpha in [0, 1).
func cubicInterpolate(y0, y1, y2, y3, alpha float32) float32 {
	a := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	b := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	c := -0.5*y0 + 0.5*y2
	return ((a*alpha+b)*alpha+c)*alpha + y1
}
