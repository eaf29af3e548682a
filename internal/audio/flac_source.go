package audio

import (
	"fmt"
	"os"

	"github.com/mewkiz/flac"
)

// flacSource decodes FLAC through mewkiz/flac. Seeks land on the
// nearest frame boundary at or before the target; SeekFrame reports the
// frame actually reached so positions stay truthful.
type flacSource struct {
	f       *os.File
	stream  *flac.Stream
	scale   float32
	pending []float32 // interleaved leftovers from the last parsed frame
}

func openFLAC(path string) (source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, err := flac.NewSeek(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create FLAC decoder: %w", err)
	}
	return &flacSource{
		f:      f,
		stream: stream,
		scale:  float32(int64(1) << (stream.Info.BitsPerSample - 1)),
	}, nil
}

func (s *flacSource) SampleRate() int { return int(s.stream.Info.SampleRate) }
func (s *flacSource) Channels() int   { return int(s.stream.Info.NChannels) }
func (s *flacSource) Length() int64   { return int64(s.stream.Info.NSamples) }

func (s *flacSource) ReadSamples(dst []float32) (int, error) {
	if len(s.pending) == 0 {
		frame, err := s.stream.ParseNext()
		if err != nil {
			return 0, err // io.EOF passes through unchanged
		}
		channels := len(frame.Subframes)
		nb := len(frame.Subframes[0].Samples)
		for i := 0; i < nb; i++ {
			for c := 0; c < channels; c++ {
				s.pending = append(s.pending, float32(frame.Subframes[c].Samples[i])/s.scale)
			}
		}
	}

	n := copy(dst, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *flacSource) SeekFrame(frame int64) (int64, error) {
	if frame < 0 {
		frame = 0
	}
	got, err := s.stream.Seek(uint64(frame))
	if err != nil {
		return 0, err
	}
	s.pending = s.pending[:0]
	return int64(got), nil
}

func (s *flacSource) Close() error {
	s.stream.Close()
	return s.f.Close()
}
