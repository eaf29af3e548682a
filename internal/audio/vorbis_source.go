package audio

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// vorbisSource decodes Ogg Vorbis through jfreymuth/oggvorbis, which
// already produces interleaved float32 samples and supports positioning
// by frame.
type vorbisSource struct {
	f *os.File
	r *oggvorbis.Reader
}

func openVorbis(path string) (source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create Vorbis decoder: %w", err)
	}
	return &vorbisSource{f: f, r: r}, nil
}

func (s *vorbisSource) SampleRate() int { return s.r.SampleRate() }
func (s *vorbisSource) Channels() int   { return s.r.Channels() }
func (s *vorbisSource) Length() int64   { return s.r.Length() }

func (s *vorbisSource) ReadSamples(dst []float32) (int, error) {
	return s.r.Read(dst)
}

func (s *vorbisSource) SeekFrame(frame int64) (int64, error) {
	if frame < 0 {
		frame = 0
	}
	if total := s.r.Length(); total > 0 && frame > total {
		frame = total
	}
	if err := s.r.SetPosition(frame); err != nil {
		return 0, err
	}
	return frame, nil
}

func (s *vorbisSource) Close() error { return s.f.Close() }
