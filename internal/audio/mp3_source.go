package audio

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// mp3BytesPerFrame is the size of one decoded frame: go-mp3 always
// yields 16-bit interleaved stereo.
const mp3BytesPerFrame = 4

// mp3Source decodes MP3 through go-mp3, which exposes the decoded PCM
// as a seekable byte stream, so seeks are frame-accurate.
type mp3Source struct {
	f   *os.File
	dec *mp3.Decoder
	raw []byte
}

func openMP3(path string) (source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create MP3 decoder: %w", err)
	}
	return &mp3Source{f: f, dec: dec}, nil
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return 2 }
func (s *mp3Source) Length() int64   { return s.dec.Length() / mp3BytesPerFrame }

func (s *mp3Source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}

	n, err := s.dec.Read(s.raw[:need])
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	values := n / 2
	for i := 0; i < values; i++ {
		low := uint16(s.raw[2*i])
		high := uint16(s.raw[2*i+1])
		dst[i] = float32(int16(low|high<<8)) / 32768
	}

	if err != nil && err != io.EOF {
		return values, err
	}
	return values, nil
}

func (s *mp3Source) SeekFrame(frame int64) (int64, error) {
	if frame < 0 {
		frame = 0
	}
	if total := s.Length(); frame > total {
		frame = total
	}
	if _, err := s.dec.Seek(frame*mp3BytesPerFrame, io.SeekStart); err != nil {
		return 0, err
	}
	return frame, nil
}

func (s *mp3Source) Close() error { return s.f.Close() }
