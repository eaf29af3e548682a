package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavSource reads PCM straight out of the data chunk so it can seek to
// an exact frame. go-audio/wav is used to locate and describe the chunk;
// the sample bytes are decoded here.
type wavSource struct {
	f          *os.File
	dataStart  int64
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	pos        int64 // current frame
	raw        []byte
}

func openWAV(path string) (source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("locate PCM data: %w", err)
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported WAV bit depth %d", dec.BitDepth)
	}

	// FwdToPCM leaves the file positioned at the first sample.
	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, err
	}

	bytesPerFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	return &wavSource{
		f:          f,
		dataStart:  start,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
		frames:     int64(dec.PCMLen()) / bytesPerFrame,
		pos:        0,
	}, nil
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) Length() int64   { return s.frames }

func (s *wavSource) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / s.channels
	if remain := s.frames - s.pos; int64(frames) > remain {
		frames = int(remain)
	}
	if frames == 0 {
		return 0, io.EOF
	}

	bytesPerSample := s.bitDepth / 8
	need := frames * s.channels * bytesPerSample
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}

	n, err := io.ReadFull(s.f, s.raw[:need])
	values := n / bytesPerSample
	scale := float32(audio.IntMaxSignedValue(s.bitDepth) + 1)

	for i := 0; i < values; i++ {
		off := i * bytesPerSample
		var v int32
		switch s.bitDepth {
		case 8:
			// 8-bit WAV is unsigned, centred on 128.
			v = int32(s.raw[off]) - 128
		case 16:
			v = int32(int16(uint16(s.raw[off]) | uint16(s.raw[off+1])<<8))
		case 24:
			v = int32(uint32(s.raw[off]) | uint32(s.raw[off+1])<<8 | uint32(s.raw[off+2])<<16)
			if v&0x800000 != 0 {
				v -= 1 << 24
			}
		case 32:
			v = int32(uint32(s.raw[off]) | uint32(s.raw[off+1])<<8 |
				uint32(s.raw[off+2])<<16 | uint32(s.raw[off+3])<<24)
		}
		dst[i] = float32(v) / scale
	}

	s.pos += int64(values / s.channels)

	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return values, err
	}
	if values == 0 {
		return 0, io.EOF
	}
	return values, nil
}

func (s *wavSource) SeekFrame(frame int64) (int64, error) {
	if frame < 0 {
		frame = 0
	}
	if frame > s.frames {
		frame = s.frames
	}
	bytesPerFrame := int64(s.bitDepth/8) * int64(s.channels)
	if _, err := s.f.Seek(s.dataStart+frame*bytesPerFrame, io.SeekStart); err != nil {
		return s.pos, err
	}
	s.pos = frame
	return frame, nil
}

func (s *wavSource) Close() error { return s.f.Close() }
