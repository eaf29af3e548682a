package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tapedeck/ringstream/internal/config"
)

// ErrEndOfStream is returned by DecodeStep once the source is exhausted.
// It is a control signal, not a failure.
var ErrEndOfStream = errors.New("end of stream")

// DeliverFunc receives one decoded chunk of interleaved stereo samples
// together with its absolute position in output samples.
type DeliverFunc func(samples []int16, pos int64)

// StreamDecoder is the adapter driven by the decode goroutine.
type StreamDecoder interface {
	// DecodeStep performs one read-decode-deliver cycle, invoking the
	// delivery callback zero or more times. Returns ErrEndOfStream when
	// the source has no more data.
	DecodeStep() error

	// Seek repositions the stream to the nearest decodable point at or
	// before the given time. Best effort.
	Seek(seconds float64) error

	// Duration returns the stream length in seconds.
	Duration() float64

	Close() error
}

// source is one format-specific decoder producing interleaved samples
// at its native rate and channel count.
type source interface {
	// ReadSamples fills dst with interleaved samples and returns the
	// number of values written. io.EOF once exhausted.
	ReadSamples(dst []float32) (int, error)

	SampleRate() int
	Channels() int

	// Length returns the total number of frames, or 0 when unknown.
	Length() int64

	// SeekFrame repositions to the nearest decodable point at or before
	// frame and returns the frame actually landed on.
	SeekFrame(frame int64) (int64, error)

	Close() error
}

type openFunc func(path string) (source, error)

var (
	registerOnce sync.Once
	formats      map[string]openFunc
)

// registerFormats wires the built-in codecs, exactly once per process.
func registerFormats() {
	formats = map[string]openFunc{
		".wav":  openWAV,
		".mp3":  openMP3,
		".flac": openFLAC,
		".fla":  openFLAC,
		".ogg":  openVorbis,
		".oga":  openVorbis,
	}

	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	slog.Info("audio: decoders registered", "formats", strings.Join(exts, " "))
}

// Decoder feeds decoded, remixed and resampled audio into a delivery
// callback, tracking the absolute output position across seeks.
type Decoder struct {
	src     source
	res     *resampler // nil when the native rate matches the output rate
	rate    int
	deliver DeliverFunc

	readBuf []float32 // native interleaved samples
	mixBuf  []float32 // stereo remix scratch
	pcmBuf  []int16

	outPos int64 // next delivery position, in output samples
}

// OpenDecoder opens path with the codec matching its extension and
// prepares the remix/resample pipeline for the requested output rate.
func OpenDecoder(path string, rate int, deliver DeliverFunc) (*Decoder, error) {
	registerOnce.Do(registerFormats)

	ext := strings.ToLower(filepath.Ext(path))
	open, ok := formats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported audio format %q", ext)
	}
	src, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	d := &Decoder{
		src:     src,
		rate:    rate,
		deliver: deliver,
		readBuf: make([]float32, config.DecodeChunkFrames*src.Channels()),
		mixBuf:  make([]float32, 0, config.DecodeChunkFrames*config.Channels),
	}
	if src.SampleRate() != rate {
		d.res = newResampler(src.SampleRate(), rate, config.Channels)
	}
	return d, nil
}

// Duration derives the stream length from the source frame count.
func (d *Decoder) Duration() float64 {
	if n := d.src.Length(); n > 0 {
		return float64(n) / float64(d.src.SampleRate())
	}
	return 0
}

// DecodeStep pulls one chunk from the source, remixes it to stereo,
// resamples it to the output rate and hands it to the delivery callback.
func (d *Decoder) DecodeStep() error {
	n, err := d.src.ReadSamples(d.readBuf)
	if n > 0 {
		out := remixStereo(d.readBuf[:n], d.src.Channels(), d.mixBuf[:0])
		d.mixBuf = out
		if d.res != nil {
			out = d.res.process(out)
		}
		if len(out) > 0 {
			d.pcmBuf = toPCM16(out, d.pcmBuf[:0])
			d.deliver(d.pcmBuf, d.outPos)
			d.outPos += int64(len(d.pcmBuf))
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEndOfStream
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// Seek repositions the source and restarts output numbering from
// wherever it actually landed, which for block-compressed formats is the
// nearest decodable point at or before the target.
func (d *Decoder) Seek(seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}
	want := int64(seconds * float64(d.src.SampleRate()))
	got, err := d.src.SeekFrame(want)
	if err != nil {
		return fmt.Errorf("seek to %.3fs: %w", seconds, err)
	}
	if d.res != nil {
		d.res.reset()
	}
	outFrame := int64(math.Round(float64(got) / float64(d.src.SampleRate()) * float64(d.rate)))
	d.outPos = outFrame * config.Channels
	return nil
}

func (d *Decoder) Close() error { return d.src.Close() }

// remixStereo appends interleaved stereo to dst from interleaved src
// with ch channels. Mono is duplicated; channels beyond the front pair
// are dropped.
func remixStereo(src []float32, ch int, dst []float32) []float32 {
	switch ch {
	case 1:
		for _, s := range src {
			dst = append(dst, s, s)
		}
	case 2:
		dst = append(dst, src...)
	default:
		for i := 0; i+ch <= len(src); i += ch {
			dst = append(dst, src[i], src[i+1])
		}
	}
	return dst
}

// toPCM16 appends src converted to 16-bit samples to dst, clamping out
// of range values.
func toPCM16(src []float32, dst []int16) []int16 {
	for _, s := range src {
		v := s * 32768
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		dst = append(dst, int16(v))
	}
	return dst
}
