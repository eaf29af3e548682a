package playback

import (
	"math"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/tapedeck/ringstream/internal/audio"
	"github.com/tapedeck/ringstream/internal/config"
)

// Init initialises the audio host. Call once at process start.
func Init() error { return portaudio.Initialize() }

// Terminate releases the audio host. Call once at process exit.
func Terminate() error { return portaudio.Terminate() }

// Player renders a Buffer to the default output device. The device
// callback is the consumer side of the ring: it never blocks, mixing
// silence whenever the decoder has not caught up, and moving the play
// cursor is all it takes to seek.
type Player struct {
	buf    *audio.Buffer
	stream *portaudio.Stream

	pos    atomic.Int64  // play cursor in samples
	vol    atomic.Uint32 // float32 bits
	paused atomic.Bool
}

// NewPlayer opens the default output device for buf.
func NewPlayer(buf *audio.Buffer) (*Player, error) {
	p := &Player{buf: buf}
	p.SetVolume(1)

	stream, err := portaudio.OpenDefaultStream(
		0, config.Channels, float64(config.SampleRate), config.FramesPerBuffer, p.render)
	if err != nil {
		return nil, err
	}
	p.stream = stream
	return p, nil
}

// render is the device callback. Buffer.Read accumulates into its
// destination, so the block is cleared first.
func (p *Player) render(out []float32) {
	for i := range out {
		out[i] = 0
	}
	if p.paused.Load() {
		return
	}

	pos := p.pos.Load()
	if p.buf.Read(out, pos, p.Volume()) {
		p.pos.Store(pos + int64(len(out)))
	}
}

func (p *Player) Start() error { return p.stream.Start() }
func (p *Player) Stop() error  { return p.stream.Stop() }
func (p *Player) Close() error { return p.stream.Close() }

// Position returns the play cursor in seconds.
func (p *Player) Position() float64 {
	return float64(p.pos.Load()) / float64(config.SampleRate*config.Channels)
}

// SeekTo moves the play cursor. The next device callback's out-of-range
// read makes the decode goroutine reposition the stream; no pipeline
// teardown is involved.
func (p *Player) SeekTo(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	frame := int64(seconds * config.SampleRate)
	p.pos.Store(frame * config.Channels)
}

// TogglePause flips the pause state and returns the new state.
func (p *Player) TogglePause() bool {
	paused := !p.paused.Load()
	p.paused.Store(paused)
	return paused
}

// Ready reports whether enough audio is prebuffered at the play cursor
// for playback to proceed without stuttering.
func (p *Player) Ready() bool { return p.buf.Prepare(p.pos.Load()) }

// SetVolume sets the playback gain applied when mixing.
func (p *Player) SetVolume(v float32) { p.vol.Store(math.Float32bits(v)) }

// Volume returns the current playback gain.
func (p *Player) Volume() float32 { return math.Float32frombits(p.vol.Load()) }
