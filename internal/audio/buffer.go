package audio

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tapedeck/ringstream/internal/config"
)

// Buffer is a fixed-capacity ring of interleaved int16 samples shared
// between one decode goroutine (producer) and the playback side
// (consumer). Cursors are absolute sample positions, never wrapped; a
// physical slot is addressed by position modulo capacity.
//
// Reads never block. A read outside the buffered window is treated as a
// seek request: the consumer gets silence for that cycle and the decode
// goroutine repositions the stream in the background. Only writes block,
// waiting for the consumer to free space.
type Buffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	data []int16

	readPos  int64
	writePos int64
	eofPos   int64 // -1 until end of stream has been observed

	quit      bool
	seekAsked bool

	sps      int     // samples per second, all channels (rate * Channels)
	duration float64 // fixed at construction

	done chan struct{} // closed when the decode goroutine has exited
}

// NewBuffer opens path with the decoder matching its format and starts
// the decode goroutine. rate is the output sample rate; size is the ring
// capacity in samples, all channels included.
func NewBuffer(path string, rate, size int) (*Buffer, error) {
	b := newBuffer(rate, size)
	dec, err := OpenDecoder(path, rate, b.Write)
	if err != nil {
		return nil, err
	}
	b.duration = dec.Duration()
	b.start(dec)
	return b, nil
}

func newBuffer(rate, size int) *Buffer {
	b := &Buffer{
		data:   make([]int16, size),
		eofPos: -1,
		sps:    rate * config.Channels,
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// start spawns the decode goroutine. The goroutine owns dec and releases
// it on exit.
func (b *Buffer) start(dec StreamDecoder) {
	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		defer dec.Close()
		b.decodeLoop(dec)
	}()
}

// room reports whether the producer may write without overwriting
// samples the consumer has not read yet. Caller holds b.mu.
func (b *Buffer) room() bool {
	return b.writePos < b.readPos+int64(len(b.data))
}

// pastEOF reports whether a span ending at pos reaches beyond the
// recorded end of stream. Caller holds b.mu.
func (b *Buffer) pastEOF(pos int64) bool {
	return b.eofPos >= 0 && pos > b.eofPos
}

// Write stores len(data) samples at absolute position pos, blocking
// while the ring is full. It is the decoder's delivery callback. Chunks
// that predate the read cursor arrived too late (or were superseded by a
// seek) and are dropped; a chunk arriving during a pending seek or
// shutdown is discarded rather than written against a moving cursor.
func (b *Buffer) Write(data []int16, pos int64) {
	if pos < 0 {
		slog.Warn("audio: negative sample position, chunk ignored", "pos", pos)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if pos < b.readPos {
		return
	}

	for !(b.quit || b.seekAsked || b.room()) {
		b.cond.Wait()
	}
	if b.quit || b.seekAsked {
		return
	}

	if b.writePos != pos {
		slog.Debug("audio: gap in stream", "expected", b.writePos, "received", pos)
	}

	b.writePos = pos
	slot := int(b.writePos % int64(len(b.data)))
	n := copy(b.data[slot:], data)
	copy(b.data, data[n:]) // wrapped tail
	b.writePos += int64(len(data))
	b.cond.Broadcast()
}

// Read mixes up to len(dst) samples at absolute position pos into dst,
// scaled by volume. Samples are added to dst, not assigned, so several
// streams can be mixed into one output block.
//
// Reads never block. Positions before the stream start are zero-filled.
// A position outside the valid window zero-fills dst, latches a seek
// request for the decode goroutine and still reports success: the caller
// hears silence for one cycle while the stream repositions. Read returns
// false only once the requested span ends past the recorded end of
// stream, or after Close.
func (b *Buffer) Read(dst []float32, pos int64, volume float32) bool {
	if pos < 0 {
		n := int64(len(dst))
		if n+pos > 0 {
			n = -pos
		}
		for i := int64(0); i < n; i++ {
			dst[i] = 0
		}
		if n == int64(len(dst)) {
			return true
		}
		dst = dst[n:]
		pos = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	samples := int64(len(dst))
	if b.quit || b.pastEOF(pos+samples) {
		return false
	}

	// One cannot read more than a buffer's worth.
	size := int64(len(b.data))
	if samples > size {
		samples = size
		dst = dst[:size]
	}

	if pos >= b.readPos+size-samples || pos < b.readPos {
		// Out of the valid window: deliver silence now and let the
		// decode goroutine reposition. writePos is deliberately not
		// consulted; a position past it reads back the zeroed slots.
		for i := range dst {
			dst[i] = 0
		}
		b.readPos = pos + samples
		b.seekAsked = true
		clear(b.data)
		b.cond.Broadcast()
		return true
	}

	for i := range dst {
		s := b.data[(b.readPos+int64(i))%size]
		dst[i] += volume * float32(s) / 32768
	}
	b.readPos = pos + samples
	b.cond.Broadcast()
	return true
}

// Prepare reports whether a healthy window around pos has been decoded
// ahead, without blocking. The zero-length read runs the same seek
// detection as a real read, so calling Prepare at a new position is
// enough to get the stream moving there.
func (b *Buffer) Prepare(pos int64) bool {
	if !b.Read(nil, pos, 1) {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	size := int64(len(b.data))
	return b.writePos > b.readPos+size/config.PrebufferDivisor && b.writePos <= b.readPos+size
}

// Duration returns the stream length in seconds, fixed at construction.
func (b *Buffer) Duration() float64 { return b.duration }

// Close shuts the session down: wakes every waiter, then joins the
// decode goroutine, which releases the decoder on its way out.
func (b *Buffer) Close() {
	b.mu.Lock()
	b.readPos = 0
	b.writePos = 0
	clear(b.data)
	b.quit = true
	b.mu.Unlock()
	b.cond.Broadcast()
	if b.done != nil {
		<-b.done
	}
}

// decodeLoop drives dec through read-decode-deliver cycles until quit.
// Priority each iteration: quit, then a pending seek, then one decode
// step. All decoder I/O runs with the mutex released so the consumer is
// never stalled behind codec work.
func (b *Buffer) decodeLoop(dec StreamDecoder) {
	errCount := 0
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.quit {
		if b.seekAsked {
			b.seekAsked = false
			b.writePos = b.readPos
			target := float64(b.readPos) / float64(b.sps)

			b.mu.Unlock()
			if err := dec.Seek(target); err != nil {
				slog.Warn("audio: seek failed", "target", target, "error", err)
			}
			b.mu.Lock()
			continue
		}

		b.mu.Unlock()
		err := dec.DecodeStep()
		b.mu.Lock()

		switch {
		case err == nil:
			errCount = 0
		case errors.Is(err, ErrEndOfStream):
			// The exact stream length is known only now.
			b.eofPos = b.writePos
			for !(b.quit || b.seekAsked) {
				b.cond.Wait()
			}
		default:
			errCount++
			count := errCount
			b.mu.Unlock()
			slog.Error("audio: decode failed", "error", err)
			if count >= config.MaxDecodeErrors {
				// Sustained failure is reported but not fatal; the loop
				// keeps retrying so a recovering stream can resume.
				slog.Error("audio: repeated decode failures", "count", count)
			}
			b.mu.Lock()
		}
	}
}
