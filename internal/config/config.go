package config

// Audio output settings
const (
	SampleRate = 48000 // output rate fed to decoders and the playback device
	Channels   = 2     // interleaved stereo throughout the pipeline
)

// Ring buffer settings
const (
	// BufferSeconds is the default ring capacity in seconds of audio.
	BufferSeconds = 4

	// PrebufferDivisor controls how much decode-ahead Prepare requires
	// before reporting ready: capacity/PrebufferDivisor samples.
	PrebufferDivisor = 16

	// DefaultBufferSize is the default ring capacity in samples, all
	// channels included.
	DefaultBufferSize = SampleRate * Channels * BufferSeconds
)

// Decoder settings
const (
	// DecodeChunkFrames is how many source frames one decode step pulls.
	DecodeChunkFrames = 4096

	// MaxDecodeErrors is the number of consecutive decode failures after
	// which a sustained-failure warning is logged.
	MaxDecodeErrors = 3
)

// Playback settings
const (
	FramesPerBuffer = 1024 // device callback block size in frames
)
