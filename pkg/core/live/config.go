package live

import "time"

// State represents the current state of a live session.
type State int

const (
	// StateDisconnected is the idle state, before Connect and after a clean
	// teardown.
	StateDisconnected State = iota
	// StateConnecting covers the window between Connect and the remote
	// setup acknowledgement.
	StateConnecting
	// StateConnected is full duplex: capture streaming up, audio streaming
	// down.
	StateConnected
	// StateError is a terminal failure. The session has already released its
	// resources.
	StateError
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Audio formats on the two legs of a live session. Capture is sent up at
// 16kHz; the remote end synthesizes at 24kHz. Both are 16-bit mono PCM.
const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000
	BytesPerSample   = 2

	InputMimeType = "audio/pcm;rate=16000"
)

// AudioConfig describes a PCM stream.
type AudioConfig struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// InputAudioConfig is the capture-leg format.
func InputAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: InputSampleRate, Channels: 1, BitsPerSample: 16}
}

// OutputAudioConfig is the playback-leg format.
func OutputAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: OutputSampleRate, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the stream's data rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * c.BitsPerSample / 8
}

// Duration returns the play time of a buffer of the given size.
func (c AudioConfig) Duration(bytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(bps)
}
