package live

import (
	"sync"
	"time"
)

// Sink plays one PCM buffer starting at the given time and returns a function
// that stops it early. The output device (speaker, test recorder) provides the
// implementation.
type Sink interface {
	Play(pcm []byte, at time.Time) (stop func())
}

// Scheduler queues synthesized audio for gapless playback. Chunks arrive
// faster than real time; each one is scheduled to start exactly when its
// predecessor ends, or immediately when the queue has drained. Flush discards
// everything mid-word on an interruption.
type Scheduler struct {
	sink  Sink
	cfg   AudioConfig
	clock func() time.Time

	mu     sync.Mutex
	cursor time.Time
	muted  bool
	nextID int
	active map[int]func()
}

// NewScheduler creates a playback scheduler for the output audio format.
func NewScheduler(sink Sink) *Scheduler {
	return &Scheduler{
		sink:   sink,
		cfg:    OutputAudioConfig(),
		clock:  time.Now,
		active: make(map[int]func()),
	}
}

// Schedule queues one PCM chunk. The chunk starts when the previous one ends,
// never earlier than now.
func (p *Scheduler) Schedule(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	duration := p.cfg.Duration(len(pcm))

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	start := p.cursor
	if start.Before(now) {
		start = now
	}
	p.cursor = start.Add(duration)

	if p.muted {
		return
	}

	id := p.nextID
	p.nextID++
	stop := p.sink.Play(pcm, start)
	p.active[id] = stop

	// Retire the handle once the chunk has played out.
	time.AfterFunc(start.Sub(now)+duration, func() {
		p.mu.Lock()
		delete(p.active, id)
		p.mu.Unlock()
	})
}

// Flush stops everything queued and resets the timeline, so the next chunk
// starts immediately.
func (p *Scheduler) Flush() {
	p.mu.Lock()
	stops := make([]func(), 0, len(p.active))
	for _, stop := range p.active {
		stops = append(stops, stop)
	}
	p.active = make(map[int]func())
	p.cursor = time.Time{}
	p.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// SetMuted gates playback. Muting drops queued chunks and silences new ones;
// the timeline keeps advancing so unmuting rejoins the stream live rather
// than replaying the backlog.
func (p *Scheduler) SetMuted(muted bool) {
	p.mu.Lock()
	p.muted = muted
	var stops []func()
	if muted {
		for _, stop := range p.active {
			stops = append(stops, stop)
		}
		p.active = make(map[int]func())
	}
	p.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

// Pending reports how much scheduled audio remains from now.
func (p *Scheduler) Pending() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	remaining := p.cursor.Sub(p.clock())
	if remaining < 0 {
		return 0
	}
	return remaining
}
