package audio

import (
	"sync"
	"time"
)

// DefaultFlushInterval is how often a live recording is cut into a
// discrete segment.
const DefaultFlushInterval = 20 * time.Second

// Segment is one flushed portion of a live recording, already encoded as
// a standalone WAV file. Index counts up from zero in flush order.
type Segment struct {
	Index    int
	Data     []byte
	Duration time.Duration
}

// Segmenter buffers live-captured samples and periodically flushes them
// into discrete encoded segments, mirroring a recorder that is stopped and
// immediately restarted on a fixed wall-clock interval.
type Segmenter struct {
	mu         sync.Mutex
	interval   time.Duration
	sampleRate int
	buf        []float32
	next       int
	lastFlush  time.Time
}

func NewSegmenter(interval time.Duration, sampleRate int) *Segmenter {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if sampleRate <= 0 {
		sampleRate = TargetSampleRate
	}
	return &Segmenter{
		interval:   interval,
		sampleRate: sampleRate,
		lastFlush:  time.Now(),
	}
}

// Append adds captured mono samples to the pending buffer.
func (s *Segmenter) Append(samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, samples...)
}

// Due reports whether the flush interval has elapsed since the last flush.
func (s *Segmenter) Due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastFlush) >= s.interval
}

// Flush encodes the buffered samples as one segment and resets the
// buffer. It returns false when nothing has been captured since the last
// flush; the counter does not advance in that case.
func (s *Segmenter) Flush() (Segment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastFlush = time.Now()
	if len(s.buf) == 0 {
		return Segment{}, false, nil
	}

	data, err := EncodeWAV(Quantize(s.buf), s.sampleRate)
	if err != nil {
		return Segment{}, false, err
	}

	seg := Segment{
		Index:    s.next,
		Data:     data,
		Duration: time.Duration(len(s.buf)) * time.Second / time.Duration(s.sampleRate),
	}
	s.next++
	s.buf = s.buf[:0]
	return seg, true, nil
}
