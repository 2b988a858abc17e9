package buffer

import (
	"bytes"
	"sync"
	"time"
)

// Line is one captured log line
type Line struct {
	Timestamp int64 // unix nanoseconds
	Message   string
}

// Buffer is a thread-safe bounded buffer of log lines. It implements
// io.Writer so a zerolog logger can tee into it.
type Buffer struct {
	mu      sync.Mutex
	lines   []Line
	maxSize int
	dropped int
	now     func() time.Time
}

// New creates a buffer holding at most maxSize lines
func New(maxSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Buffer{
		lines:   make([]Line, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Write stores p as one line. zerolog issues one Write per event.
func (b *Buffer) Write(p []byte) (int, error) {
	msg := string(bytes.TrimRight(p, "\n"))
	if msg == "" {
		return len(p), nil
	}
	b.Add(Line{Timestamp: b.now().UnixNano(), Message: msg})
	return len(p), nil
}

// Add appends a line, dropping the oldest when full
func (b *Buffer) Add(line Line) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) >= b.maxSize {
		b.lines = b.lines[1:]
		b.dropped++
	}
	b.lines = append(b.lines, line)
}

// Flush returns and removes up to batchSize of the oldest lines
func (b *Buffer) Flush(batchSize int) []Line {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) == 0 || batchSize <= 0 {
		return nil
	}

	count := min(batchSize, len(b.lines))
	batch := make([]Line, count)
	copy(batch, b.lines[:count])
	b.lines = b.lines[count:]

	return batch
}

// Len returns the number of buffered lines
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Dropped returns how many lines were discarded since the last call
// and resets the counter.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.dropped
	b.dropped = 0
	return n
}
