package stream

import "bytes"

// DataPrefix marks a frame whose remainder is a JSON event payload.
// A single space after the colon is optional.
const DataPrefix = "data:"

// maxDelimiterWidth is the widest blank line, two CRLF terminators.
const maxDelimiterWidth = 4

// Frame is one complete server-sent event unit cut from the upstream byte stream.
type Frame struct {
	// Raw holds the frame exactly as received, delimiter included.
	Raw []byte
	// Body is Raw without the trailing delimiter.
	Body []byte
}

// Empty reports whether the frame carries nothing but whitespace.
func (f Frame) Empty() bool {
	return len(bytes.TrimSpace(f.Body)) == 0
}

// Data returns the payload after the data prefix, if the frame has one.
func (f Frame) Data() ([]byte, bool) {
	payload, found := bytes.CutPrefix(f.Body, []byte(DataPrefix))
	if !found {
		return nil, false
	}
	payload = bytes.TrimPrefix(payload, []byte(" "))
	return bytes.TrimRight(payload, "\r"), true
}

// FrameBuffer accumulates upstream bytes until a blank-line delimiter completes a frame.
// It is owned by a single stream and is not safe for concurrent use.
type FrameBuffer struct {
	buf []byte
	// scanned counts leading bytes already searched without finding a delimiter.
	scanned int
	// ended is set once no more bytes will arrive, which settles a trailing CR.
	ended bool
}

// NewFrameBuffer returns an empty buffer with the given initial capacity.
func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{buf: make([]byte, 0, capacity)}
}

// Write appends p to the buffer. It never fails.
func (b *FrameBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// End marks the input as complete so a trailing CR counts as a terminator.
func (b *FrameBuffer) End() {
	b.ended = true
}

// Next removes and returns the oldest complete frame.
func (b *FrameBuffer) Next() (Frame, bool) {
	// A delimiter may straddle the previous scan boundary.
	start := b.scanned - (maxDelimiterWidth - 1)
	if start < 0 {
		start = 0
	}
	if start > 0 && b.buf[start] == '\n' && b.buf[start-1] == '\r' {
		start--
	}

	end, width := findDelimiter(b.buf[start:], b.ended)
	if end < 0 {
		b.scanned = len(b.buf)
		return Frame{}, false
	}
	end += start

	size := end + width
	raw := make([]byte, size)
	copy(raw, b.buf[:size])

	remaining := copy(b.buf, b.buf[size:])
	b.buf = b.buf[:remaining]
	b.scanned = 0

	return Frame{Raw: raw, Body: raw[:end]}, true
}

// Len returns the number of buffered bytes that do not yet form a frame.
func (b *FrameBuffer) Len() int {
	return len(b.buf)
}

// Pending returns a copy of the buffered bytes.
func (b *FrameBuffer) Pending() []byte {
	return bytes.Clone(b.buf)
}

// findDelimiter returns the index and width of the earliest blank line in p.
// Lines end in CRLF, LF or a lone CR, and a blank line is two terminators in a
// row under any mix of those. Unless final is set, a CR at the end of p may
// still become CRLF, so the search reports nothing until the next byte arrives.
func findDelimiter(p []byte, final bool) (int, int) {
	for i := 0; i < len(p); i++ {
		first := terminatorWidth(p, i, final)
		if first <= 0 {
			if first < 0 {
				return -1, 0
			}
			continue
		}

		second := terminatorWidth(p, i+first, final)
		switch {
		case second < 0:
			return -1, 0
		case second > 0:
			return i, first + second
		}
		i += first - 1
	}
	return -1, 0
}

// terminatorWidth returns the width of the line terminator starting at p[i],
// zero when there is none and -1 when a trailing CR leaves it undecided.
func terminatorWidth(p []byte, i int, final bool) int {
	if i >= len(p) {
		return 0
	}
	switch p[i] {
	case '\n':
		return 1
	case '\r':
		if i+1 == len(p) {
			if final {
				return 1
			}
			return -1
		}
		if p[i+1] == '\n' {
			return 2
		}
		return 1
	}
	return 0
}
