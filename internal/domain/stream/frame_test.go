package stream

import (
	"strings"
	"testing"
)

func drain(b *FrameBuffer) []Frame {
	var frames []Frame
	for {
		frame, ok := b.Next()
		if !ok {
			return frames
		}
		frames = append(frames, frame)
	}
}

func TestFrameBufferSplitsOnBlankLine(t *testing.T) {
	b := NewFrameBuffer(16)
	_, _ = b.Write([]byte("data: {\"event\":\"message\"}\n\ndata: {\"event\":\"ping\"}\n\ndata: par"))

	frames := drain(b)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if string(frames[0].Raw) != "data: {\"event\":\"message\"}\n\n" {
		t.Fatalf("unexpected first frame %q", frames[0].Raw)
	}
	if string(frames[1].Body) != "data: {\"event\":\"ping\"}" {
		t.Fatalf("unexpected second body %q", frames[1].Body)
	}
	if string(b.Pending()) != "data: par" {
		t.Fatalf("unexpected pending bytes %q", b.Pending())
	}
}

func TestFrameBufferMixedLineTerminators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		raws  []string
	}{
		{name: "lf then crlf", input: "data: a\n\r\ndata: b\n\n", raws: []string{"data: a\n\r\n", "data: b\n\n"}},
		{name: "crlf then lf", input: "data: a\r\n\ndata: b\r\n\r\n", raws: []string{"data: a\r\n\n", "data: b\r\n\r\n"}},
		{name: "cr only", input: "data: a\r\rdata: b\r\r", raws: []string{"data: a\r\r"}},
		{name: "lf then cr", input: "data: a\n\rdata: b\n\n", raws: []string{"data: a\n\r", "data: b\n\n"}},
		{name: "crlf then cr", input: "data: a\r\n\rdata: b\n\n", raws: []string{"data: a\r\n\r", "data: b\n\n"}},
		{name: "cr then crlf", input: "data: a\r\r\ndata: b\n\n", raws: []string{"data: a\r\r\n", "data: b\n\n"}},
		{name: "crlf inside a line is one terminator", input: "event: x\r\ndata: a\r\n\r\n", raws: []string{"event: x\r\ndata: a\r\n\r\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewFrameBuffer(8)
			_, _ = b.Write([]byte(tt.input))

			frames := drain(b)
			if len(frames) != len(tt.raws) {
				t.Fatalf("expected %d frames, got %d", len(tt.raws), len(frames))
			}
			for i, raw := range tt.raws {
				if string(frames[i].Raw) != raw {
					t.Fatalf("frame %d: expected raw %q, got %q", i, raw, frames[i].Raw)
				}
				if body := strings.TrimRight(raw, "\r\n"); string(frames[i].Body) != body {
					t.Fatalf("frame %d: expected body %q, got %q", i, body, frames[i].Body)
				}
			}
		})
	}
}

func TestFrameBufferTrailingCRWaitsForNextByte(t *testing.T) {
	b := NewFrameBuffer(8)
	_, _ = b.Write([]byte("data: a\r\n\r"))
	if frames := drain(b); len(frames) != 0 {
		t.Fatalf("expected frame to wait on trailing CR, got %q", frames[0].Raw)
	}

	_, _ = b.Write([]byte("\ndata: b"))
	frames := drain(b)
	if len(frames) != 1 || string(frames[0].Raw) != "data: a\r\n\r\n" {
		t.Fatalf("unexpected frames %v", frames)
	}
	if string(b.Pending()) != "data: b" {
		t.Fatalf("unexpected pending bytes %q", b.Pending())
	}
}

func TestFrameBufferEndSettlesTrailingCR(t *testing.T) {
	b := NewFrameBuffer(8)
	_, _ = b.Write([]byte("data: a\n\r"))
	if frames := drain(b); len(frames) != 0 {
		t.Fatalf("expected no frame before end, got %d", len(frames))
	}

	b.End()
	frames := drain(b)
	if len(frames) != 1 || string(frames[0].Raw) != "data: a\n\r" {
		t.Fatalf("unexpected frames %v", frames)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", b.Len())
	}
}

func TestFrameBufferDelimiterAcrossWrites(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		raw    string
	}{
		{name: "lf split", chunks: []string{"data: a\n", "\n"}, raw: "data: a\n\n"},
		{name: "crlf split", chunks: []string{"data: a\r\n\r", "\n"}, raw: "data: a\r\n\r\n"},
		{name: "crlf split early", chunks: []string{"data: a\r", "\n\r\n"}, raw: "data: a\r\n\r\n"},
		{name: "lf then crlf split", chunks: []string{"data: a\n\r", "\n"}, raw: "data: a\n\r\n"},
		{name: "crlf then lf split", chunks: []string{"data: a\r", "\n", "\n"}, raw: "data: a\r\n\n"},
		{name: "byte at a time", chunks: []string{"d", "a", "t", "a", ":", " ", "x", "\n", "\n"}, raw: "data: x\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewFrameBuffer(4)
			var frames []Frame
			for _, c := range tt.chunks {
				_, _ = b.Write([]byte(c))
				frames = append(frames, drain(b)...)
			}
			if len(frames) != 1 {
				t.Fatalf("expected 1 frame, got %d", len(frames))
			}
			if string(frames[0].Raw) != tt.raw {
				t.Fatalf("expected raw %q, got %q", tt.raw, frames[0].Raw)
			}
			if b.Len() != 0 {
				t.Fatalf("expected empty buffer, got %d bytes", b.Len())
			}
		})
	}
}

func TestFrameData(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		data   string
		isData bool
		empty  bool
	}{
		{name: "data frame", body: `data: {"event":"ping"}`, data: `{"event":"ping"}`, isData: true},
		{name: "data frame with cr", body: "data: {}\r", data: "{}", isData: true},
		{name: "comment", body: ": keep-alive"},
		{name: "event line", body: "event: ping"},
		{name: "prefix without space", body: "data:{}", data: "{}", isData: true},
		{name: "only one space stripped", body: "data:  {}", data: " {}", isData: true},
		{name: "blank", body: "\r\n", empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Frame{Raw: []byte(tt.body + "\n\n"), Body: []byte(tt.body)}
			data, ok := frame.Data()
			if ok != tt.isData {
				t.Fatalf("expected data=%v, got %v", tt.isData, ok)
			}
			if ok && string(data) != tt.data {
				t.Fatalf("expected payload %q, got %q", tt.data, data)
			}
			if frame.Empty() != tt.empty {
				t.Fatalf("expected empty=%v", tt.empty)
			}
		})
	}
}
