package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultReadBufferSize = 32 * 1024
	defaultMaxFrameBytes  = 10 * 1024 * 1024 // 10MB
)

var (
	// ErrUpstream wraps transport failures of the upstream stream.
	ErrUpstream = errors.New("upstream stream failed")
	// ErrIdleTimeout is returned when the upstream stops sending bytes for too long.
	ErrIdleTimeout = errors.New("upstream stream idle timeout")
	// ErrFrameTooLarge is returned when buffered bytes exceed the frame limit without a delimiter.
	ErrFrameTooLarge = errors.New("upstream frame exceeds maximum size")
	// ErrDownstream wraps failures writing to the client.
	ErrDownstream = errors.New("downstream write failed")
)

// Sink receives forwarded frames. gin.ResponseWriter satisfies it.
type Sink interface {
	io.Writer
	Flush()
}

// Config tunes a Relay.
type Config struct {
	// IdleTimeout aborts the stream when no upstream bytes arrive for this long. Zero disables it.
	IdleTimeout    time.Duration
	MaxFrameBytes  int
	ReadBufferSize int
}

// Result summarizes one relayed stream.
type Result struct {
	// ConversationID is the id carried by the last message_end event, if any.
	ConversationID string
	Frames         int
	Bytes          int64
	ParseWarnings  int
	ErrorEvents    int
	// TrailingBytes counts bytes left without a delimiter when the upstream ended.
	TrailingBytes int
}

// Relay forwards upstream server-sent events to a client without altering them.
type Relay struct {
	cfg Config
	log zerolog.Logger
}

// NewRelay creates a relay with defaults applied to unset limits.
func NewRelay(cfg Config, log zerolog.Logger) *Relay {
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = defaultMaxFrameBytes
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = defaultReadBufferSize
	}
	return &Relay{
		cfg: cfg,
		log: log.With().Str("component", "stream-relay").Logger(),
	}
}

// WithLogger returns a copy of the relay that logs through log.
func (r *Relay) WithLogger(log zerolog.Logger) *Relay {
	return &Relay{cfg: r.cfg, log: log.With().Str("component", "stream-relay").Logger()}
}

type chunk struct {
	data []byte
	err  error
}

// Pump copies frames from upstream to sink in arrival order until the upstream
// ends, fails, goes idle or ctx is cancelled. The upstream is always closed
// and its reader goroutine has exited by the time Pump returns.
// A nil error means the upstream ended cleanly.
func (r *Relay) Pump(ctx context.Context, upstream io.ReadCloser, sink Sink) (Result, error) {
	var result Result

	chunks := make(chan chunk)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go r.readUpstream(upstream, chunks, done, &wg)

	defer func() {
		close(done)
		if err := upstream.Close(); err != nil {
			r.log.Debug().Err(err).Msg("close upstream stream")
		}
		wg.Wait()
	}()

	var idle <-chan time.Time
	var timer *time.Timer
	if r.cfg.IdleTimeout > 0 {
		timer = time.NewTimer(r.cfg.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	buffer := NewFrameBuffer(r.cfg.ReadBufferSize)

	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()

		case <-idle:
			return result, fmt.Errorf("%w: no data for %s", ErrIdleTimeout, r.cfg.IdleTimeout)

		case c := <-chunks:
			if c.err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				if errors.Is(c.err, io.EOF) {
					err := r.finish(buffer, sink, &result)
					return result, err
				}
				return result, fmt.Errorf("%w: %w", ErrUpstream, c.err)
			}

			if timer != nil {
				resetTimer(timer, r.cfg.IdleTimeout)
			}

			_, _ = buffer.Write(c.data)
			for {
				frame, ok := buffer.Next()
				if !ok {
					break
				}
				if err := r.emit(frame, sink, &result); err != nil {
					return result, err
				}
			}

			if buffer.Len() > r.cfg.MaxFrameBytes {
				return result, fmt.Errorf("%w: %d bytes buffered", ErrFrameTooLarge, buffer.Len())
			}
		}
	}
}

func (r *Relay) readUpstream(upstream io.Reader, chunks chan<- chunk, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		buf := make([]byte, r.cfg.ReadBufferSize)
		n, err := upstream.Read(buf)
		if n > 0 {
			select {
			case chunks <- chunk{data: buf[:n]}:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case chunks <- chunk{err: err}:
			case <-done:
			}
			return
		}
	}
}

func (r *Relay) emit(frame Frame, sink Sink, result *Result) error {
	if frame.Empty() {
		return nil
	}

	if data, ok := frame.Data(); ok {
		ev, err := ParseEvent(data)
		if err != nil {
			result.ParseWarnings++
			r.log.Warn().Err(err).Int("frame_bytes", len(frame.Raw)).Msg("unable to parse upstream event, forwarding raw frame")
		} else {
			if id, ok := ConversationIDOf(ev); ok {
				result.ConversationID = id
			}
			if errEvent, ok := ev.(ErrorEvent); ok {
				result.ErrorEvents++
				r.log.Warn().
					Int("status", errEvent.Status).
					Str("code", errEvent.Code).
					Str("message", errEvent.Message).
					Msg("upstream reported error event")
			}
		}
	}

	n, err := sink.Write(frame.Raw)
	result.Bytes += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownstream, err)
	}
	sink.Flush()
	result.Frames++
	return nil
}

func (r *Relay) finish(buffer *FrameBuffer, sink Sink, result *Result) error {
	buffer.End()
	for {
		frame, ok := buffer.Next()
		if !ok {
			break
		}
		if err := r.emit(frame, sink, result); err != nil {
			return err
		}
	}

	if buffer.Len() == 0 {
		return nil
	}
	pending := buffer.Pending()
	if len(bytes.TrimSpace(pending)) == 0 {
		return nil
	}
	result.TrailingBytes = len(pending)
	r.log.Warn().
		Int("trailing_bytes", len(pending)).
		Msg("upstream stream ended with an incomplete frame, dropping it")
	return nil
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
