package scanner

import (
	"context"
	"time"
)

// CandidateSource produces a lazy, restartable sequence of decoded candidate
// strings. The scanner does not care how codes are obtained; a real camera
// decoder plugs in here without touching the state machine.
type CandidateSource interface {
	Candidates(ctx context.Context) (<-chan string, error)
}

// ManualSource is a channel-backed source fed by direct text entry or a
// simulated tap.
type ManualSource struct {
	ch chan string
}

// NewManualSource creates a bounded manual source.
func NewManualSource(size int) *ManualSource {
	if size <= 0 {
		size = 16
	}
	return &ManualSource{ch: make(chan string, size)}
}

// Submit feeds one candidate into the stream.
func (m *ManualSource) Submit(ctx context.Context, candidate string) error {
	select {
	case m.ch <- candidate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Candidates streams submitted entries until the context is done.
func (m *ManualSource) Candidates(ctx context.Context) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case c := <-m.ch:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// FrameDecoder extracts a code from the current video frame, reporting ok
// only when it decoded something.
type FrameDecoder interface {
	DecodeFrame() (code string, ok bool)
}

// noopDecoder is the placeholder decoder: it never finds a code. Real
// decoding was never implemented upstream; attendance during camera use is
// driven by the manual path.
type noopDecoder struct{}

func (noopDecoder) DecodeFrame() (string, bool) { return "", false }

// CameraSource polls a FrameDecoder on an interval and emits whatever it
// decodes. Each Candidates call restarts the polling loop.
type CameraSource struct {
	Decoder  FrameDecoder
	Interval time.Duration
}

// NewCameraSource creates a camera source with the no-op decoder.
func NewCameraSource(interval time.Duration) *CameraSource {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &CameraSource{Decoder: noopDecoder{}, Interval: interval}
}

// Candidates polls the decoder until the context is done.
func (c *CameraSource) Candidates(ctx context.Context) (<-chan string, error) {
	dec := c.Decoder
	if dec == nil {
		dec = noopDecoder{}
	}
	out := make(chan string)
	go func() {
		defer close(out)
		ticker := time.NewTicker(c.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if code, ok := dec.DecodeFrame(); ok {
					select {
					case out <- code:
					case <-ctx.Done():
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
