package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Capture format: 16 kHz mono signed 16-bit little endian.
const (
	SampleRate     = 16000
	Channels       = 1
	BytesPerSecond = SampleRate * Channels * 2

	fragmentSizeBytes = 640 // 20ms
)

// CaptureOptions bounds one recording.
type CaptureOptions struct {
	// MaxBytes caps buffered PCM; zero means unbounded.
	MaxBytes int64
}

// Capture buffers PCM from one selected Pulse source until stopped.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	stopCh chan struct{}

	mu        sync.Mutex
	rawPCM    []byte
	maxBytes  int64
	truncated bool
	stopped   bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// StartCapture opens the selected source and starts recording. The device is
// released when Stop is called or ctx ends.
func StartCapture(ctx context.Context, selected Device, opts CaptureOptions) (*Capture, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := &Capture{
		device:   selected,
		client:   client,
		stopCh:   make(chan struct{}),
		maxBytes: opts.MaxBytes,
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentSizeBytes),
		pulse.RecordMediaName("tccc casualty dictation"),
	)
	if err != nil {
		capture.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = capture.Stop()
		case <-capture.stopCh:
		}
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// BytesCaptured reports bytes accepted into the buffer.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Truncated reports whether PCM was dropped after MaxBytes was reached.
func (c *Capture) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}

// RawPCM returns a snapshot of the buffered PCM.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.rawPCM))
	copy(out, c.rawPCM)
	return out
}

// Stop halts the stream and releases the device. Safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()
	return nil
}

// Close is a convenience alias for Stop.
func (c *Capture) Close() {
	_ = c.Stop()
}

func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Add under the same lock as stopped so Stop's Wait cannot race it.
	c.inflight.Add(1)
	defer c.inflight.Done()

	accepted := buffer
	if c.maxBytes > 0 {
		room := c.maxBytes - int64(len(c.rawPCM))
		if room < 0 {
			room = 0
		}
		if int64(len(accepted)) > room {
			accepted = accepted[:room]
			c.truncated = true
		}
	}
	c.rawPCM = append(c.rawPCM, accepted...)
	c.mu.Unlock()

	c.bytes.Add(int64(len(accepted)))
	return len(buffer), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
