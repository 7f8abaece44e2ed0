package indicator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
	cueError
)

const (
	cueSampleRate = 16000
	cueGap        = 22 * time.Millisecond
)

// tone is one beep of a cue.
type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

// Rising for start and complete, falling for stop and cancel, a flat
// double beep for errors.
var cuePatterns = map[cueKind][]tone{
	cueStart:    {{hz: 880, length: 70 * time.Millisecond, gain: 0.18}, {hz: 1175, length: 70 * time.Millisecond, gain: 0.18}},
	cueStop:     {{hz: 620, length: 120 * time.Millisecond, gain: 0.18}},
	cueComplete: {{hz: 740, length: 65 * time.Millisecond, gain: 0.18}, {hz: 988, length: 90 * time.Millisecond, gain: 0.18}},
	cueCancel:   {{hz: 480, length: 75 * time.Millisecond, gain: 0.18}, {hz: 360, length: 90 * time.Millisecond, gain: 0.18}},
	cueError:    {{hz: 330, length: 110 * time.Millisecond, gain: 0.2}, {hz: 330, length: 110 * time.Millisecond, gain: 0.2}},
}

var (
	renderCues  sync.Once
	renderedPCM map[cueKind][]int16
)

// cueSamples returns the rendered PCM for kind, or nil for unknown kinds.
func cueSamples(kind cueKind) []int16 {
	renderCues.Do(func() {
		renderedPCM = make(map[cueKind][]int16, len(cuePatterns))
		for k, pattern := range cuePatterns {
			renderedPCM[k] = renderPattern(pattern)
		}
	})
	return renderedPCM[kind]
}

func emitCue(kind cueKind) error {
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}
	return playPCM(samples)
}

// pcmSource feeds a fixed sample slice to a playback stream.
type pcmSource struct {
	samples []int16
}

func (s *pcmSource) read(buf []int16) (int, error) {
	n := copy(buf, s.samples)
	s.samples = s.samples[n:]
	if len(s.samples) == 0 {
		return n, pulse.EndOfData
	}
	return n, nil
}

// playPCM plays mono samples on the default sink and blocks until drained.
func playPCM(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("tccc"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	source := &pcmSource{samples: samples}
	stream, err := client.NewPlayback(
		pulse.Int16Reader(source.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("tccc indicator cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// renderPattern concatenates the tones of a cue with cueGap silence between
// them.
func renderPattern(pattern []tone) []int16 {
	var pcm []int16
	for i, t := range pattern {
		if i > 0 {
			pcm = append(pcm, make([]int16, sampleCount(cueGap))...)
		}
		pcm = append(pcm, t.render()...)
	}
	return pcm
}

// render synthesizes a sine with a linear attack and release of at most 5ms.
func (t tone) render() []int16 {
	n := sampleCount(t.length)
	if n <= 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}

	ramp := float64(min(max(n/10, 1), cueSampleRate/200))
	step := 2 * math.Pi * t.hz / cueSampleRate
	pcm := make([]int16, n)
	for i := range pcm {
		envelope := math.Min(1, math.Min(float64(i)/ramp, float64(n-1-i)/ramp))
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * t.gain * envelope * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
