package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// MediaTypeWAV is the media type of clips recorded from a device.
const MediaTypeWAV = "audio/wav"

var mediaTypes = map[string]string{
	".wav":  MediaTypeWAV,
	".mp3":  "audio/mpeg",
	".mpga": "audio/mpeg",
	".mpeg": "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
}

var extensions = map[string]string{
	MediaTypeWAV: ".wav",
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/ogg":  ".ogg",
	"audio/webm": ".webm",
	"audio/flac": ".flac",
}

// Clip is one finished recording: an opaque payload plus its media type.
type Clip struct {
	Data      []byte
	MediaType string
}

// Empty reports whether the clip carries no audio payload.
func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

// Filename returns the upload name for the clip; the extension tells the
// speech service how to decode it.
func (c Clip) Filename() string {
	if ext, ok := extensions[c.MediaType]; ok {
		return "recording" + ext
	}
	return "recording.wav"
}

// Duration decodes the playback length of WAV clips.
func (c Clip) Duration() (time.Duration, error) {
	if c.MediaType != MediaTypeWAV {
		return 0, fmt.Errorf("duration unsupported for %s", c.MediaType)
	}
	decoder := wav.NewDecoder(bytes.NewReader(c.Data))
	if !decoder.IsValidFile() {
		return 0, errors.New("invalid wav payload")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("locate wav data: %w", err)
	}
	if decoder.AvgBytesPerSec == 0 {
		return 0, errors.New("wav header has zero byte rate")
	}
	return time.Duration(int64(decoder.PCMSize) * int64(time.Second) / int64(decoder.AvgBytesPerSec)), nil
}

// EncodeWAV wraps s16le PCM into a WAV clip.
func EncodeWAV(pcm []byte, sampleRate int, channels int) (Clip, error) {
	if len(pcm) < 2 {
		return Clip{}, errors.New("no pcm samples to encode")
	}
	if channels <= 0 {
		channels = 1
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	out := &seekBuffer{}
	encoder := wav.NewEncoder(out, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return Clip{}, fmt.Errorf("encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return Clip{}, fmt.Errorf("finalize wav: %w", err)
	}

	return Clip{Data: out.Bytes(), MediaType: MediaTypeWAV}, nil
}

// LoadClip reads an audio file from disk, inferring its media type from the
// extension.
func LoadClip(path string) (Clip, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mediaType, ok := mediaTypes[ext]
	if !ok {
		return Clip{}, fmt.Errorf("unsupported audio file extension %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read audio file: %w", err)
	}

	clip := Clip{Data: data, MediaType: mediaType}
	if mediaType == MediaTypeWAV && len(data) > 0 {
		if !wav.NewDecoder(bytes.NewReader(data)).IsValidFile() {
			return Clip{}, fmt.Errorf("%s is not a valid wav file", path)
		}
	}
	return clip, nil
}

// seekBuffer is an in-memory io.WriteSeeker for the wav encoder, which
// rewrites the header sizes on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(b.pos) + offset
	case io.SeekEnd:
		next = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, errors.New("negative seek position")
	}
	b.pos = int(next)
	return next, nil
}

func (b *seekBuffer) Bytes() []byte {
	return append([]byte(nil), b.data...)
}
