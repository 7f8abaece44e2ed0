package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeWAVWritesHeaderAndSamples(t *testing.T) {
	pcm := make([]byte, BytesPerSecond/10) // 100ms
	for i := 0; i < len(pcm); i += 2 {
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(i)))
	}

	clip, err := EncodeWAV(pcm, SampleRate, Channels)
	require.NoError(t, err)
	require.Equal(t, MediaTypeWAV, clip.MediaType)
	require.Equal(t, "recording.wav", clip.Filename())
	require.False(t, clip.Empty())

	require.Equal(t, "RIFF", string(clip.Data[0:4]))
	require.Equal(t, "WAVE", string(clip.Data[8:12]))
	require.Equal(t, uint32(len(clip.Data)-8), binary.LittleEndian.Uint32(clip.Data[4:8]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(clip.Data[22:24]))
	require.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(clip.Data[24:28]))

	duration, err := clip.Duration()
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, duration)
}

func TestEncodeWAVRejectsEmptyPCM(t *testing.T) {
	_, err := EncodeWAV(nil, SampleRate, Channels)
	require.Error(t, err)
	_, err = EncodeWAV([]byte{1}, SampleRate, Channels)
	require.Error(t, err)
}

func TestLoadClip(t *testing.T) {
	dir := t.TempDir()

	clip, err := EncodeWAV(make([]byte, 320), SampleRate, Channels)
	require.NoError(t, err)
	wavPath := filepath.Join(dir, "report.WAV")
	require.NoError(t, os.WriteFile(wavPath, clip.Data, 0o600))

	loaded, err := LoadClip(wavPath)
	require.NoError(t, err)
	require.Equal(t, MediaTypeWAV, loaded.MediaType)
	require.Equal(t, clip.Data, loaded.Data)

	webmPath := filepath.Join(dir, "report.webm")
	require.NoError(t, os.WriteFile(webmPath, []byte("opaque"), 0o600))
	loaded, err = LoadClip(webmPath)
	require.NoError(t, err)
	require.Equal(t, "audio/webm", loaded.MediaType)
	require.Equal(t, "recording.webm", loaded.Filename())

	_, err = LoadClip(filepath.Join(dir, "notes.txt"))
	require.ErrorContains(t, err, "unsupported audio file extension")

	badWav := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(badWav, []byte("not a wav"), 0o600))
	_, err = LoadClip(badWav)
	require.ErrorContains(t, err, "not a valid wav")

	_, err = LoadClip(filepath.Join(dir, "missing.wav"))
	require.ErrorContains(t, err, "read audio file")
}

func TestSeekBufferOverwrite(t *testing.T) {
	buf := &seekBuffer{}
	_, err := buf.Write([]byte("abcdef"))
	require.NoError(t, err)

	pos, err := buf.Seek(2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), pos)

	_, err = buf.Write([]byte("XY"))
	require.NoError(t, err)
	require.Equal(t, "abXYef", string(buf.Bytes()))

	_, err = buf.Seek(-1, 0)
	require.Error(t, err)
}
