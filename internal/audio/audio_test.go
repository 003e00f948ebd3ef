package audio

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame is an MPEG-1 Layer III frame at 128 kbit/s and 44.1 kHz with a
// silent body: 417 bytes, 1152 samples.
func frame() []byte {
	f := make([]byte, 417)
	copy(f, []byte{0xFF, 0xFB, 0x90, 0x00})
	return f
}

func mp3Data(frames int) []byte {
	var buf bytes.Buffer
	for i := 0; i < frames; i++ {
		buf.Write(frame())
	}
	return buf.Bytes()
}

func id3v1(title, artist string) []byte {
	t := make([]byte, 128)
	copy(t, "TAG")
	copy(t[3:33], title)
	copy(t[33:63], artist)
	return t
}

func TestDurationSumsFrames(t *testing.T) {
	d, err := Duration(bytes.NewReader(mp3Data(100)))
	require.NoError(t, err)

	want := 100 * 1152 * time.Second / 44100
	assert.InDelta(t, want.Seconds(), d.Seconds(), 0.01)
}

func TestDurationRejectsNonAudio(t *testing.T) {
	_, err := Duration(bytes.NewReader(make([]byte, 2048)))
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestProbeReadsTags(t *testing.T) {
	data := append(mp3Data(100), id3v1("Kesariya", "Arijit Singh")...)

	info, err := Probe(data)
	require.NoError(t, err)

	assert.Equal(t, "Arijit Singh", info.Artist)
	assert.Equal(t, "Kesariya", info.Title)
	assert.Equal(t, 3, info.DurationSeconds())
}

func TestProbeWithoutTags(t *testing.T) {
	info, err := Probe(mp3Data(10))
	require.NoError(t, err)

	assert.Empty(t, info.Artist)
	assert.Equal(t, 1, info.DurationSeconds())
}
