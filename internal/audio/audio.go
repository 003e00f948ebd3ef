// Package audio inspects uploaded MP3 files.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// ErrNoFrames is returned when the data holds no decodable MP3 frame
var ErrNoFrames = errors.New("no mp3 frames found")

// Info describes an audio file
type Info struct {
	Duration time.Duration
	// Artist and Title come from the file's tags and are empty when absent
	Artist string
	Title  string
}

// DurationSeconds rounds the duration to whole seconds, never below one
func (i Info) DurationSeconds() int {
	secs := int(math.Round(i.Duration.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Probe decodes the frames of data to measure its length and reads its
// ID3 tags if there are any.
func Probe(data []byte) (Info, error) {
	d, err := Duration(bytes.NewReader(data))
	if err != nil {
		return Info{}, err
	}

	info := Info{Duration: d}
	if m, err := tag.ReadFrom(bytes.NewReader(data)); err == nil {
		info.Artist = strings.TrimSpace(m.Artist())
		info.Title = strings.TrimSpace(m.Title())
	}
	return info, nil
}

// Duration sums the duration of every frame in r
func Duration(r io.Reader) (time.Duration, error) {
	var (
		dec     = mp3.NewDecoder(r)
		frame   mp3.Frame
		skipped int
		total   time.Duration
		frames  int
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, fmt.Errorf("failed to decode mp3: %w", err)
		}
		total += frame.Duration()
		frames++
	}
	if frames == 0 {
		return 0, ErrNoFrames
	}
	return total, nil
}
