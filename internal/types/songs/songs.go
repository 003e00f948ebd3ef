package songs

import (
	"slices"
	"strings"
	"time"
)

// Genre is one value of the closed genre enumeration
type Genre string

const (
	GenreBollywood  Genre = "bollywood"
	GenrePunjabi    Genre = "punjabi"
	GenreNepali     Genre = "nepali"
	GenreWestern    Genre = "western"
	GenreClassics   Genre = "classics"
	GenreCover      Genre = "lyric/cover/mashup"
	GenreHipHop     Genre = "rap/hiphop"
	GenreEDM        Genre = "edm/remix"
	GenreSoundtrack Genre = "soundtrack/ost"
	GenreIndie      Genre = "independent"
	GenreUnknown    Genre = "unknown"
)

// Genres lists every supported genre
var Genres = []Genre{
	GenreBollywood, GenrePunjabi, GenreNepali, GenreWestern, GenreClassics,
	GenreCover, GenreHipHop, GenreEDM, GenreSoundtrack, GenreIndie, GenreUnknown,
}

// Valid reports whether g belongs to the genre enumeration
func (g Genre) Valid() bool {
	return slices.Contains(Genres, g)
}

// Tag is one value of the closed tag enumerations
type Tag string

// TagCategories groups the supported tags the way clients present them
var TagCategories = map[string][]Tag{
	"language":    {"hindi", "punjabi", "nepali", "english", "korean", "japanese", "spanish", "mixed"},
	"mood":        {"emotional", "calm", "energetic", "happy", "sad", "chill", "romantic", "party", "motivational"},
	"instruments": {"guitar", "piano", "electronic", "violin", "drums", "synth", "orchestra"},
	"tempo":       {"slow", "medium", "fast"},
	"vocal":       {"male", "female", "duet", "group", "instrumental"},
	"theme":       {"love", "friendship", "nature", "festive", "life", "party", "spiritual"},
}

var knownTags = func() map[Tag]struct{} {
	m := make(map[Tag]struct{})
	for _, tags := range TagCategories {
		for _, t := range tags {
			m[t] = struct{}{}
		}
	}
	return m
}()

// Valid reports whether t belongs to one of the tag enumerations
func (t Tag) Valid() bool {
	_, ok := knownTags[t]
	return ok
}

// NormalizeTags deduplicates and sorts tags so the stored set is canonical
func NormalizeTags(tags []Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		t = Tag(strings.ToLower(strings.TrimSpace(string(t))))
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// DefaultArtist is stored when neither the uploader nor the file names an artist
const DefaultArtist = "unknown artist"

// NormalizeArtist trims and lower-cases an artist name
func NormalizeArtist(artist string) string {
	return strings.ToLower(strings.TrimSpace(artist))
}

// StorageRef points at the remote artifact holding the audio
type StorageRef struct {
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
}

// Song is one uploaded media file in the catalog
type Song struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Artist          string     `json:"artist"`
	DurationSeconds int        `json:"duration_seconds"`
	PlayCount       int64      `json:"play_count"`
	StorageRef      StorageRef `json:"storage_ref"`
	OwnerID         string     `json:"owner_id"`
	Genre           Genre      `json:"genre"`
	Tags            []Tag      `json:"tags"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewSong carries the fields of a song about to be created. The store assigns
// the id and timestamps.
type NewSong struct {
	Title           string
	Artist          string
	DurationSeconds int
	StorageRef      StorageRef
	OwnerID         string
	Genre           Genre
	Tags            []Tag
}

// Patch is a partial field update. Nil fields are left untouched.
type Patch struct {
	Title  *string
	Artist *string
	Genre  *Genre
	Tags   *[]Tag
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Artist == nil && p.Genre == nil && p.Tags == nil
}
