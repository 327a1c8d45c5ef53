package model

import (
	"strconv"
	"strings"
)

// CoverArt is an encoded image ready to embed.
type CoverArt struct {
	Data     []byte
	MIMEType string
}

// TrackMetadata is the record assembled from the catalog service. Pointer
// fields are best-effort values that may be absent.
type TrackMetadata struct {
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	TotalTracks int
	DiscNumber  int
	ReleaseDate string
	Media       string
	Publisher   string
	Website     string
	DurationMS  int

	Genre     *string
	Copyright *string
	ISRC      *string
	CoverArt  *CoverArt
}

// Year is the leading year of ReleaseDate, or 0.
func (t *TrackMetadata) Year() int {
	if len(t.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(t.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// LengthSeconds renders the duration in seconds the way it is stored in the
// length field, e.g. "215.213".
func (t *TrackMetadata) LengthSeconds() string {
	return strconv.FormatFloat(float64(t.DurationMS)/1000, 'f', -1, 64)
}

// MonthDay returns the release date's month and day as "DDMM" when the date
// carries them.
func (t *TrackMetadata) MonthDay() (string, bool) {
	parts := strings.Split(t.ReleaseDate, "-")
	if len(parts) != 3 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return "", false
	}
	return parts[2] + parts[1], true
}
