package audio

import (
	"fmt"
	"strings"

	mp4tag "github.com/Sorrow446/go-mp4tag"
	"github.com/mihirpathak97/Rainbow/internal/model"
)

// m4aAtoms maps M4A field names to iTunes metadata atoms. comment, group,
// writer, cpil and tempo are declared but not written.
var m4aAtoms = map[string]string{
	"album":        "\xa9alb",
	"artist":       "\xa9ART",
	"date":         "\xa9day",
	"title":        "\xa9nam",
	"originaldate": "purd",
	"comment":      "\xa9cmt",
	"group":        "\xa9grp",
	"writer":       "\xa9wrt",
	"genre":        "\xa9gen",
	"tracknumber":  "trkn",
	"albumartist":  "aART",
	"disknumber":   "disk",
	"cpil":         "cpil",
	"albumart":     "covr",
	"copyright":    "cprt",
	"tempo":        "tmpo",
}

// originalDateKey is the freeform name purd is stored under.
const originalDateKey = "ORIGINALDATE"

// m4aFields lists the text atoms written for meta. Number pairs and cover
// art are handled separately in m4aTags.
func m4aFields(meta *model.TrackMetadata) []tagField {
	fields := []tagField{
		{"artist", meta.Artist},
		{"albumartist", meta.Artist},
		{"album", meta.Album},
		{"title", meta.Title},
		{"date", meta.ReleaseDate},
		{"originaldate", meta.ReleaseDate},
	}
	if meta.Genre != nil {
		fields = append(fields, tagField{"genre", *meta.Genre})
	}
	if meta.Copyright != nil {
		fields = append(fields, tagField{"copyright", *meta.Copyright})
	}
	return fields
}

func m4aTags(meta *model.TrackMetadata) *mp4tag.Tags {
	tags := &mp4tag.Tags{
		TrackNumber: meta.TrackNumber,
		TrackTotal:  meta.TotalTracks,
		DiskNumber:  meta.DiscNumber,
	}

	for _, f := range m4aFields(meta) {
		switch m4aAtoms[f.Key] {
		case "\xa9ART":
			tags.Artist = f.Value
		case "aART":
			tags.AlbumArtist = f.Value
		case "\xa9alb":
			tags.Album = f.Value
		case "\xa9nam":
			tags.Title = f.Value
		case "\xa9day":
			tags.Year = f.Value
		case "purd":
			if f.Value != "" {
				tags.Custom = map[string]string{originalDateKey: f.Value}
			}
		case "\xa9gen":
			tags.Genre = f.Value
		case "cprt":
			tags.Copyright = f.Value
		}
	}

	if meta.CoverArt != nil && len(meta.CoverArt.Data) > 0 {
		tags.Cover = meta.CoverArt.Data
	}

	return tags
}

type m4aHandler struct{}

func newM4AHandler() *m4aHandler {
	return &m4aHandler{}
}

func (h *m4aHandler) Format() string {
	return "M4A"
}

func (h *m4aHandler) WriteTrack(filePath string, meta *model.TrackMetadata) error {
	return h.write(filePath, m4aTags(meta))
}

func (h *m4aHandler) UpdateTags(filePath string, title, artist, album *string) error {
	tags := &mp4tag.Tags{}
	if title != nil {
		tags.Title = *title
	}
	if artist != nil {
		tags.Artist = *artist
	}
	if album != nil {
		tags.Album = *album
	}
	return h.write(filePath, tags)
}

// write only touches the atoms set in tags; empty fields keep their
// current value.
func (h *m4aHandler) write(filePath string, tags *mp4tag.Tags) error {
	return preserveModTime(filePath, func() error {
		if err := mp4tag.Write(filePath, tags); err != nil {
			return fmt.Errorf("failed to save tags: %w", err)
		}
		return nil
	})
}

func getM4AHandler(ext string) FormatHandler {
	ext = strings.ToUpper(ext)
	if ext == "M4A" || ext == "MP4" {
		return newM4AHandler()
	}
	return nil
}
