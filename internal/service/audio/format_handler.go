package audio

import "github.com/mihirpathak97/Rainbow/internal/model"

// FormatHandler writes tags for one container family. UpdateTags leaves
// fields whose argument is nil untouched.
type FormatHandler interface {
	Format() string
	WriteTrack(filePath string, meta *model.TrackMetadata) error
	UpdateTags(filePath string, title, artist, album *string) error
}

// tagField is one named value in a container's field mapping.
type tagField struct {
	Key   string
	Value string
}
