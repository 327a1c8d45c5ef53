package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mihirpathak97/Rainbow/internal/model"
)

type AudioService struct{}

func NewAudioService() *AudioService {
	return &AudioService{}
}

// Supported reports whether tags can be written to filePath.
func (s *AudioService) Supported(filePath string) bool {
	return getFormatHandlerByExtension(extension(filePath)) != nil
}

func (s *AudioService) ParseFile(filePath string) (*model.FileTags, error) {
	result, err := parseFileWithTag(filePath)
	if err != nil {
		return result, err
	}

	if result.Format == string(tag.FLAC) {
		flacTags, err := parseFLACWithAudiometa(filePath)
		if err == nil {
			mergeTags(result, flacTags)
		}
	}

	return result, nil
}

func (s *AudioService) WriteTrack(filePath string, meta *model.TrackMetadata) error {
	handler, err := handlerFor(filePath)
	if err != nil {
		return err
	}
	return handler.WriteTrack(filePath, meta)
}

func (s *AudioService) UpdateTags(filePath string, title, artist, album *string) error {
	handler, err := handlerFor(filePath)
	if err != nil {
		return err
	}
	return handler.UpdateTags(filePath, title, artist, album)
}

func handlerFor(filePath string) (FormatHandler, error) {
	ext := extension(filePath)
	handler := getFormatHandlerByExtension(ext)
	if handler == nil {
		return nil, fmt.Errorf("tag writing not supported for format: %s", ext)
	}
	return handler, nil
}

func extension(filePath string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(filePath), "."))
}

func getFormatHandlerByExtension(ext string) FormatHandler {
	ext = strings.ToUpper(ext)
	if handler := getMP3Handler(ext); handler != nil {
		return handler
	}
	if handler := getM4AHandler(ext); handler != nil {
		return handler
	}
	if handler := getFLACHandler(ext); handler != nil {
		return handler
	}
	return nil
}

// mergeTags overlays the text fields src carries onto dst. Numbers only
// fill gaps.
func mergeTags(dst, src *model.FileTags) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Artist != "" {
		dst.Artist = src.Artist
	}
	if src.Album != "" {
		dst.Album = src.Album
	}
	if src.Genre != "" {
		dst.Genre = src.Genre
	}
	if dst.Year == 0 {
		dst.Year = src.Year
	}
	if dst.Disc == 0 {
		dst.Disc = src.Disc
	}
}
