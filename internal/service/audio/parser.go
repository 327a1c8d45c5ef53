package audio

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mihirpathak97/Rainbow/internal/model"
	"github.com/tallenh/audiometa"
)

func extractTags(metadata tag.Metadata, filePath string) *model.FileTags {
	result := &model.FileTags{Path: filePath}
	if metadata == nil {
		return result
	}

	result.Title = metadata.Title()
	result.Artist = metadata.Artist()
	result.AlbumArtist = metadata.AlbumArtist()
	result.Album = metadata.Album()
	result.Year = metadata.Year()
	result.Genre = metadata.Genre()
	result.Track, result.TrackTotal = metadata.Track()
	result.Disc, _ = metadata.Disc()

	picture := metadata.Picture()
	result.HasCoverArt = picture != nil && len(picture.Data) > 0

	return result
}

func getFormat(fileType tag.FileType) string {
	fileTypeStr := string(fileType)
	if fileTypeStr == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(fileTypeStr)
}

func parseFileWithTag(filePath string) (*model.FileTags, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return &model.FileTags{
			Path:   filePath,
			Format: extension(filePath),
		}, fmt.Errorf("failed to read tags from file: %w", err)
	}

	result := extractTags(metadata, filePath)
	result.Format = getFormat(metadata.FileType())

	return result, nil
}

func parseFLACWithAudiometa(filePath string) (*model.FileTags, error) {
	flacTag, err := audiometa.OpenTag(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC tag: %w", err)
	}

	result := &model.FileTags{
		Path:   filePath,
		Format: string(tag.FLAC),
		Title:  flacTag.Title(),
		Artist: flacTag.Artist(),
		Album:  flacTag.Album(),
		Genre:  flacTag.Genre(),
	}

	if yearStr := flacTag.Year(); yearStr != "" {
		var year int
		if _, err := fmt.Sscanf(yearStr, "%d", &year); err == nil {
			result.Year = year
		}
	}

	if partOfSet := flacTag.PartOfSet(); partOfSet != "" {
		disc, _, _ := strings.Cut(partOfSet, "/")
		var n int
		if _, err := fmt.Sscanf(disc, "%d", &n); err == nil {
			result.Disc = n
		}
	}

	return result, nil
}
