package audio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/mihirpathak97/Rainbow/internal/model"
)

// id3Frames maps MP3 field names to ID3v2.3 frame IDs.
var id3Frames = map[string]string{
	"artist":       "TPE1",
	"albumartist":  "TPE2",
	"album":        "TALB",
	"title":        "TIT2",
	"tracknumber":  "TRCK",
	"discnumber":   "TPOS",
	"date":         "TYER",
	"datemonthday": "TDAT",
	"originaldate": "TORY",
	"media":        "TMED",
	"author":       "TOLY",
	"lyricist":     "TEXT",
	"arranger":     "TPE4",
	"encodedby":    "TENC",
	"length":       "TLEN",
	"genre":        "TCON",
	"copyright":    "TCOP",
	"isrc":         "TSRC",
}

const (
	performerDescription = "PERFORMER"
	coverDescription     = "Cover"
	websiteFrame         = "WOAR"
)

// mp3Fields lists the text fields written for meta, in write order. Optional
// values that are absent are left out.
func mp3Fields(meta *model.TrackMetadata) []tagField {
	year := ""
	if y := meta.Year(); y > 0 {
		year = strconv.Itoa(y)
	}

	fields := []tagField{
		{"artist", meta.Artist},
		{"albumartist", meta.Artist},
		{"album", meta.Album},
		{"title", meta.Title},
		{"tracknumber", fmt.Sprintf("%d/%d", meta.TrackNumber, meta.TotalTracks)},
		{"discnumber", fmt.Sprintf("%d/%d", meta.DiscNumber, 0)},
		{"date", year},
		{"originaldate", year},
		{"media", meta.Media},
		{"author", meta.Artist},
		{"lyricist", meta.Artist},
		{"arranger", meta.Artist},
		{"encodedby", meta.Publisher},
		{"length", meta.LengthSeconds()},
	}
	if md, ok := meta.MonthDay(); ok {
		fields = append(fields, tagField{"datemonthday", md})
	}
	if meta.Genre != nil {
		fields = append(fields, tagField{"genre", *meta.Genre})
	}
	if meta.Copyright != nil {
		fields = append(fields, tagField{"copyright", *meta.Copyright})
	}
	if meta.ISRC != nil {
		fields = append(fields, tagField{"isrc", *meta.ISRC})
	}
	return fields
}

type mp3Handler struct{}

func newMP3Handler() *mp3Handler {
	return &mp3Handler{}
}

func (h *mp3Handler) Format() string {
	return "MP3"
}

func (h *mp3Handler) open(filePath string) (*id3v2.Tag, error) {
	tagFile, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}
	// UTF-8 frames under v2.3 still read back through dhowden/tag.
	tagFile.SetVersion(3)
	tagFile.SetDefaultEncoding(id3v2.EncodingUTF8)
	return tagFile, nil
}

func (h *mp3Handler) WriteTrack(filePath string, meta *model.TrackMetadata) error {
	return preserveModTime(filePath, func() error {
		tagFile, err := h.open(filePath)
		if err != nil {
			return err
		}
		defer tagFile.Close()

		for _, f := range mp3Fields(meta) {
			if f.Value == "" {
				continue
			}
			tagFile.AddTextFrame(id3Frames[f.Key], id3v2.EncodingUTF8, f.Value)
		}

		setUserText(tagFile, performerDescription, meta.Artist)

		tagFile.DeleteFrames(websiteFrame)
		if meta.Website != "" {
			tagFile.AddFrame(websiteFrame, id3v2.UnknownFrame{Body: []byte(meta.Website)})
		}

		if meta.CoverArt != nil && len(meta.CoverArt.Data) > 0 {
			tagFile.DeleteFrames(tagFile.CommonID("Attached picture"))
			tagFile.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    normalizeMimeType(meta.CoverArt.MIMEType),
				PictureType: id3v2.PTFrontCover,
				Description: coverDescription,
				Picture:     meta.CoverArt.Data,
			})
		}

		if err := tagFile.Save(); err != nil {
			return fmt.Errorf("failed to save tags: %w", err)
		}
		return nil
	})
}

func (h *mp3Handler) UpdateTags(filePath string, title, artist, album *string) error {
	return preserveModTime(filePath, func() error {
		tagFile, err := h.open(filePath)
		if err != nil {
			return err
		}
		defer tagFile.Close()

		if title != nil {
			tagFile.SetTitle(*title)
		}
		if artist != nil {
			tagFile.SetArtist(*artist)
		}
		if album != nil {
			tagFile.SetAlbum(*album)
		}

		if err := tagFile.Save(); err != nil {
			return fmt.Errorf("failed to save tags: %w", err)
		}
		return nil
	})
}

// setUserText replaces the TXXX frame with the given description and keeps
// every other user-defined frame.
func setUserText(tagFile *id3v2.Tag, description, value string) {
	frameID := tagFile.CommonID("User defined text information frame")
	existing := tagFile.GetFrames(frameID)
	tagFile.DeleteFrames(frameID)

	for _, f := range existing {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if ok && udtf.Description == description {
			continue
		}
		tagFile.AddFrame(frameID, f)
	}

	if value != "" {
		tagFile.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: description,
			Value:       value,
		})
	}
}

// preserveModTime runs write and restores the file's modification time.
func preserveModTime(filePath string, write func() error) error {
	stat, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	originalModTime := stat.ModTime()

	if err := write(); err != nil {
		return err
	}

	if err := os.Chtimes(filePath, originalModTime, originalModTime); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}
	return nil
}

func normalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch mimeType {
	case "image/jpg", "":
		return "image/jpeg"
	default:
		if strings.HasPrefix(mimeType, "image/") {
			return mimeType
		}
		return "image/jpeg"
	}
}

func getMP3Handler(ext string) FormatHandler {
	ext = strings.ToUpper(ext)
	if ext == "MP3" || ext == "MPEG" {
		return newMP3Handler()
	}
	return nil
}
