package audio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/mihirpathak97/Rainbow/internal/model"
)

// vorbisFields maps FLAC field names to Vorbis comment keys.
var vorbisFields = map[string]string{
	"title":        flacvorbis.FIELD_TITLE,
	"artist":       flacvorbis.FIELD_ARTIST,
	"albumartist":  "ALBUMARTIST",
	"album":        flacvorbis.FIELD_ALBUM,
	"tracknumber":  flacvorbis.FIELD_TRACKNUMBER,
	"tracktotal":   "TRACKTOTAL",
	"discnumber":   "DISCNUMBER",
	"date":         flacvorbis.FIELD_DATE,
	"originaldate": "ORIGINALDATE",
	"genre":        flacvorbis.FIELD_GENRE,
	"copyright":    flacvorbis.FIELD_COPYRIGHT,
	"isrc":         flacvorbis.FIELD_ISRC,
	"organization": flacvorbis.FIELD_ORGANIZATION,
}

func flacFields(meta *model.TrackMetadata) []tagField {
	fields := []tagField{
		{"title", meta.Title},
		{"artist", meta.Artist},
		{"albumartist", meta.Artist},
		{"album", meta.Album},
		{"tracknumber", strconv.Itoa(meta.TrackNumber)},
		{"tracktotal", strconv.Itoa(meta.TotalTracks)},
		{"discnumber", strconv.Itoa(meta.DiscNumber)},
		{"date", meta.ReleaseDate},
		{"originaldate", meta.ReleaseDate},
		{"organization", meta.Publisher},
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

type flacHandler struct{}

func newFLACHandler() *flacHandler {
	return &flacHandler{}
}

func (h *flacHandler) Format() string {
	return "FLAC"
}

func (h *flacHandler) WriteTrack(filePath string, meta *model.TrackMetadata) error {
	var comments []tagField
	for _, f := range flacFields(meta) {
		if f.Value != "" {
			comments = append(comments, tagField{vorbisFields[f.Key], f.Value})
		}
	}
	return h.write(filePath, comments, meta.CoverArt)
}

func (h *flacHandler) UpdateTags(filePath string, title, artist, album *string) error {
	var comments []tagField
	if title != nil {
		comments = append(comments, tagField{flacvorbis.FIELD_TITLE, *title})
	}
	if artist != nil {
		comments = append(comments, tagField{flacvorbis.FIELD_ARTIST, *artist})
	}
	if album != nil {
		comments = append(comments, tagField{flacvorbis.FIELD_ALBUM, *album})
	}
	return h.write(filePath, comments, nil)
}

// write replaces every comment whose key appears in comments, and the front
// cover when cover is given. Empty values clear the key.
func (h *flacHandler) write(filePath string, comments []tagField, cover *model.CoverArt) error {
	return preserveModTime(filePath, func() error {
		f, err := parseFLAC(filePath)
		if err != nil {
			return fmt.Errorf("failed to parse FLAC file: %w", err)
		}

		var vorbisComment *flacvorbis.MetaDataBlockVorbisComment
		vorbisIndex := -1

		for i, meta := range f.Meta {
			if meta.Type == flac.VorbisComment {
				vorbisComment, err = flacvorbis.ParseFromMetaDataBlock(*meta)
				if err != nil {
					continue
				}
				vorbisIndex = i
				break
			}
		}

		if vorbisComment == nil {
			vorbisComment = flacvorbis.New()
			vorbisIndex = -1
		}

		replaced := make(map[string]bool, len(comments))
		for _, c := range comments {
			replaced[strings.ToUpper(c.Key)] = true
		}

		kept := []string{}
		for _, comment := range vorbisComment.Comments {
			key, _, _ := strings.Cut(comment, "=")
			if !replaced[strings.ToUpper(key)] {
				kept = append(kept, comment)
			}
		}
		vorbisComment.Comments = kept

		for _, c := range comments {
			if c.Value == "" {
				continue
			}
			if err := vorbisComment.Add(c.Key, c.Value); err != nil {
				return fmt.Errorf("failed to add %s comment: %w", c.Key, err)
			}
		}

		marshaledBlock := vorbisComment.Marshal()
		if vorbisIndex >= 0 {
			f.Meta[vorbisIndex] = &marshaledBlock
		} else {
			f.Meta = append(f.Meta, &marshaledBlock)
		}

		if cover != nil && len(cover.Data) > 0 {
			if err := replaceFrontCover(f, cover); err != nil {
				return err
			}
		}

		if err := f.Save(filePath); err != nil {
			return fmt.Errorf("failed to save FLAC file: %w", err)
		}
		return nil
	})
}

// parseFLAC reads the metadata blocks and the frame data that follows them.
// flac.ParseFile panics when nothing follows the last block, so the frames
// are checked here.
func parseFLAC(filePath string) (*flac.File, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	f, err := flac.ParseMetadata(r)
	if err != nil {
		return nil, err
	}

	frames, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(frames) < 2 || frames[0] != 0xFF || frames[1]>>2 != 0x3E {
		return nil, flac.ErrorNoSyncCode
	}
	f.Frames = frames
	return f, nil
}

func replaceFrontCover(f *flac.File, cover *model.CoverArt) error {
	picture, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		coverDescription,
		cover.Data,
		normalizeMimeType(cover.MIMEType),
	)
	if err != nil {
		return fmt.Errorf("failed to build cover picture: %w", err)
	}

	kept := make([]*flac.MetaDataBlock, 0, len(f.Meta))
	for _, meta := range f.Meta {
		if meta.Type == flac.Picture {
			existing, err := flacpicture.ParseFromMetaDataBlock(*meta)
			if err == nil && existing.PictureType == flacpicture.PictureTypeFrontCover {
				continue
			}
		}
		kept = append(kept, meta)
	}

	block := picture.Marshal()
	f.Meta = append(kept, &block)
	return nil
}

func getFLACHandler(ext string) FormatHandler {
	ext = strings.ToUpper(ext)
	if ext == "FLAC" {
		return newFLACHandler()
	}
	return nil
}
