// Package embed writes catalog metadata into audio files.
package embed

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/fatih/color"
	"github.com/mihirpathak97/Rainbow/internal/catalog"
	"github.com/mihirpathak97/Rainbow/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Catalog interface {
	GetTrack(ctx context.Context, id string) (*catalog.Track, error)
	GetArtist(ctx context.Context, id string) (*catalog.Artist, error)
	GetAlbum(ctx context.Context, id string) (*catalog.Album, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

type TagWriter interface {
	Supported(filePath string) bool
	WriteTrack(filePath string, meta *model.TrackMetadata) error
}

type Embedder struct {
	catalog Catalog
	tags    TagWriter
	log     logrus.FieldLogger
	out     io.Writer
}

func New(c Catalog, tags TagWriter, log logrus.FieldLogger, out io.Writer) *Embedder {
	if out == nil {
		out = color.Output
	}
	return &Embedder{catalog: c, tags: tags, log: log, out: out}
}

// FetchAndWrite looks trackID up in the catalog and writes the result into
// filePath. Failures are reported on the console; only the outcome is
// returned.
func (e *Embedder) FetchAndWrite(ctx context.Context, filePath, trackID string) bool {
	log := e.log.WithFields(logrus.Fields{"file": filePath, "track_id": trackID})

	if !e.tags.Supported(filePath) {
		color.New(color.FgRed).Fprintf(e.out, "Unsupported file type: %s\n", filePath)
		return false
	}

	meta, err := e.Fetch(ctx, trackID)
	if err != nil {
		log.WithError(err).Error("catalog track request failed")
		color.New(color.FgRed).Fprintln(e.out, "Error requesting from catalog")
		return false
	}

	if err := e.tags.WriteTrack(filePath, meta); err != nil {
		log.WithError(err).Error("failed to write tags")
		color.New(color.FgRed).Fprintf(e.out, "Could not write metadata to %s\n", filePath)
		return false
	}

	log.WithField("title", meta.Title).Info("metadata written")
	color.New(color.FgGreen).Fprintln(e.out, "Finished fixing metadata")
	return true
}

// Fetch assembles the metadata record for trackID. Only the track request
// can fail it; artist, album and cover failures leave those fields empty.
func (e *Embedder) Fetch(ctx context.Context, trackID string) (*model.TrackMetadata, error) {
	track, err := e.catalog.GetTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}

	var (
		artist *catalog.Artist
		album  *catalog.Album
	)

	g, gctx := errgroup.WithContext(ctx)
	if id := track.PrimaryArtist().ID; id != "" {
		g.Go(func() error {
			a, err := e.catalog.GetArtist(gctx, id)
			if err != nil {
				e.log.WithError(err).WithField("artist_id", id).Warn("artist request failed")
				return nil
			}
			artist = a
			return nil
		})
	}
	if id := track.Album.ID; id != "" {
		g.Go(func() error {
			a, err := e.catalog.GetAlbum(gctx, id)
			if err != nil {
				e.log.WithError(err).WithField("album_id", id).Warn("album request failed")
				return nil
			}
			album = a
			return nil
		})
	}
	_ = g.Wait()

	meta := buildMetadata(track, artist, album)
	meta.CoverArt = e.cover(ctx, track, album)
	return meta, nil
}

func buildMetadata(track *catalog.Track, artist *catalog.Artist, album *catalog.Album) *model.TrackMetadata {
	meta := &model.TrackMetadata{
		Title:       track.Name,
		Artist:      track.PrimaryArtist().Name,
		Album:       track.Album.Name,
		TrackNumber: track.TrackNumber,
		DiscNumber:  track.DiscNumber,
		ReleaseDate: track.Album.ReleaseDate,
		Media:       track.Type,
		Website:     track.ExternalURLs["spotify"],
		DurationMS:  track.DurationMS,
	}

	if isrc := track.ExternalIDs["isrc"]; isrc != "" {
		meta.ISRC = &isrc
	}

	if artist != nil && len(artist.Genres) > 0 {
		genre := cases.Title(language.English).String(artist.Genres[0])
		meta.Genre = &genre
	}

	if album != nil {
		if album.ReleaseDate != "" {
			meta.ReleaseDate = album.ReleaseDate
		}
		meta.Publisher = album.Label
		meta.TotalTracks = album.Tracks.Total
		if len(album.Copyrights) > 0 {
			text := album.Copyrights[0].Text
			meta.Copyright = &text
		}
	}

	return meta
}

// cover downloads the first album image. Anything that does not decode as
// an image is dropped.
func (e *Embedder) cover(ctx context.Context, track *catalog.Track, album *catalog.Album) *model.CoverArt {
	images := track.Album.Images
	if len(images) == 0 && album != nil {
		images = album.Images
	}
	if len(images) == 0 {
		return nil
	}

	data, _, err := e.catalog.Download(ctx, images[0].URL)
	if err != nil {
		e.log.WithError(err).Debug("cover download failed")
		return nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		e.log.WithError(err).Debug("cover is not a usable image")
		return nil
	}
	return &model.CoverArt{Data: data, MIMEType: "image/" + format}
}
