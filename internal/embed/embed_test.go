package embed

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/mihirpathak97/Rainbow/internal/catalog"
	"github.com/mihirpathak97/Rainbow/internal/logging"
	"github.com/mihirpathak97/Rainbow/internal/model"
)

type fakeCatalog struct {
	track     *catalog.Track
	artist    *catalog.Artist
	album     *catalog.Album
	image     []byte
	trackErr  error
	artistErr error
	albumErr  error
	imageErr  error
}

func (f *fakeCatalog) GetTrack(ctx context.Context, id string) (*catalog.Track, error) {
	return f.track, f.trackErr
}

func (f *fakeCatalog) GetArtist(ctx context.Context, id string) (*catalog.Artist, error) {
	return f.artist, f.artistErr
}

func (f *fakeCatalog) GetAlbum(ctx context.Context, id string) (*catalog.Album, error) {
	return f.album, f.albumErr
}

func (f *fakeCatalog) Download(ctx context.Context, url string) ([]byte, string, error) {
	return f.image, "image/jpeg", f.imageErr
}

type fakeWriter struct {
	written *model.TrackMetadata
	err     error
}

func (w *fakeWriter) Supported(filePath string) bool {
	return strings.HasSuffix(filePath, ".mp3") || strings.HasSuffix(filePath, ".m4a")
}

func (w *fakeWriter) WriteTrack(filePath string, meta *model.TrackMetadata) error {
	w.written = meta
	return w.err
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func fullCatalog(t *testing.T) *fakeCatalog {
	track := &catalog.Track{
		ID:           "t1",
		Name:         "Blue Monday",
		Type:         "track",
		TrackNumber:  3,
		DiscNumber:   1,
		DurationMS:   448000,
		Artists:      []catalog.ArtistRef{{ID: "a1", Name: "New Order"}},
		ExternalIDs:  map[string]string{"isrc": "GBAAP0300001"},
		ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/track/t1"},
	}
	track.Album = catalog.AlbumRef{ID: "al1", Name: "PCL", Images: []catalog.Image{{URL: "http://img"}}}

	album := &catalog.Album{ID: "al1", Label: "Factory", ReleaseDate: "1983-05-02",
		Copyrights: []catalog.Copyright{{Text: "1983 Factory Records"}}}
	album.Tracks.Total = 12

	return &fakeCatalog{
		track:  track,
		artist: &catalog.Artist{ID: "a1", Genres: []string{"alternative dance", "synthpop"}},
		album:  album,
		image:  pngBytes(t),
	}
}

func TestFetchAndWrite(t *testing.T) {
	cat := fullCatalog(t)
	w := &fakeWriter{}
	var out bytes.Buffer

	ok := New(cat, w, logging.Discard(), &out).FetchAndWrite(context.Background(), "song.mp3", "t1")
	if !ok {
		t.Fatalf("FetchAndWrite() = false, output %q", out.String())
	}
	if !strings.Contains(out.String(), "Finished fixing metadata") {
		t.Errorf("output = %q", out.String())
	}

	m := w.written
	if m.Title != "Blue Monday" || m.Artist != "New Order" || m.Album != "PCL" {
		t.Errorf("names = %q/%q/%q", m.Title, m.Artist, m.Album)
	}
	if m.TrackNumber != 3 || m.TotalTracks != 12 || m.DiscNumber != 1 {
		t.Errorf("numbers = %d/%d/%d", m.TrackNumber, m.TotalTracks, m.DiscNumber)
	}
	if m.ReleaseDate != "1983-05-02" || m.Publisher != "Factory" || m.Media != "track" {
		t.Errorf("album fields = %q/%q/%q", m.ReleaseDate, m.Publisher, m.Media)
	}
	if m.Genre == nil || *m.Genre != "Alternative Dance" {
		t.Errorf("Genre = %v", m.Genre)
	}
	if m.Copyright == nil || *m.Copyright != "1983 Factory Records" {
		t.Errorf("Copyright = %v", m.Copyright)
	}
	if m.ISRC == nil || *m.ISRC != "GBAAP0300001" {
		t.Errorf("ISRC = %v", m.ISRC)
	}
	if m.CoverArt == nil || m.CoverArt.MIMEType != "image/png" {
		t.Errorf("CoverArt = %+v", m.CoverArt)
	}
	if m.Website != "https://open.spotify.com/track/t1" || m.DurationMS != 448000 {
		t.Errorf("website/duration = %q/%d", m.Website, m.DurationMS)
	}
}

func TestFetchAndWriteTrackFailure(t *testing.T) {
	cat := &fakeCatalog{trackErr: errors.New("boom")}
	w := &fakeWriter{}
	var out bytes.Buffer

	if New(cat, w, logging.Discard(), &out).FetchAndWrite(context.Background(), "song.mp3", "t1") {
		t.Fatal("FetchAndWrite() = true, want false")
	}
	if w.written != nil {
		t.Error("tags written after track failure")
	}
	if !strings.Contains(out.String(), "Error requesting from catalog") {
		t.Errorf("output = %q", out.String())
	}
}

func TestSecondaryFailuresDegrade(t *testing.T) {
	cat := fullCatalog(t)
	cat.artistErr = errors.New("artist down")
	cat.albumErr = errors.New("album down")
	cat.imageErr = errors.New("no image")
	w := &fakeWriter{}

	if !New(cat, w, logging.Discard(), &bytes.Buffer{}).FetchAndWrite(context.Background(), "song.m4a", "t1") {
		t.Fatal("FetchAndWrite() = false")
	}

	m := w.written
	if m.Genre != nil || m.Copyright != nil || m.CoverArt != nil {
		t.Errorf("optional fields present: genre=%v copyright=%v cover=%v", m.Genre, m.Copyright, m.CoverArt)
	}
	if m.TotalTracks != 0 || m.Publisher != "" {
		t.Errorf("album fields = %d/%q", m.TotalTracks, m.Publisher)
	}
	if m.Title != "Blue Monday" {
		t.Errorf("Title = %q", m.Title)
	}
}

func TestEmptyListsBecomeAbsent(t *testing.T) {
	cat := fullCatalog(t)
	cat.artist.Genres = nil
	cat.album.Copyrights = nil
	cat.track.ExternalIDs = nil
	cat.track.Album.Images = nil

	meta, err := New(cat, &fakeWriter{}, logging.Discard(), &bytes.Buffer{}).Fetch(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Genre != nil || meta.Copyright != nil || meta.ISRC != nil || meta.CoverArt != nil {
		t.Errorf("meta = %+v", meta)
	}
}

func TestUndecodableCoverDropped(t *testing.T) {
	cat := fullCatalog(t)
	cat.image = []byte("<html>not an image</html>")

	meta, err := New(cat, &fakeWriter{}, logging.Discard(), &bytes.Buffer{}).Fetch(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if meta.CoverArt != nil {
		t.Error("undecodable cover kept")
	}
}

func TestUnsupportedFile(t *testing.T) {
	w := &fakeWriter{}
	var out bytes.Buffer

	if New(fullCatalog(t), w, logging.Discard(), &out).FetchAndWrite(context.Background(), "song.ogg", "t1") {
		t.Fatal("FetchAndWrite() = true for unsupported file")
	}
	if w.written != nil {
		t.Error("tags written for unsupported file")
	}
}

func TestWriteFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("disk full")}
	if New(fullCatalog(t), w, logging.Discard(), &bytes.Buffer{}).FetchAndWrite(context.Background(), "song.mp3", "t1") {
		t.Fatal("FetchAndWrite() = true on write error")
	}
}
