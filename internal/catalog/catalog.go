// Package catalog fetches track, artist and album records from the Spotify
// Web API using the client-credentials flow.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultAPIURL   = "https://api.spotify.com/v1"
)

// ErrNotFound is returned when the catalog has no record for an ID.
var ErrNotFound = errors.New("catalog record not found")

type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AlbumRef struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"`
	Images      []Image `json:"images"`
}

type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	TrackNumber  int               `json:"track_number"`
	DiscNumber   int               `json:"disc_number"`
	DurationMS   int               `json:"duration_ms"`
	Artists      []ArtistRef       `json:"artists"`
	Album        AlbumRef          `json:"album"`
	ExternalIDs  map[string]string `json:"external_ids"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// PrimaryArtist is the first credited artist, or a zero value.
func (t *Track) PrimaryArtist() ArtistRef {
	if len(t.Artists) == 0 {
		return ArtistRef{}
	}
	return t.Artists[0]
}

type Artist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type Copyright struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type Album struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	ReleaseDate string      `json:"release_date"`
	Copyrights  []Copyright `json:"copyrights"`
	Images      []Image     `json:"images"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// Client talks to the catalog API. Tokens are fetched lazily and cached by
// the oauth2 transport until they expire.
type Client struct {
	apiURL string
	http   *http.Client
	plain  *http.Client
}

type Option func(*options)

type options struct {
	tokenURL string
	apiURL   string
	timeout  time.Duration
	base     *http.Client
}

func WithTokenURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.tokenURL = u
		}
	}
}

func WithAPIURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.apiURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient sets the client used for token requests and as the base of
// the authorised client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.base = hc
	}
}

func New(clientID, clientSecret string, opts ...Option) *Client {
	o := options{
		tokenURL: DefaultTokenURL,
		apiURL:   DefaultAPIURL,
		timeout:  15 * time.Second,
		base:     &http.Client{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	base := *o.base
	base.Timeout = o.timeout

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     o.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &base)
	authed := cc.Client(ctx)
	authed.Timeout = o.timeout

	return &Client{
		apiURL: o.apiURL,
		http:   authed,
		plain:  &base,
	}
}

func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	var t Track
	if err := c.get(ctx, "tracks", id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetArtist(ctx context.Context, id string) (*Artist, error) {
	var a Artist
	if err := c.get(ctx, "artists", id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) GetAlbum(ctx context.Context, id string) (*Album, error) {
	var a Album
	if err := c.get(ctx, "albums", id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) get(ctx context.Context, kind, id string, out any) error {
	if id == "" {
		return fmt.Errorf("failed to fetch %s: empty id", kind)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", c.apiURL, kind, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s %s: %w", kind, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to fetch %s %s: status %d", kind, id, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return nil
}

// Download fetches an image without catalog credentials. It returns the
// body and its declared content type.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.plain.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
