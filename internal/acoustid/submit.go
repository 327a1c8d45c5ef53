package acoustid

import (
	"context"
	"errors"
	"iter"
	"net/url"
	"strconv"

	"github.com/mihirpathak97/Rainbow/internal/fingerprint"
)

// Submission is one fingerprint contributed to the service. MBID is the
// MusicBrainz recording ID when known.
type Submission struct {
	Duration    float64
	Fingerprint []byte
	MBID        string
}

// Submit posts fingerprints to {base}/submit on behalf of the user
// identified by userKey.
func (c *Client) Submit(ctx context.Context, userKey string, subs []Submission) error {
	if userKey == "" {
		return &ServiceError{Message: "user key is required for submissions"}
	}
	if len(subs) == 0 {
		return nil
	}

	form := url.Values{}
	form.Set("format", "json")
	form.Set("client", c.apiKey)
	form.Set("user", userKey)
	for i, s := range subs {
		n := strconv.Itoa(i)
		form.Set("duration."+n, strconv.Itoa(int(s.Duration)))
		form.Set("fingerprint."+n, string(s.Fingerprint))
		if s.MBID != "" {
			form.Set("mbid."+n, s.MBID)
		}
	}

	resp, err := c.post(ctx, "/submit", form)
	if err != nil {
		return err
	}
	if resp.Status != "ok" {
		msg := "status: " + resp.Status
		if resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		return &ServiceError{Message: msg}
	}
	return nil
}

// ErrNoFingerprint is returned by Match when fpcalc produced no usable output.
var ErrNoFingerprint = errors.New("no fingerprint available")

type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (fingerprint.Result, bool, error)
}

// Match fingerprints path and looks it up in one call.
func (c *Client) Match(ctx context.Context, fp Fingerprinter, path, meta string) (iter.Seq[Candidate], error) {
	res, ok, err := fp.Fingerprint(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoFingerprint
	}

	resp, err := c.Lookup(ctx, res.Fingerprint, res.Duration, meta)
	if err != nil {
		return nil, err
	}
	return ParseLookupResult(resp)
}
