package acoustid

import (
	"iter"
	"strings"
)

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Recording struct {
	ID       string   `json:"id"`
	Title    *string  `json:"title"`
	Duration float64  `json:"duration"`
	Artists  []Artist `json:"artists"`
}

type Result struct {
	ID         string      `json:"id"`
	Score      float64     `json:"score"`
	Recordings []Recording `json:"recordings"`
}

// Response is the decoded body of a lookup or submit call. Results is a
// pointer so that a missing field can be told apart from an empty list.
type Response struct {
	Status  string    `json:"status"`
	Results *[]Result `json:"results"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Candidate is one recording the service considers a match. Title and Artist
// are nil when the service did not provide them.
type Candidate struct {
	Score       float64
	RecordingID string
	Title       *string
	Artist      *string
}

func (c Candidate) Complete() bool {
	return c.Title != nil && c.Artist != nil
}

// ParseLookupResult validates a lookup response and returns its candidates
// in the order the service ranked them.
func ParseLookupResult(resp *Response) (iter.Seq[Candidate], error) {
	if resp == nil {
		return nil, &ServiceError{Message: "empty response"}
	}
	if resp.Status != "ok" {
		msg := "status: " + resp.Status
		if resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		return nil, &ServiceError{Message: msg}
	}
	if resp.Results == nil {
		return nil, &ServiceError{Message: "results not included"}
	}

	results := *resp.Results
	return func(yield func(Candidate) bool) {
		for _, result := range results {
			for _, rec := range result.Recordings {
				if !yield(toCandidate(result.Score, rec)) {
					return
				}
			}
		}
	}, nil
}

func toCandidate(score float64, rec Recording) Candidate {
	c := Candidate{
		Score:       score,
		RecordingID: rec.ID,
		Title:       rec.Title,
	}
	if len(rec.Artists) > 0 {
		names := make([]string, 0, len(rec.Artists))
		for _, a := range rec.Artists {
			names = append(names, a.Name)
		}
		artist := strings.Join(names, "; ")
		c.Artist = &artist
	}
	return c
}

// BestMatch returns the first candidate carrying both a title and an artist.
func BestMatch(candidates iter.Seq[Candidate]) (Candidate, bool) {
	for c := range candidates {
		if c.Complete() {
			return c, true
		}
	}
	return Candidate{}, false
}
