package acoustid

import (
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, body string) *Response {
	t.Helper()
	var r Response
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return &r
}

func collect(t *testing.T, body string) []Candidate {
	t.Helper()
	seq, err := ParseLookupResult(decode(t, body))
	if err != nil {
		t.Fatalf("ParseLookupResult() error = %v", err)
	}
	var out []Candidate
	for c := range seq {
		out = append(out, c)
	}
	return out
}

func TestParseSingleCandidate(t *testing.T) {
	got := collect(t, `{"status":"ok","results":[{"score":0.9,"recordings":[{"id":"abc","title":"T","artists":[{"name":"A"}]}]}]}`)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Score != 0.9 || c.RecordingID != "abc" {
		t.Errorf("unexpected candidate %+v", c)
	}
	if c.Title == nil || *c.Title != "T" {
		t.Errorf("Title = %v, want T", c.Title)
	}
	if c.Artist == nil || *c.Artist != "A" {
		t.Errorf("Artist = %v, want A", c.Artist)
	}
}

func TestParseServerOrderAndJoin(t *testing.T) {
	got := collect(t, `{"status":"ok","results":[
		{"score":0.95,"recordings":[
			{"id":"r1","title":"One","artists":[{"name":"X"},{"name":"Y"}]},
			{"id":"r2","title":"Two"}
		]},
		{"score":0.5},
		{"score":0.4,"recordings":[]},
		{"score":0.3,"recordings":[{"id":"r3","artists":[]}]}
	]}`)

	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].RecordingID != "r1" || got[1].RecordingID != "r2" || got[2].RecordingID != "r3" {
		t.Errorf("order = %s,%s,%s", got[0].RecordingID, got[1].RecordingID, got[2].RecordingID)
	}
	if *got[0].Artist != "X; Y" {
		t.Errorf("joined artist = %q", *got[0].Artist)
	}
	if got[1].Artist != nil {
		t.Errorf("missing artists should be absent, got %q", *got[1].Artist)
	}
	if got[2].Artist != nil || got[2].Title != nil {
		t.Errorf("empty artists and missing title should be absent: %+v", got[2])
	}
	if got[2].Score != 0.3 {
		t.Errorf("score = %v, want 0.3", got[2].Score)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"status error", `{"status":"error","error":{"code":4,"message":"invalid API key"}}`},
		{"status without results", `{"status":"error","results":[]}`},
		{"missing results", `{"status":"ok"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := ParseLookupResult(decode(t, tt.body))
			var se *ServiceError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *ServiceError", err)
			}
			if seq != nil {
				t.Error("expected no candidates")
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := ParseLookupResult(decode(t, `{"status":"error","error":{"code":4,"message":"invalid API key"}}`))
	var se *ServiceError
	if !errors.As(err, &se) || se.Message != "invalid API key" {
		t.Errorf("error = %v", err)
	}
}

func TestBestMatch(t *testing.T) {
	seq, err := ParseLookupResult(decode(t, `{"status":"ok","results":[
		{"score":0.99,"recordings":[{"id":"a","title":"No Artist"}]},
		{"score":0.98,"recordings":[{"id":"b","artists":[{"name":"No Title"}]}]},
		{"score":0.90,"recordings":[{"id":"c","title":"Song","artists":[{"name":"Band"}]}]},
		{"score":0.80,"recordings":[{"id":"d","title":"Later","artists":[{"name":"Other"}]}]}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	c, ok := BestMatch(seq)
	if !ok {
		t.Fatal("expected a match")
	}
	if c.RecordingID != "c" {
		t.Errorf("RecordingID = %q, want c", c.RecordingID)
	}
}

func TestBestMatchNone(t *testing.T) {
	seq, err := ParseLookupResult(decode(t, `{"status":"ok","results":[{"score":0.9,"recordings":[{"id":"a"}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := BestMatch(seq); ok {
		t.Error("expected no match")
	}
}

func TestParseStopsEarly(t *testing.T) {
	seq, err := ParseLookupResult(decode(t, `{"status":"ok","results":[{"score":1,"recordings":[{"id":"a"},{"id":"b"},{"id":"c"}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d times, want 2", n)
	}
}
