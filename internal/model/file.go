package model

// FileTags is what the tag service reads back from an audio file.
type FileTags struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumArtist string `json:"albumArtist"`
	Album       string `json:"album"`
	Year        int    `json:"year"`
	Genre       string `json:"genre"`
	Track       int    `json:"track"`
	TrackTotal  int    `json:"trackTotal"`
	Disc        int    `json:"disc"`
	HasCoverArt bool   `json:"hasCoverArt"`
	Format      string `json:"format"`
}
