// Package demo holds the sample series records and the in-memory collection
// the pagebrowse command and the package tests page through.
package demo

import "fmt"

// Language is an audio track language as reported by the media server.
type Language struct {
	Code2 string `json:"code2"`
	Name  string `json:"name"`
}

// Series is a small media record used across package tests and the demo.
type Series struct {
	ID            int        `json:"sonarrSeriesId"`
	Title         string     `json:"title"`
	Year          int        `json:"year"`
	AudioLanguage []Language `json:"audio_language"`
}

// SeriesTitle returns the title of s.
func SeriesTitle(s Series) string {
	return s.Title
}

// SeriesAudioCodes returns the two letter codes of s's audio tracks.
func SeriesAudioCodes(s Series) []string {
	codes := make([]string, 0, len(s.AudioLanguage))
	for _, lang := range s.AudioLanguage {
		codes = append(codes, lang.Code2)
	}
	return codes
}

// GenerateSeries builds n series with IDs 1..n and titles "Series 001"...
func GenerateSeries(n int) []Series {
	out := make([]Series, n)
	for i := range out {
		out[i] = Series{
			ID:            i + 1,
			Title:         fmt.Sprintf("Series %03d", i+1),
			Year:          2000 + i%25,
			AudioLanguage: []Language{{Code2: "en", Name: "English"}},
		}
	}
	return out
}

