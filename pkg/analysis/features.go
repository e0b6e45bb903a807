// Package analysis turns audio feature vectors and genre counts into the
// scores shown for a playlist: health, personality, rating, compatibility,
// recommendation tuning and evolution trend. Every function is pure and safe
// to call concurrently; callers are expected to drop absent feature records
// (see music.ValidFeatures) before passing them in.
package analysis

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"Playlist-Pulse/pkg/music"
)

// Averages is the mean of each feature over a set of tracks.
type Averages struct {
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Tempo            float64 `json:"tempo"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
}

// AverageFeatures returns the per-feature mean. An empty input yields the
// zero vector.
func AverageFeatures(features []music.AudioFeatures) Averages {
	var a Averages
	if len(features) == 0 {
		return a
	}
	for _, f := range features {
		a.Energy += f.Energy
		a.Danceability += f.Danceability
		a.Valence += f.Valence
		a.Acousticness += f.Acousticness
		a.Instrumentalness += f.Instrumentalness
		a.Tempo += f.Tempo
		a.Liveness += f.Liveness
		a.Speechiness += f.Speechiness
	}
	n := float64(len(features))
	a.Energy /= n
	a.Danceability /= n
	a.Valence /= n
	a.Acousticness /= n
	a.Instrumentalness /= n
	a.Tempo /= n
	a.Liveness /= n
	a.Speechiness /= n
	return a
}

// AudioDNA is the rounded percentage profile of a playlist. Tempo stays in
// beats per minute.
type AudioDNA struct {
	Energy           int `json:"energy"`
	Danceability     int `json:"danceability"`
	Valence          int `json:"valence"`
	Acousticness     int `json:"acousticness"`
	Instrumentalness int `json:"instrumentalness"`
	Tempo            int `json:"tempo"`
}

// ComputeAudioDNA scales the averages of features to whole percentages.
func ComputeAudioDNA(features []music.AudioFeatures) AudioDNA {
	a := AverageFeatures(features)
	pct := func(v float64) int { return int(math.Round(v * 100)) }
	return AudioDNA{
		Energy:           pct(a.Energy),
		Danceability:     pct(a.Danceability),
		Valence:          pct(a.Valence),
		Acousticness:     pct(a.Acousticness),
		Instrumentalness: pct(a.Instrumentalness),
		Tempo:            int(math.Round(a.Tempo)),
	}
}

// GenreCount maps a display genre name to the number of artists carrying it.
type GenreCount map[string]int

// FormatGenre upper-cases the first letter of a catalog genre so "indie pop"
// and "Indie pop" count as one.
func FormatGenre(genre string) string {
	r, size := utf8.DecodeRuneInString(genre)
	if r == utf8.RuneError {
		return genre
	}
	return string(unicode.ToUpper(r)) + genre[size:]
}

// CountGenres tallies the genres of every artist.
func CountGenres(artists []music.Artist) GenreCount {
	counts := make(GenreCount)
	for _, a := range artists {
		for _, g := range a.Genres {
			if strings.TrimSpace(g) == "" {
				continue
			}
			counts[FormatGenre(g)]++
		}
	}
	return counts
}

// Names returns the genres ordered by descending count, ties by name.
func (g GenreCount) Names() []string {
	ranked := g.ranked()
	names := make([]string, len(ranked))
	for i, e := range ranked {
		names[i] = e.Name
	}
	return names
}

// Total is the sum of all counts.
func (g GenreCount) Total() int {
	total := 0
	for _, c := range g {
		total += c
	}
	return total
}

func (g GenreCount) ranked() []Subgenre {
	out := make([]Subgenre, 0, len(g))
	for name, c := range g {
		out = append(out, Subgenre{Name: name, Value: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GenreShare is one slice of the genre distribution chart.
type GenreShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// GenreDistribution returns the five most common genres with their share of
// all genre occurrences as a rounded percentage.
func GenreDistribution(g GenreCount) []GenreShare {
	total := g.Total()
	ranked := g.ranked()
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	out := make([]GenreShare, 0, len(ranked))
	for _, e := range ranked {
		v := 0
		if total > 0 {
			v = int(math.Round(float64(e.Value) / float64(total) * 100))
		}
		out = append(out, GenreShare{Name: e.Name, Value: v})
	}
	return out
}
