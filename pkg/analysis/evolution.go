package analysis

import (
	"math"

	"Playlist-Pulse/pkg/music"
)

// Trend is the direction a feature moves between the two halves of a
// playlist.
type Trend string

const (
	Stable     Trend = "stable"
	Increasing Trend = "increasing"
	Decreasing Trend = "decreasing"
)

// trendThreshold is the smallest change in a half-mean that counts as a
// direction.
const trendThreshold = 0.1

// Evolution describes how energy, mood (valence) and complexity
// (instrumentalness) change from the first half of a playlist to the second.
type Evolution struct {
	Energy          Trend    `json:"energy_trend"`
	Mood            Trend    `json:"mood_trend"`
	Complexity      Trend    `json:"complexity_trend"`
	Recommendations []string `json:"recommendations"`
}

// AnalyzePlaylistEvolution compares the first and second halves of features
// in playlist order. Fewer than three tracks are too short to show a trend.
func AnalyzePlaylistEvolution(features []music.AudioFeatures) Evolution {
	if len(features) < 3 {
		return Evolution{
			Energy:          Stable,
			Mood:            Stable,
			Complexity:      Stable,
			Recommendations: []string{"Add more tracks to see how this playlist evolves."},
		}
	}
	mid := len(features) / 2
	first, second := AverageFeatures(features[:mid]), AverageFeatures(features[mid:])

	ev := Evolution{
		Energy:     trendOf(second.Energy - first.Energy),
		Mood:       trendOf(second.Valence - first.Valence),
		Complexity: trendOf(second.Instrumentalness - first.Instrumentalness),
	}

	var recs []string
	if ev.Energy == Stable && ev.Mood == Stable && ev.Complexity == Stable {
		recs = append(recs, "The playlist keeps one feel from start to finish. Add a contrasting section to give it an arc.")
	}
	if ev.Energy == Stable {
		recs = append(recs, "Try ordering tracks so energy builds towards the end.")
	}
	if ev.Mood == Stable {
		recs = append(recs, "Introduce a mood shift with a few brighter or darker tracks.")
	}
	if recs == nil {
		recs = []string{}
	}
	ev.Recommendations = recs
	return ev
}

func trendOf(diff float64) Trend {
	switch {
	case math.Abs(diff) < trendThreshold:
		return Stable
	case diff > 0:
		return Increasing
	default:
		return Decreasing
	}
}
