package analysis

import (
	"math"

	"Playlist-Pulse/pkg/music"
)

// Health is the composite 0-100 score of flow, variety and engagement.
type Health struct {
	Score  int    `json:"score"`
	Status string `json:"status"`
}

// CalculateHealth scores a playlist. Flow rewards an energy standard
// deviation under 0.2, variety caps at one genre per five tracks and
// engagement is mean danceability. totalTracks is the playlist length used
// for variety; a non-positive value falls back to len(features).
func CalculateHealth(features []music.AudioFeatures, totalTracks, uniqueGenres int) Health {
	if len(features) == 0 {
		return Health{Score: 0, Status: "Unknown"}
	}
	n := float64(len(features))

	var energyMean, danceMean float64
	for _, f := range features {
		energyMean += f.Energy
		danceMean += f.Danceability
	}
	energyMean /= n
	danceMean /= n

	var variance float64
	for _, f := range features {
		d := f.Energy - energyMean
		variance += d * d
	}
	sd := math.Sqrt(variance / n)

	flow := 100.0
	if sd >= 0.2 {
		flow = math.Max(0, 100-(sd-0.2)*200)
	}

	if totalTracks <= 0 {
		totalTracks = len(features)
	}
	variety := math.Min(100, float64(uniqueGenres)/float64(totalTracks)*500)
	engagement := danceMean * 100

	score := int(math.Round(flow*0.4 + variety*0.3 + engagement*0.3))
	return Health{Score: score, Status: healthStatus(score)}
}

func healthStatus(score int) string {
	switch {
	case score >= 90:
		return "Exceptional"
	case score >= 75:
		return "Great"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Average"
	default:
		return "Needs Work"
	}
}

// Rating is the 1.0-5.0 star rating derived from the health score.
type Rating struct {
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
}

// CalculateRating converts a health score into stars, nudging very short
// (<10) and very long (>500) playlists down. Ratings that reach the
// masterpiece band are reported as a full 5.0.
func CalculateRating(healthScore, trackCount int) Rating {
	base := float64(healthScore) / 20
	if trackCount < 10 {
		base *= 0.9
	}
	if trackCount > 500 {
		base *= 0.95
	}
	r := math.Round(math.Min(5, math.Max(1, base))*10) / 10

	switch {
	case r >= 4.8:
		return Rating{Rating: 5.0, Description: "Masterpiece curation."}
	case r >= 4.5:
		return Rating{Rating: r, Description: "Highly curated selection."}
	case r >= 4.0:
		return Rating{Rating: r, Description: "Well balanced mix."}
	case r >= 3.0:
		return Rating{Rating: r, Description: "Good potential."}
	default:
		return Rating{Rating: r, Description: "Solid collection."}
	}
}

// Personality is the listener archetype a playlist suggests.
type Personality struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

var (
	experimentalist = Personality{
		Type:        "The Experimentalist",
		Description: "You explore the outer edges of sound. Conventions don't bind you; you seek textures and atmospheres over catchy hooks.",
	}
	moodDriven = Personality{
		Type:        "Mood-Driven",
		Description: "Music is an emotional amplifier for you. You curate soundscapes that perfectly match or alter your internal state.",
	}
	eclectic = Personality{
		Type:        "The Eclectic",
		Description: "Why choose one lane? You cruise through genres with ease, finding the common thread between folk, pop, and rock.",
	}
	trendAware = Personality{
		Type:        "Trend-Aware",
		Description: "You have your finger on the pulse. Your playlist keeps the energy high and the vibes current.",
	}
)

// DeterminePersonality applies the archetype rules in order; the first
// match wins. genres is accepted for callers that track it but the rules
// only look at feature means. An empty feature set is Trend-Aware.
func DeterminePersonality(features []music.AudioFeatures, genres []string) Personality {
	if len(features) == 0 {
		return trendAware
	}
	a := AverageFeatures(features)
	switch {
	case a.Instrumentalness > 0.3 || (a.Energy > 0.8 && a.Danceability < 0.4):
		return experimentalist
	case a.Acousticness > 0.5 || a.Valence < 0.3 || a.Valence > 0.8:
		return moodDriven
	case a.Energy > 0.4 && a.Acousticness > 0.3:
		return eclectic
	default:
		return trendAware
	}
}

// Subgenre is a named genre with its occurrence count.
type Subgenre struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ClassifySubgenres skips the three most common genres, which tend to be
// broad labels, and returns the next six in descending count order.
func ClassifySubgenres(genres GenreCount) []Subgenre {
	ranked := genres.ranked()
	if len(ranked) <= 3 {
		return []Subgenre{}
	}
	ranked = ranked[3:]
	if len(ranked) > 6 {
		ranked = ranked[:6]
	}
	return ranked
}
