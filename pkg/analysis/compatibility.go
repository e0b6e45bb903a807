package analysis

import (
	"math"

	"Playlist-Pulse/pkg/music"
)

// Feature weights for compatibility. Energy matters most; acousticness is
// the weakest signal.
const (
	weightEnergy           = 0.25
	weightDanceability     = 0.20
	weightValence          = 0.20
	weightAcousticness     = 0.15
	weightInstrumentalness = 0.20
)

// logistic squashes s around 0.5 with steepness 5.
func logistic(s float64) float64 {
	return 1 / (1 + math.Exp(-5*(s-0.5)))
}

var (
	logisticLow  = logistic(0)
	logisticHigh = logistic(1)
)

// CalculateCompatibility scores how alike two playlists sound on a 0-100
// scale. Each side is averaged, compared with a weighted cosine similarity
// and the similarity is passed through a logistic curve rescaled so that
// identical profiles score 100 and orthogonal ones 0. Either side having no
// weighted magnitude scores 0.
func CalculateCompatibility(a, b []music.AudioFeatures) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	x, y := AverageFeatures(a), AverageFeatures(b)
	wx := featureVector(x)
	wy := featureVector(y)

	var dot, magX, magY float64
	for i := range wx {
		w := featureWeights[i]
		dot += w * wx[i] * wy[i]
		magX += w * wx[i] * wx[i]
		magY += w * wy[i] * wy[i]
	}
	if magX == 0 || magY == 0 {
		return 0
	}
	s := dot / (math.Sqrt(magX) * math.Sqrt(magY))
	s = math.Max(0, math.Min(1, s))

	scaled := (logistic(s) - logisticLow) / (logisticHigh - logisticLow)
	return int(math.Round(scaled * 100))
}

var featureWeights = [5]float64{weightEnergy, weightDanceability, weightValence, weightAcousticness, weightInstrumentalness}

func featureVector(a Averages) [5]float64 {
	return [5]float64{a.Energy, a.Danceability, a.Valence, a.Acousticness, a.Instrumentalness}
}
