package analysis

import (
	"fmt"
	"math"
	"strings"

	"Playlist-Pulse/pkg/music"
)

// Strategy selects how recommendations are tuned relative to a playlist.
type Strategy int

const (
	// MoodSafePick keeps valence and acousticness and allows energy to move
	// within a narrow band. It is the fallback for unknown names.
	MoodSafePick Strategy = iota
	// BestNextTrack continues the playlist with a small energy lift.
	BestNextTrack
	// RareMatch looks for less popular tracks with a similar profile.
	RareMatch
	// ReturnToFamiliar favours popular tracks matching the profile.
	ReturnToFamiliar
	// ShortSession prefers short, slightly livelier tracks.
	ShortSession
	// EnergyAdjustment pushes the session noticeably higher in energy.
	EnergyAdjustment
)

var strategyNames = map[Strategy]string{
	BestNextTrack:    "best_next_track",
	MoodSafePick:     "mood_safe_pick",
	RareMatch:        "rare_match",
	ReturnToFamiliar: "return_to_familiar",
	ShortSession:     "short_session",
	EnergyAdjustment: "energy_adjustment",
}

// Strategies lists every strategy in a stable order.
func Strategies() []Strategy {
	return []Strategy{BestNextTrack, MoodSafePick, RareMatch, ReturnToFamiliar, ShortSession, EnergyAdjustment}
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a wire name to a Strategy. Unknown names resolve to
// MoodSafePick and ok is false.
func ParseStrategy(name string) (s Strategy, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for st, n := range strategyNames {
		if n == name {
			return st, true
		}
	}
	return MoodSafePick, false
}

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 100
	maxSeedGenres              = 3
)

// GenerateRecommendationStrategy derives recommendation constraints from
// the playlist's current averages. genres should be ordered by relevance;
// the first three become genre seeds. targetCount is the desired number of
// results and defaults to 10. A playlist without features is treated as
// sitting in the middle of every range.
func GenerateRecommendationStrategy(features []music.AudioFeatures, genres []string, s Strategy, targetCount int) music.RecommendationOptions {
	a := Averages{Energy: 0.5, Danceability: 0.5, Valence: 0.5, Acousticness: 0.5, Instrumentalness: 0.5}
	if len(features) > 0 {
		a = AverageFeatures(features)
	}

	limit := targetCount
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}
	opts := music.RecommendationOptions{
		Limit:      music.Int(limit),
		SeedGenres: seedGenres(genres),
	}

	f := func(v, width float64) *float64 { return music.Float(round3(clampFeature(v, width))) }

	switch s {
	case BestNextTrack:
		opts.TargetEnergy = f(a.Energy+0.05, 0.05)
		opts.TargetDanceability = f(a.Danceability, 0)
		opts.TargetValence = f(a.Valence, 0)
	case MoodSafePick:
		opts.TargetValence = f(a.Valence, 0)
		opts.MinEnergy = f(a.Energy-0.15, 0.15)
		opts.MaxEnergy = f(a.Energy+0.15, 0.15)
		opts.TargetAcousticness = f(a.Acousticness, 0)
	case RareMatch:
		opts.MaxPopularity = music.Int(40)
		opts.TargetEnergy = f(a.Energy, 0)
		opts.TargetDanceability = f(a.Danceability, 0)
		opts.MinInstrumentalness = f(a.Instrumentalness-0.1, 0.1)
		opts.MaxInstrumentalness = f(a.Instrumentalness+0.2, 0.2)
	case ReturnToFamiliar:
		opts.MinPopularity = music.Int(60)
		opts.TargetEnergy = f(a.Energy, 0)
		opts.TargetValence = f(a.Valence, 0)
		opts.TargetDanceability = f(a.Danceability, 0)
	case ShortSession:
		opts.MaxDurationMs = music.Int(210000)
		opts.TargetEnergy = f(a.Energy+0.1, 0.1)
		opts.TargetDanceability = f(a.Danceability+0.05, 0.05)
	case EnergyAdjustment:
		opts.TargetEnergy = f(a.Energy+0.2, 0.2)
		opts.MinEnergy = f(a.Energy, 0)
		opts.TargetDanceability = f(a.Danceability+0.1, 0.1)
	default:
		return GenerateRecommendationStrategy(features, genres, MoodSafePick, targetCount)
	}
	return opts
}

// clampFeature bounds a feature value to [0,1]. width is the half-width of
// the band the caller intended around the value; it is accepted but not
// applied, so a value is only ever limited by the feature range itself.
func clampFeature(v, width float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func seedGenres(genres []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
		if len(out) == maxSeedGenres {
			break
		}
	}
	return out
}
