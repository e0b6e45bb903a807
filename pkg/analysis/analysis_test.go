package analysis

import (
	"math"
	"reflect"
	"testing"

	"Playlist-Pulse/pkg/music"
)

func feats(energy, dance, valence []float64) []music.AudioFeatures {
	out := make([]music.AudioFeatures, len(energy))
	for i := range energy {
		out[i] = music.AudioFeatures{Energy: energy[i], Danceability: dance[i], Valence: valence[i]}
	}
	return out
}

func TestCalculateHealthEmpty(t *testing.T) {
	got := CalculateHealth(nil, 10, 3)
	if got != (Health{Score: 0, Status: "Unknown"}) {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestCalculateHealthScenario(t *testing.T) {
	f := feats(
		[]float64{0.8, 0.75, 0.82},
		[]float64{0.9, 0.85, 0.92},
		[]float64{0.7, 0.8, 0.6},
	)
	got := CalculateHealth(f, 50, 8)
	if got.Score <= 70 {
		t.Fatalf("score too low: %+v", got)
	}
	// flow 100*.4 + variety 80*.3 + engagement 89*.3
	if got.Score != 91 || got.Status != "Exceptional" {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestCalculateHealthFlowPenalty(t *testing.T) {
	f := feats([]float64{0, 1}, []float64{0, 0}, []float64{0, 0})
	got := CalculateHealth(f, 2, 0)
	// sd 0.5 gives flow 40, weighted 16.
	if got.Score != 16 || got.Status != "Needs Work" {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestCalculateHealthTrackCountFallback(t *testing.T) {
	f := feats([]float64{0.5, 0.5}, []float64{0.5, 0.5}, []float64{0.5, 0.5})
	got := CalculateHealth(f, 0, 1)
	// variety capped at 100: 40 + 30 + 15
	if got.Score != 85 || got.Status != "Great" {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestCalculateRating(t *testing.T) {
	tests := []struct {
		health, tracks int
		want           Rating
	}{
		{95, 50, Rating{5.0, "Masterpiece curation."}},
		{10, 20, Rating{1.0, "Solid collection."}},
		{92, 50, Rating{4.6, "Highly curated selection."}},
		{80, 50, Rating{4.0, "Well balanced mix."}},
		{70, 50, Rating{3.5, "Good potential."}},
		{100, 5, Rating{4.5, "Highly curated selection."}},
		{0, 50, Rating{1.0, "Solid collection."}},
	}
	for _, tt := range tests {
		if got := CalculateRating(tt.health, tt.tracks); got != tt.want {
			t.Errorf("CalculateRating(%d, %d) = %+v, want %+v", tt.health, tt.tracks, got, tt.want)
		}
	}
}

func TestDeterminePersonality(t *testing.T) {
	tests := []struct {
		name string
		f    music.AudioFeatures
		want string
	}{
		{"instrumental", music.AudioFeatures{Instrumentalness: 0.6, Valence: 0.5}, "The Experimentalist"},
		{"loud but still", music.AudioFeatures{Energy: 0.9, Danceability: 0.3, Valence: 0.5}, "The Experimentalist"},
		{"acoustic", music.AudioFeatures{Acousticness: 0.7, Valence: 0.5}, "Mood-Driven"},
		{"sad", music.AudioFeatures{Valence: 0.2}, "Mood-Driven"},
		{"euphoric", music.AudioFeatures{Valence: 0.9}, "Mood-Driven"},
		{"mixed", music.AudioFeatures{Energy: 0.6, Acousticness: 0.4, Valence: 0.5, Danceability: 0.6}, "The Eclectic"},
		{"pop", music.AudioFeatures{Energy: 0.7, Danceability: 0.8, Valence: 0.6, Acousticness: 0.1}, "Trend-Aware"},
	}
	for _, tt := range tests {
		got := DeterminePersonality([]music.AudioFeatures{tt.f}, nil)
		if got.Type != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got.Type, tt.want)
		}
		if got.Description == "" {
			t.Errorf("%s: empty description", tt.name)
		}
	}
	if got := DeterminePersonality(nil, nil); got.Type != "Trend-Aware" {
		t.Errorf("empty input: got %q", got.Type)
	}
}

func TestClassifySubgenres(t *testing.T) {
	small := GenreCount{"Pop": 5, "Rock": 3, "Jazz": 1}
	if got := ClassifySubgenres(small); len(got) != 0 {
		t.Errorf("expected empty list, got %+v", got)
	}
	g := GenreCount{"A": 10, "B": 9, "C": 8, "D": 7, "E": 6, "F": 5, "G": 4, "H": 3}
	got := ClassifySubgenres(g)
	want := []Subgenre{{"D", 7}, {"E", 6}, {"F", 5}, {"G", 4}, {"H", 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
	many := GenreCount{}
	for i, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		many[n] = 20 - i
	}
	if got := ClassifySubgenres(many); len(got) != 6 || got[0].Name != "d" || got[5].Name != "i" {
		t.Errorf("unexpected slice %+v", got)
	}
}

func TestCalculateCompatibility(t *testing.T) {
	x := []music.AudioFeatures{
		{Energy: 0.8, Danceability: 0.7, Valence: 0.6, Acousticness: 0.1, Instrumentalness: 0.05},
		{Energy: 0.6, Danceability: 0.5, Valence: 0.4, Acousticness: 0.3, Instrumentalness: 0.0},
	}
	if got := CalculateCompatibility(x, x); got != 100 {
		t.Errorf("self compatibility = %d, want 100", got)
	}
	if got := CalculateCompatibility(nil, nil); got != 0 {
		t.Errorf("empty compatibility = %d, want 0", got)
	}
	zero := []music.AudioFeatures{{Tempo: 120}}
	if got := CalculateCompatibility(x, zero); got != 0 {
		t.Errorf("zero magnitude compatibility = %d, want 0", got)
	}
	a := []music.AudioFeatures{{Energy: 1}}
	b := []music.AudioFeatures{{Acousticness: 1}}
	if got := CalculateCompatibility(a, b); got != 0 {
		t.Errorf("orthogonal compatibility = %d, want 0", got)
	}
	y := []music.AudioFeatures{{Energy: 0.2, Danceability: 0.3, Valence: 0.2, Acousticness: 0.9, Instrumentalness: 0.7}}
	xy, yx := CalculateCompatibility(x, y), CalculateCompatibility(y, x)
	if xy != yx {
		t.Errorf("compatibility not symmetric: %d vs %d", xy, yx)
	}
	if xy <= 0 || xy >= 100 {
		t.Errorf("expected partial compatibility, got %d", xy)
	}
}

func TestGenreHelpers(t *testing.T) {
	artists := []music.Artist{
		{Genres: []string{"indie pop", "rock"}},
		{Genres: []string{"Indie pop", ""}},
		{Genres: []string{"rock", "jazz"}},
	}
	g := CountGenres(artists)
	if g["Indie pop"] != 2 || g["Rock"] != 2 || g["Jazz"] != 1 || len(g) != 3 {
		t.Fatalf("unexpected counts %v", g)
	}
	dist := GenreDistribution(g)
	want := []GenreShare{{"Indie pop", 40}, {"Rock", 40}, {"Jazz", 20}}
	if !reflect.DeepEqual(dist, want) {
		t.Errorf("got %+v, want %+v", dist, want)
	}
	if names := g.Names(); names[0] != "Indie pop" || names[2] != "Jazz" {
		t.Errorf("unexpected order %v", names)
	}
	if FormatGenre("") != "" || FormatGenre("édm") != "Édm" {
		t.Error("FormatGenre mishandled edge cases")
	}
}

func TestComputeAudioDNA(t *testing.T) {
	f := []music.AudioFeatures{
		{Energy: 0.8, Danceability: 0.5, Tempo: 120.4},
		{Energy: 0.70, Danceability: 0.6, Tempo: 121.0},
	}
	got := ComputeAudioDNA(f)
	if got.Energy != 75 || got.Danceability != 55 || got.Tempo != 121 {
		t.Errorf("unexpected dna %+v", got)
	}
	if (ComputeAudioDNA(nil) != AudioDNA{}) {
		t.Error("empty dna should be zero")
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, ok := ParseStrategy(s.String())
		if !ok || got != s {
			t.Errorf("round trip of %v failed: %v %v", s, got, ok)
		}
	}
	if got, ok := ParseStrategy("chill_vibes"); ok || got != MoodSafePick {
		t.Errorf("unknown name resolved to %v ok=%v", got, ok)
	}
}

func approx(p *float64, want float64) bool {
	return p != nil && math.Abs(*p-want) < 1e-9
}

func TestGenerateRecommendationStrategy(t *testing.T) {
	f := []music.AudioFeatures{{Energy: 0.6, Danceability: 0.7, Valence: 0.4, Acousticness: 0.2, Instrumentalness: 0.3}}
	genres := []string{"Indie pop", "Rock", "indie pop", "Jazz", "Folk"}

	best := GenerateRecommendationStrategy(f, genres, BestNextTrack, 20)
	if !approx(best.TargetEnergy, 0.65) || !approx(best.TargetDanceability, 0.7) || !approx(best.TargetValence, 0.4) {
		t.Errorf("best_next_track: %+v", best.Params())
	}
	if *best.Limit != 20 || !reflect.DeepEqual(best.SeedGenres, []string{"indie pop", "rock", "jazz"}) {
		t.Errorf("unexpected limit/seeds %d %v", *best.Limit, best.SeedGenres)
	}

	mood := GenerateRecommendationStrategy(f, genres, MoodSafePick, 0)
	if !approx(mood.MinEnergy, 0.45) || !approx(mood.MaxEnergy, 0.75) || !approx(mood.TargetAcousticness, 0.2) || *mood.Limit != 10 {
		t.Errorf("mood_safe_pick: %+v", mood.Params())
	}

	rare := GenerateRecommendationStrategy(f, genres, RareMatch, 10)
	if *rare.MaxPopularity != 40 || !approx(rare.MinInstrumentalness, 0.2) || !approx(rare.MaxInstrumentalness, 0.5) {
		t.Errorf("rare_match: %+v", rare.Params())
	}

	familiar := GenerateRecommendationStrategy(f, genres, ReturnToFamiliar, 10)
	if *familiar.MinPopularity != 60 || familiar.MaxPopularity != nil {
		t.Errorf("return_to_familiar: %+v", familiar.Params())
	}

	short := GenerateRecommendationStrategy(f, genres, ShortSession, 10)
	if *short.MaxDurationMs != 210000 || !approx(short.TargetEnergy, 0.7) || !approx(short.TargetDanceability, 0.75) {
		t.Errorf("short_session: %+v", short.Params())
	}

	boost := GenerateRecommendationStrategy(f, genres, EnergyAdjustment, 500)
	if !approx(boost.TargetEnergy, 0.8) || !approx(boost.MinEnergy, 0.6) || !approx(boost.TargetDanceability, 0.8) || *boost.Limit != 100 {
		t.Errorf("energy_adjustment: %+v", boost.Params())
	}
	if boost.TargetValence != nil || boost.MaxDurationMs != nil {
		t.Error("energy_adjustment set keys it does not define")
	}
}

func TestGenerateRecommendationStrategyClampsToUnitRange(t *testing.T) {
	f := []music.AudioFeatures{{Energy: 0.95, Danceability: 0.98, Instrumentalness: 0.05}}
	boost := GenerateRecommendationStrategy(f, nil, EnergyAdjustment, 10)
	if !approx(boost.TargetEnergy, 1) || !approx(boost.TargetDanceability, 1) {
		t.Errorf("values not clamped: %+v", boost.Params())
	}
	rare := GenerateRecommendationStrategy(f, nil, RareMatch, 10)
	if !approx(rare.MinInstrumentalness, 0) {
		t.Errorf("min instrumentalness not clamped: %v", *rare.MinInstrumentalness)
	}
	if boost.SeedGenres != nil {
		t.Errorf("unexpected seeds %v", boost.SeedGenres)
	}
}

func TestGenerateRecommendationStrategyWithoutFeatures(t *testing.T) {
	opts := GenerateRecommendationStrategy(nil, nil, MoodSafePick, 5)
	if !approx(opts.TargetValence, 0.5) || !approx(opts.MinEnergy, 0.35) || !approx(opts.MaxEnergy, 0.65) {
		t.Errorf("unexpected defaults %+v", opts.Params())
	}
	if got := GenerateRecommendationStrategy(nil, nil, Strategy(42), 5); !reflect.DeepEqual(got, opts) {
		t.Errorf("invalid strategy did not fall back to mood_safe_pick: %+v", got.Params())
	}
}

// The width argument is documented as a half-width but only the [0,1]
// feature range is enforced. Existing recommendation queries depend on this.
func TestClampFeatureIgnoresWidth(t *testing.T) {
	if got := clampFeature(0.9, 0.1); got != 0.9 {
		t.Errorf("clampFeature(0.9, 0.1) = %v, want 0.9", got)
	}
	if got := clampFeature(1.4, 0.1); got != 1 {
		t.Errorf("clampFeature(1.4, 0.1) = %v, want 1", got)
	}
	if got := clampFeature(-0.2, 0.5); got != 0 {
		t.Errorf("clampFeature(-0.2, 0.5) = %v, want 0", got)
	}
}

func TestAnalyzePlaylistEvolution(t *testing.T) {
	short := AnalyzePlaylistEvolution(make([]music.AudioFeatures, 2))
	if short.Energy != Stable || short.Mood != Stable || short.Complexity != Stable || len(short.Recommendations) != 1 {
		t.Errorf("short playlist: %+v", short)
	}

	rising := []music.AudioFeatures{
		{Energy: 0.2, Valence: 0.8, Instrumentalness: 0.1},
		{Energy: 0.3, Valence: 0.8, Instrumentalness: 0.1},
		{Energy: 0.7, Valence: 0.3, Instrumentalness: 0.12},
		{Energy: 0.8, Valence: 0.3, Instrumentalness: 0.1},
	}
	ev := AnalyzePlaylistEvolution(rising)
	if ev.Energy != Increasing || ev.Mood != Decreasing || ev.Complexity != Stable {
		t.Errorf("unexpected trends %+v", ev)
	}
	if len(ev.Recommendations) != 0 {
		t.Errorf("unexpected recommendations %v", ev.Recommendations)
	}

	flat := make([]music.AudioFeatures, 5)
	for i := range flat {
		flat[i] = music.AudioFeatures{Energy: 0.5, Valence: 0.5}
	}
	ev = AnalyzePlaylistEvolution(flat)
	if ev.Energy != Stable || ev.Mood != Stable || ev.Complexity != Stable || len(ev.Recommendations) != 3 {
		t.Errorf("flat playlist: %+v", ev)
	}
}
