package cache

import (
	"sort"
	"strings"
	"time"
)

// Key prefixes. Stored entries from older runs stay readable as long as these
// do not change.
const (
	prefixPlaylist        = "playlist:"
	prefixTracks          = "tracks:"
	prefixAudioFeatures   = "audio_features:"
	prefixArtists         = "artists:"
	prefixRecommendations = "recommendations:"
	prefixAnalysis        = "analysis:"
)

// PlaylistKey identifies cached playlist metadata.
func PlaylistKey(id string) string { return prefixPlaylist + id }

// TracksKey identifies the cached track list of a playlist.
func TracksKey(playlistID string) string { return prefixTracks + playlistID }

// AnalysisKey identifies a cached full playlist analysis.
func AnalysisKey(playlistID string) string { return prefixAnalysis + playlistID }

// AudioFeaturesKey identifies a set of audio features. The IDs are sorted so
// the key does not depend on request order.
func AudioFeaturesKey(ids []string) string { return prefixAudioFeatures + sortedJoin(ids) }

// ArtistsKey identifies a set of artists independent of request order.
func ArtistsKey(ids []string) string { return prefixArtists + sortedJoin(ids) }

// RecommendationsKey identifies a recommendation query by its parameters
// rendered as sorted "key:value" pairs joined with "|".
func RecommendationsKey(params map[string]string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, k+":"+v)
	}
	sort.Strings(pairs)
	return prefixRecommendations + strings.Join(pairs, "|")
}

func sortedJoin(ids []string) string {
	cp := append([]string(nil), ids...)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}

// TTLs holds the lifetime of each kind of cached entry.
type TTLs struct {
	Playlist        time.Duration
	Tracks          time.Duration
	AudioFeatures   time.Duration
	Artists         time.Duration
	Recommendations time.Duration
	Analysis        time.Duration
}

// DefaultTTLs returns the standard lifetimes. Genre data changes slowly so
// artists live longest; recommendations are the most volatile.
func DefaultTTLs() TTLs {
	return TTLs{
		Playlist:        time.Hour,
		Tracks:          time.Hour,
		AudioFeatures:   time.Hour,
		Artists:         2 * time.Hour,
		Recommendations: 15 * time.Minute,
		Analysis:        30 * time.Minute,
	}
}

// withDefaults fills zero durations from DefaultTTLs.
func (t TTLs) withDefaults() TTLs {
	d := DefaultTTLs()
	if t.Playlist <= 0 {
		t.Playlist = d.Playlist
	}
	if t.Tracks <= 0 {
		t.Tracks = d.Tracks
	}
	if t.AudioFeatures <= 0 {
		t.AudioFeatures = d.AudioFeatures
	}
	if t.Artists <= 0 {
		t.Artists = d.Artists
	}
	if t.Recommendations <= 0 {
		t.Recommendations = d.Recommendations
	}
	if t.Analysis <= 0 {
		t.Analysis = d.Analysis
	}
	return t
}
