// Package music defines the catalog-neutral types shared by the rest of
// Playlist-Pulse. The Spotify client maps its wire types into these structs so
// the cache layer, the analytics engine and the CLI never import the upstream
// library directly.

package music

import (
	"context"
	"strconv"
	"strings"
)

// AudioFeatures holds the per-track acoustic attributes returned by the
// catalog. Every value lies in [0,1] except Tempo which is in beats per minute.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Energy           float64 `json:"energy"`
	Danceability     float64 `json:"danceability"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Tempo            float64 `json:"tempo"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
}

// ArtistRef is the lightweight artist reference embedded in a Track.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist is a full artist record including the genres used for genre counts.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// Track is a single playable item on a playlist or in a recommendation set.
type Track struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Artists    []ArtistRef `json:"artists"`
	Album      string      `json:"album,omitempty"`
	AlbumArt   string      `json:"album_art,omitempty"`
	DurationMs int         `json:"duration_ms"`
	Popularity int         `json:"popularity"`
	PreviewURL string      `json:"preview_url,omitempty"`
}

// ArtistName returns the name of the first credited artist or an empty
// string when the track has none.
func (t Track) ArtistName() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// Playlist describes playlist metadata without its items.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	TrackCount  int    `json:"track_count"`
}

// Catalog is implemented by clients able to read playlists, tracks and audio
// attributes from a music catalog. Implementations must be safe for
// concurrent use.
type Catalog interface {
	GetPlaylist(ctx context.Context, id string) (*Playlist, error)
	GetPlaylistTracks(ctx context.Context, id string) ([]Track, error)
	// GetAudioFeatures returns one entry per requested ID in request order.
	// Entries for tracks without analysis data are nil.
	GetAudioFeatures(ctx context.Context, ids []string) ([]*AudioFeatures, error)
	GetArtists(ctx context.Context, ids []string) ([]Artist, error)
	GetRecommendations(ctx context.Context, opts RecommendationOptions) ([]Track, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]Track, error)
}

// ValidFeatures drops absent records so aggregates only see real data.
func ValidFeatures(in []*AudioFeatures) []AudioFeatures {
	out := make([]AudioFeatures, 0, len(in))
	for _, f := range in {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// TrackIDs returns the non-empty IDs of tracks in order.
func TrackIDs(tracks []Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// ArtistIDs returns the unique artist IDs credited on tracks in first-seen
// order.
func ArtistIDs(tracks []Track) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, t := range tracks {
		for _, a := range t.Artists {
			if a.ID == "" {
				continue
			}
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// RecommendationOptions is the tuning block sent to the recommendations
// endpoint. Nil pointers and empty slices are absent and never sent.
type RecommendationOptions struct {
	Limit               *int     `json:"limit,omitempty"`
	SeedGenres          []string `json:"seed_genres,omitempty"`
	SeedTracks          []string `json:"seed_tracks,omitempty"`
	SeedArtists         []string `json:"seed_artists,omitempty"`
	TargetEnergy        *float64 `json:"target_energy,omitempty"`
	MinEnergy           *float64 `json:"min_energy,omitempty"`
	MaxEnergy           *float64 `json:"max_energy,omitempty"`
	TargetDanceability  *float64 `json:"target_danceability,omitempty"`
	TargetValence       *float64 `json:"target_valence,omitempty"`
	TargetAcousticness  *float64 `json:"target_acousticness,omitempty"`
	MinInstrumentalness *float64 `json:"min_instrumentalness,omitempty"`
	MaxInstrumentalness *float64 `json:"max_instrumentalness,omitempty"`
	MinPopularity       *int     `json:"min_popularity,omitempty"`
	MaxPopularity       *int     `json:"max_popularity,omitempty"`
	MaxDurationMs       *int     `json:"max_duration_ms,omitempty"`
}

// Params renders the present options using their wire names. It is the
// canonical form used for cache keys.
func (o RecommendationOptions) Params() map[string]string {
	p := make(map[string]string)
	putInt := func(k string, v *int) {
		if v != nil {
			p[k] = strconv.Itoa(*v)
		}
	}
	putFloat := func(k string, v *float64) {
		if v != nil {
			p[k] = strconv.FormatFloat(*v, 'f', -1, 64)
		}
	}
	putList := func(k string, v []string) {
		if len(v) > 0 {
			p[k] = strings.Join(v, ",")
		}
	}
	putInt("limit", o.Limit)
	putList("seed_genres", o.SeedGenres)
	putList("seed_tracks", o.SeedTracks)
	putList("seed_artists", o.SeedArtists)
	putFloat("target_energy", o.TargetEnergy)
	putFloat("min_energy", o.MinEnergy)
	putFloat("max_energy", o.MaxEnergy)
	putFloat("target_danceability", o.TargetDanceability)
	putFloat("target_valence", o.TargetValence)
	putFloat("target_acousticness", o.TargetAcousticness)
	putFloat("min_instrumentalness", o.MinInstrumentalness)
	putFloat("max_instrumentalness", o.MaxInstrumentalness)
	putInt("min_popularity", o.MinPopularity)
	putInt("max_popularity", o.MaxPopularity)
	putInt("max_duration_ms", o.MaxDurationMs)
	return p
}

// Int returns a pointer to v for filling RecommendationOptions.
func Int(v int) *int { return &v }

// Float returns a pointer to v for filling RecommendationOptions.
func Float(v float64) *float64 { return &v }
