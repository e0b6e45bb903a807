// Package insights runs the end-to-end pipelines behind each command: it
// fetches playlist data through a music.Catalog, fanning out where calls are
// independent, and feeds the merged feature set to the analysis package.

package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"Playlist-Pulse/pkg/analysis"
	"Playlist-Pulse/pkg/cache"
	"Playlist-Pulse/pkg/music"
)

// Service builds playlist analyses, battles and recommendations.
type Service struct {
	catalog music.Catalog
	cache   *cache.Cache
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewService returns a Service reading through catalog. ch caches finished
// analyses and may be nil.
func NewService(catalog music.Catalog, ch *cache.Cache, log logrus.FieldLogger) *Service {
	if ch == nil {
		ch = cache.Disabled()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{catalog: catalog, cache: ch, log: log.WithField("component", "insights"), now: time.Now}
}

// TopTrack is a compact track summary for display.
type TopTrack struct {
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	AlbumArt string `json:"album_art,omitempty"`
}

// PlaylistAnalysis is the full report for one playlist.
type PlaylistAnalysis struct {
	PlaylistID             string                `json:"playlist_id"`
	PlaylistName           string                `json:"playlist_name"`
	Owner                  string                `json:"owner"`
	CoverURL               string                `json:"cover_url,omitempty"`
	TrackCount             int                   `json:"track_count"`
	AudioDNA               analysis.AudioDNA     `json:"audio_dna"`
	PersonalityType        string                `json:"personality_type"`
	PersonalityDescription string                `json:"personality_description"`
	GenreDistribution      []analysis.GenreShare `json:"genre_distribution"`
	Subgenres              []analysis.Subgenre   `json:"subgenres"`
	HealthScore            int                   `json:"health_score"`
	HealthStatus           string                `json:"health_status"`
	OverallRating          float64               `json:"overall_rating"`
	RatingDescription      string                `json:"rating_description"`
	TopTracks              []TopTrack            `json:"top_tracks"`
	Evolution              analysis.Evolution    `json:"evolution"`
	AnalyzedAt             time.Time             `json:"analyzed_at"`
}

// profile is everything fetched for one playlist.
type profile struct {
	playlist *music.Playlist
	tracks   []music.Track
	features []music.AudioFeatures
	genres   analysis.GenreCount
}

// loadProfile fetches metadata and tracks concurrently, then audio features
// and artist genres concurrently.
func (s *Service) loadProfile(ctx context.Context, id string) (*profile, error) {
	p := &profile{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pl, err := s.catalog.GetPlaylist(gctx, id)
		if err != nil {
			return fmt.Errorf("get playlist %s: %w", id, err)
		}
		p.playlist = pl
		return nil
	})
	g.Go(func() error {
		tracks, err := s.catalog.GetPlaylistTracks(gctx, id)
		if err != nil {
			return fmt.Errorf("get tracks of %s: %w", id, err)
		}
		p.tracks = tracks
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		feats, err := s.catalog.GetAudioFeatures(gctx, music.TrackIDs(p.tracks))
		if err != nil {
			return fmt.Errorf("get audio features of %s: %w", id, err)
		}
		p.features = music.ValidFeatures(feats)
		return nil
	})
	g.Go(func() error {
		artists, err := s.catalog.GetArtists(gctx, music.ArtistIDs(p.tracks))
		if err != nil {
			return fmt.Errorf("get artists of %s: %w", id, err)
		}
		p.genres = analysis.CountGenres(artists)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return p, nil
}

// AnalyzePlaylist returns the full report for the playlist named by ref.
// Finished reports are cached under the analysis key.
func (s *Service) AnalyzePlaylist(ctx context.Context, ref string) (*PlaylistAnalysis, error) {
	id, err := ParsePlaylistID(ref)
	if err != nil {
		return nil, err
	}
	log := s.log.WithFields(logrus.Fields{"run_id": uuid.NewString(), "playlist": id})

	var cached PlaylistAnalysis
	if s.cache.Get(ctx, cache.AnalysisKey(id), &cached) {
		log.Debug("analysis served from cache")
		return &cached, nil
	}

	start := s.now()
	p, err := s.loadProfile(ctx, id)
	if err != nil {
		log.WithError(err).Error("playlist analysis failed")
		return nil, err
	}

	health := analysis.CalculateHealth(p.features, len(p.tracks), len(p.genres))
	personality := analysis.DeterminePersonality(p.features, p.genres.Names())
	rating := analysis.CalculateRating(health.Score, len(p.tracks))

	out := &PlaylistAnalysis{
		PlaylistID:             id,
		PlaylistName:           p.playlist.Name,
		Owner:                  p.playlist.Owner,
		CoverURL:               p.playlist.CoverURL,
		TrackCount:             p.playlist.TrackCount,
		AudioDNA:               analysis.ComputeAudioDNA(p.features),
		PersonalityType:        personality.Type,
		PersonalityDescription: personality.Description,
		GenreDistribution:      analysis.GenreDistribution(p.genres),
		Subgenres:              analysis.ClassifySubgenres(p.genres),
		HealthScore:            health.Score,
		HealthStatus:           health.Status,
		OverallRating:          rating.Rating,
		RatingDescription:      rating.Description,
		TopTracks:              topTracks(p.tracks, 5),
		Evolution:              analysis.AnalyzePlaylistEvolution(p.features),
		AnalyzedAt:             s.now().UTC(),
	}
	s.cache.Set(ctx, cache.AnalysisKey(id), out, s.cache.TTL.Analysis)
	log.WithFields(logrus.Fields{
		"tracks":   len(p.tracks),
		"features": len(p.features),
		"score":    health.Score,
		"elapsed":  s.now().Sub(start),
	}).Info("playlist analyzed")
	return out, nil
}

// Evolution reports how the playlist named by ref changes from its first
// half to its second.
func (s *Service) Evolution(ctx context.Context, ref string) (*analysis.Evolution, error) {
	id, err := ParsePlaylistID(ref)
	if err != nil {
		return nil, err
	}
	tracks, err := s.catalog.GetPlaylistTracks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tracks of %s: %w", id, err)
	}
	feats, err := s.catalog.GetAudioFeatures(ctx, music.TrackIDs(tracks))
	if err != nil {
		return nil, fmt.Errorf("get audio features of %s: %w", id, err)
	}
	ev := analysis.AnalyzePlaylistEvolution(music.ValidFeatures(feats))
	return &ev, nil
}

// Recommendation is the outcome of a strategy-driven recommendation query.
type Recommendation struct {
	PlaylistID string                      `json:"playlist_id"`
	Strategy   string                      `json:"strategy"`
	Options    map[string]string           `json:"options"`
	Tracks     []music.Track               `json:"tracks"`
	Tuning     music.RecommendationOptions `json:"-"`
}

// maxSeedTracks keeps the seed total within the provider's limit of five.
const maxSeedTracks = 5

// Recommend tunes a recommendation query to the playlist named by ref using
// the named strategy and returns up to count tracks. Unknown strategy names
// use mood_safe_pick. When the playlist has no genres its first tracks are
// used as seeds instead.
func (s *Service) Recommend(ctx context.Context, ref, strategyName string, count int) (*Recommendation, error) {
	id, err := ParsePlaylistID(ref)
	if err != nil {
		return nil, err
	}
	strategy, ok := analysis.ParseStrategy(strategyName)
	if !ok && strategyName != "" {
		s.log.WithField("strategy", strategyName).Warn("unknown strategy, using mood_safe_pick")
	}
	p, err := s.loadProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	opts := analysis.GenerateRecommendationStrategy(p.features, p.genres.Names(), strategy, count)
	if len(opts.SeedGenres) == 0 {
		seeds := music.TrackIDs(p.tracks)
		if len(seeds) > maxSeedTracks {
			seeds = seeds[:maxSeedTracks]
		}
		opts.SeedTracks = seeds
	}
	tracks, err := s.catalog.GetRecommendations(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("get recommendations for %s: %w", id, err)
	}
	return &Recommendation{
		PlaylistID: id,
		Strategy:   strategy.String(),
		Options:    opts.Params(),
		Tracks:     tracks,
		Tuning:     opts,
	}, nil
}

// Search looks up tracks by free text.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]music.Track, error) {
	return s.catalog.SearchTracks(ctx, query, limit)
}

func topTracks(tracks []music.Track, n int) []TopTrack {
	if len(tracks) < n {
		n = len(tracks)
	}
	out := make([]TopTrack, 0, n)
	for _, t := range tracks[:n] {
		out = append(out, TopTrack{Name: t.Name, Artist: t.ArtistName(), AlbumArt: t.AlbumArt})
	}
	return out
}
